package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/checkout"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/config"
	"github.com/noah-isme/toko-pricing/internal/health"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/ratelimit"
	"github.com/noah-isme/toko-pricing/internal/security"
	"github.com/noah-isme/toko-pricing/internal/shipping"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "toko-pricing",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = newRedis(rootCtx, cfg, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	calculator := shipping.LinearCalculator{
		CostPerDelivery: cfg.DeliveryCostPerDelivery,
		CostPerProduct:  cfg.DeliveryCostPerProduct,
		FixedCost:       cfg.DeliveryFixedCost,
	}
	store := checkout.NewStore(calculator, cfg.SessionTTL)
	go store.RunSweeper(rootCtx, cfg.SessionSweepInterval, func(removed int) {
		if obs.CheckoutSessionsSwept != nil {
			obs.CheckoutSessionsSwept.Add(float64(removed))
		}
		logger.Debug().Int("removed", removed).Int("active", store.Len()).Msg("checkout sessions swept")
	})

	registry := catalog.NewRegistry()
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Registry: registry, DefaultLimit: cfg.CatalogDefaultLimit})
	checkoutHandler := &checkout.Handler{
		Store:    store,
		Products: registry,
		Logger:   logger.With().Str("component", "checkout").Logger(),
		Currency: cfg.CurrencyCode,
	}

	limiter, err := newLimiter(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rateLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Scope: "api", Key: ratelimit.ClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) {
			if errors.Is(err, ratelimit.ErrBackendUnavailable) {
				return
			}
			logger.Warn().Err(err).Msg("rate limiter backend error")
		},
		OnReject: func(r *http.Request, key string) {
			logger.Debug().Str("key", key).Str("path", r.URL.Path).Msg("rate limited")
		},
	}
	idem := common.Idem{R: redisClient, TTL: cfg.SessionTTL}

	var httpMetrics *obs.HTTPMetrics
	if cfg.PrometheusEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, Skip: isProbe}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: true, NoStore: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)

	if cfg.PrometheusEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{redis: redisClient},
		RedisTimeout: cfg.ReadyRedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(rateLimit.Middleware)
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

		v.Get("/categories", catalogHandler.Categories)
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)
		v.With(idem.Middleware).Post("/products", catalogHandler.Create)

		v.Route("/checkouts", func(c chi.Router) {
			c.Get("/{id}", checkoutHandler.Get)
			c.Delete("/{id}", checkoutHandler.Delete)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", checkoutHandler.Create)
				g.Post("/{id}/items", checkoutHandler.AddItem)
				g.Post("/{id}/campaigns", checkoutHandler.ApplyCampaigns)
				g.Put("/{id}/coupon", checkoutHandler.ApplyCoupon)
			})
		})
	})

	var handler http.Handler = r
	if tracingEnabled {
		handler = otelhttp.NewHandler(r, "toko-pricing", otelhttp.WithFilter(func(req *http.Request) bool {
			return !isProbe(req)
		}))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("rate_limit_backend", cfg.RateLimitBackend).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.PrometheusEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func newLimiter(cfg *config.Config, client *redis.Client, logger zerolog.Logger) (ratelimit.Limiter, error) {
	var backend ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case "redis":
		backend = ratelimit.SlidingLimiter{Client: client, Prefix: "ratelimit:"}
	case "redis-fixed":
		store, err := ratelimit.NewLimiterStore(client, "ratelimit")
		if err != nil {
			return nil, err
		}
		backend = store
	default:
		return ratelimit.NewMemoryLimiter("ratelimit"), nil
	}
	return &ratelimit.Breaker{
		Limiter:      backend,
		MinRequests:  10,
		FailureRatio: 0.5,
		OpenFor:      30 * time.Second,
		OnStateChange: func(from, to ratelimit.BreakerState) {
			if obs.RateLimitBreakerState != nil {
				obs.RateLimitBreakerState.Set(float64(to))
			}
			logger.Warn().Str("from_state", from.String()).Str("to_state", to.String()).Msg("rate limiter breaker transition")
		},
	}, nil
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/metrics", "/health/live", "/health/ready":
		return true
	}
	return false
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	redis *redis.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return health.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
