package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backends := map[string]Limiter{
		"sliding redis": SlidingLimiter{Client: client, Prefix: "ratelimit:"},
		"memory":        NewMemoryLimiter("ratelimit"),
	}
	for name, l := range backends {
		t.Run(name, func(t *testing.T) {
			handler := Handler{
				Limiter: l,
				Config: Config{
					Key:    func(*http.Request) string { return "static" },
					Window: time.Minute,
					Max:    1,
				},
			}
			counted := handler.Middleware(okHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkouts", nil)
			rr1 := httptest.NewRecorder()
			counted.ServeHTTP(rr1, req.Clone(req.Context()))
			require.Equal(t, http.StatusOK, rr1.Code)

			rr2 := httptest.NewRecorder()
			counted.ServeHTTP(rr2, req.Clone(req.Context()))
			require.Equal(t, http.StatusTooManyRequests, rr2.Code)
			require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
			require.Equal(t, "0", rr2.Header().Get("X-RateLimit-Remaining"))
			require.NotEmpty(t, rr2.Header().Get("Retry-After"))
			require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
		})
	}
}

func TestHandlerMiddlewareKeysByClient(t *testing.T) {
	var rejected []string
	handler := Handler{
		Limiter:  NewMemoryLimiter("clients"),
		Config:   Config{Scope: "api", Key: ClientKey, Window: time.Minute, Max: 1},
		OnReject: func(_ *http.Request, key string) { rejected = append(rejected, key) },
	}
	counted := handler.Middleware(okHandler())

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		req.Header.Set("X-Forwarded-For", ip)
		counted.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, []string{"api:ip:10.0.0.1"}, rejected)
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	called := false
	handler := Handler{
		Limiter: SlidingLimiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "err" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(error) { called = true },
	}

	rr := httptest.NewRecorder()
	handler.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestHandlerMiddlewareWithoutLimiter(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler{}.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
