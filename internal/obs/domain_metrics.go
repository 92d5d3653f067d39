package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutQuotesTotal counts checkout quote computations by outcome.
	CheckoutQuotesTotal *prometheus.CounterVec
	// CampaignQuotedTotal counts quotes served with a winning campaign, by discount kind.
	CampaignQuotedTotal *prometheus.CounterVec
	// CouponQuotedTotal counts quotes served with a non-zero coupon discount, by kind.
	CouponQuotedTotal *prometheus.CounterVec
	// CheckoutDiscountAmount records the combined discount per quote.
	CheckoutDiscountAmount prometheus.Histogram
	// CheckoutSessionsSwept counts sessions removed after expiring.
	CheckoutSessionsSwept prometheus.Counter
	// RateLimitBreakerState reports the limiter backend breaker: 0=closed, 1=open, 2=half-open.
	RateLimitBreakerState prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_quotes_total",
			Help:      "Count of checkout quote computations by outcome.",
		}, []string{"result"})
		CampaignQuotedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaign_quoted_total",
			Help:      "Count of quotes served with a winning campaign, by discount kind.",
		}, []string{"kind"})
		CouponQuotedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_quoted_total",
			Help:      "Count of quotes served with a coupon discount, by discount kind.",
		}, []string{"kind"})
		CheckoutDiscountAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_discount_amount",
			Help:      "Combined campaign and coupon discount per quote.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		CheckoutSessionsSwept = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_swept_total",
			Help:      "Number of expired checkout sessions removed.",
		})
		RateLimitBreakerState = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_breaker_state",
			Help:      "Rate limiter backend breaker state: 0=closed,1=open,2=half-open.",
		})

		mustRegisterCollector(reg, CheckoutQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutQuotesTotal = v
			}
		})
		mustRegisterCollector(reg, CampaignQuotedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CampaignQuotedTotal = v
			}
		})
		mustRegisterCollector(reg, CouponQuotedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponQuotedTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutDiscountAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				CheckoutDiscountAmount = v
			}
		})
		mustRegisterCollector(reg, CheckoutSessionsSwept, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CheckoutSessionsSwept = v
			}
		})
		mustRegisterCollector(reg, RateLimitBreakerState, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				RateLimitBreakerState = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
