package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutDuration tracks checkout latency by outcome.
	CheckoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"result"},
	)

	// CouponValidations counts coupon validation outcomes by rejection reason.
	CouponValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_validations_total",
			Help: "Coupon validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// OrdersCreated counts successfully committed checkouts.
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created through checkout",
		},
	)
)

func ObserveCheckout(result string, start time.Time) {
	CheckoutDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

func RecordCouponValidation(outcome string) {
	CouponValidations.WithLabelValues(outcome).Inc()
}
