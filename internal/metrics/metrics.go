package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	cartItemsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "larek",
			Name:      "cart_items_added_total",
			Help:      "Count of products added to the cart.",
		},
	)

	cartItemsRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "larek",
			Name:      "cart_items_removed_total",
			Help:      "Count of products removed from the cart.",
		},
	)

	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "larek",
			Name:      "orders_submitted_total",
			Help:      "Count of order submissions by outcome.",
		},
		[]string{"outcome"},
	)

	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "larek",
			Name:      "buyer_validation_failures_total",
			Help:      "Count of buyer validation failures by field.",
		},
		[]string{"field"},
	)

	catalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "larek",
			Name:      "catalog_products",
			Help:      "Number of products in the loaded catalog.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(cartItemsAdded, cartItemsRemoved, ordersSubmitted, validationFailures, catalogSize)
	})
}

func IncCartItemAdded() {
	cartItemsAdded.Inc()
}

func IncCartItemRemoved() {
	cartItemsRemoved.Inc()
}

func IncOrderSubmitted(outcome string) {
	ordersSubmitted.WithLabelValues(outcome).Inc()
}

func IncValidationFailure(field string) {
	validationFailures.WithLabelValues(field).Inc()
}

func SetCatalogSize(n int) {
	catalogSize.Set(float64(n))
}
