package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(catalogOpsTotal, redemptionsRejectedTotal)
}

var (
	catalogOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ops_total",
			Help: "Catalog write operations by kind.",
		},
		[]string{"op"}, // 'register', 'delete'
	)

	redemptionsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_rejected_total",
			Help: "Redemptions refused before any send, by reason.",
		},
		[]string{"reason"}, // 'unknown_key', 'rate_limited'
	)
)

func IncCatalogOp(op string) { catalogOpsTotal.WithLabelValues(op).Inc() }
func IncRedemptionRejected(reason string) { redemptionsRejectedTotal.WithLabelValues(reason).Inc() }
