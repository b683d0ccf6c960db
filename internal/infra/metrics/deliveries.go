package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		deliveriesTotal,
		deliveriesFailedTotal,
		deliveriesExpiredTotal,
		deleteFailuresTotal,
		armedTimers,
	)
}

var (
	deliveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_total",
			Help: "Total media deliveries sent and recorded in the ledger.",
		},
	)

	deliveriesFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_failed_total",
			Help: "Total redemption attempts aborted by a gateway send failure.",
		},
	)

	deliveriesExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_expired_total",
			Help: "Total ledger records removed by the expiry scheduler.",
		},
	)

	deleteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_delete_failures_total",
			Help: "Platform delete calls that failed at expiry (best effort, swallowed).",
		},
	)

	armedTimers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "expiry_timers_armed",
			Help: "Deletion timers currently armed in memory.",
		},
	)
)

func IncDelivered() { deliveriesTotal.Inc() }

func IncDeliveryFailed() { deliveriesFailedTotal.Inc() }

func IncExpired() { deliveriesExpiredTotal.Inc() }

func IncDeleteFailed() { deleteFailuresTotal.Inc() }

func SetArmedTimers(n int) { armedTimers.Set(float64(n)) }
