package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the reward engine collectors.
	Registry = prometheus.NewRegistry()

	bracketCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "bracket",
			Name:      "cycles_completed_total",
			Help:      "Completed bracket cycles by matched tier label.",
		},
		[]string{"tier"},
	)

	badgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "badges",
			Name:      "awarded_total",
			Help:      "Badges awarded by badge code.",
		},
		[]string{"badge"},
	)

	referralConversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "referrals",
			Name:      "conversions_total",
			Help:      "Referral conversions by payout outcome.",
		},
		[]string{"outcome"},
	)

	spins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "spin",
			Name:      "spins_total",
			Help:      "Spin wheel draws by winning reward type.",
		},
		[]string{"reward_type"},
	)

	degradedPurchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "fulfillment",
			Name:      "degraded_total",
			Help:      "Purchase completions where a reward step failed.",
		},
		[]string{"step"},
	)

	conflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rewards",
			Subsystem: "ledger",
			Name:      "version_conflicts_total",
			Help:      "Optimistic write conflicts detected on reward accounts.",
		},
	)
)

func init() {
	Registry.MustRegister(
		bracketCycles,
		badgesAwarded,
		referralConversions,
		spins,
		degradedPurchases,
		conflicts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveCycleCompleted(tier string) {
	bracketCycles.WithLabelValues(tier).Inc()
}

func ObserveBadgeAwarded(code string) {
	badgesAwarded.WithLabelValues(code).Inc()
}

func ObserveReferralConversion(paid bool) {
	outcome := "capped"
	if paid {
		outcome = "paid"
	}
	referralConversions.WithLabelValues(outcome).Inc()
}

func ObserveSpin(rewardType string) {
	spins.WithLabelValues(rewardType).Inc()
}

func ObserveDegraded(step string) {
	degradedPurchases.WithLabelValues(step).Inc()
}

func ObserveConflict() {
	conflicts.Inc()
}
