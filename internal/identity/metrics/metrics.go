package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "resolutions_total",
			Help:      "Number of successful identity resolutions by outcome.",
		},
		[]string{"outcome"},
	)
	ResolutionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "resolution_failures_total",
			Help:      "Number of rejected or failed identity resolutions by reason.",
		},
		[]string{"reason"},
	)
	GuildJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "guild_joins_total",
			Help:      "Number of guild auto-join attempts by result.",
		},
		[]string{"result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Resolutions)
	reg.MustRegister(ResolutionFailures)
	reg.MustRegister(GuildJoins)
}
