package notify

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "notify",
		Name:      "connections",
		Help:      "Live client connections",
	})
	emittedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "emitted_total",
		Help:      "Notifications passed to the connection server",
	}, []string{"event", "scope"})
	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "failed_total",
		Help:      "Failed bus operations",
	}, []string{"op"})
)

// Collectors returns metrics of the package for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{connectionsGauge, emittedCounter, failedCounter}
}
