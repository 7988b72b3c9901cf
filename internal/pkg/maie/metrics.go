package maie

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var requestDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "maie",
	Subsystem: "client",
	Name:      "request_duration_seconds",
	Help:      "Duration of calls to MAIE API",
}, []string{"op", "code"})

func observe(op string, code int, start time.Time) {
	c := "transport"
	if code > 0 {
		c = strconv.Itoa(code)
	}
	requestDur.WithLabelValues(op, c).Observe(time.Since(start).Seconds())
}
