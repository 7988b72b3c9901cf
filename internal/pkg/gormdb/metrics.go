package gormdb

import "github.com/prometheus/client_golang/prometheus"

var errorCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "maiebridge_db_errors_total",
	Help: "Failed db statements",
})

//Collectors returns package metrics
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{errorCounter}
}
