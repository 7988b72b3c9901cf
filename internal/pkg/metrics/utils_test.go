package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegister_Twice(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_register_twice_total", Help: "test"})
	assert.Nil(t, Register(c))
	assert.Nil(t, Register(c))
	prometheus.Unregister(c)
}

func TestRegisterAll(t *testing.T) {
	c1 := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_register_all_1_total", Help: "test"})
	c2 := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_register_all_2_total", Help: "test"})
	assert.Nil(t, RegisterAll(c1, c2))
	prometheus.Unregister(c1)
	prometheus.Unregister(c2)
}
