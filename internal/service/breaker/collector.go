package breaker

import "github.com/prometheus/client_golang/prometheus"

// Collector 熔断器状态：0 closed，1 open，2 half_open
type Collector struct {
	breakers  []*Breaker
	stateDesc *prometheus.Desc
	failDesc  *prometheus.Desc
}

func NewCollector(breakers ...*Breaker) *Collector {
	return &Collector{
		breakers: breakers,
		stateDesc: prometheus.NewDesc("dispatcher_circuit_state",
			"熔断器状态，0 closed，1 open，2 half_open", []string{"provider"}, nil),
		failDesc: prometheus.NewDesc("dispatcher_circuit_consecutive_failures",
			"熔断器连续失败次数", []string{"provider"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stateDesc
	ch <- c.failDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, b := range c.breakers {
		s := b.Snapshot()
		ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, float64(b.State()), s.Name)
		ch <- prometheus.MustNewConstMetric(c.failDesc, prometheus.GaugeValue, float64(s.ConsecutiveFailures), s.Name)
	}
}
