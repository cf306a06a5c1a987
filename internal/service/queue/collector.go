package queue

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector 在每次抓取时读取队列快照，不需要额外维护计数
type Collector struct {
	q            *Queue
	depthDesc    *prometheus.Desc
	inFlightDesc *prometheus.Desc
	pausedDesc   *prometheus.Desc
	failureDesc  *prometheus.Desc
}

func NewCollector(q *Queue) *Collector {
	return &Collector{
		q: q,
		depthDesc: prometheus.NewDesc("dispatcher_lane_depth",
			"通道中等待领取的任务数", []string{"lane"}, nil),
		inFlightDesc: prometheus.NewDesc("dispatcher_lane_in_flight",
			"通道中已领取未完成的任务数", []string{"lane"}, nil),
		pausedDesc: prometheus.NewDesc("dispatcher_lane_paused",
			"通道是否暂停，1 表示暂停", []string{"lane"}, nil),
		failureDesc: prometheus.NewDesc("dispatcher_failure_rate",
			"健康检查窗口内的失败率（百分比）", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depthDesc
	ch <- c.inFlightDesc
	ch <- c.pausedDesc
	ch <- c.failureDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	h := c.q.Health()
	for _, l := range h.Lanes {
		name := l.Lane.String()
		ch <- prometheus.MustNewConstMetric(c.depthDesc, prometheus.GaugeValue, float64(l.Depth), name)
		ch <- prometheus.MustNewConstMetric(c.inFlightDesc, prometheus.GaugeValue, float64(l.InFlight), name)
		paused := 0.0
		if l.Paused {
			paused = 1
		}
		ch <- prometheus.MustNewConstMetric(c.pausedDesc, prometheus.GaugeValue, paused, name)
	}
	ch <- prometheus.MustNewConstMetric(c.failureDesc, prometheus.GaugeValue, h.FailureRate)
}
