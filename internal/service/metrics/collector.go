package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector 在抓取时从 Recorder 计算，不单独维护计数
type Collector struct {
	r              *Recorder
	recordsDesc    *prometheus.Desc
	successDesc    *prometheus.Desc
	processingDesc *prometheus.Desc
	alertsDesc     *prometheus.Desc
}

func NewCollector(r *Recorder) *Collector {
	return &Collector{
		r: r,
		recordsDesc: prometheus.NewDesc("dispatcher_attempt_records",
			"环形缓冲区中保留的投递记录数", nil, nil),
		successDesc: prometheus.NewDesc("dispatcher_success_rate",
			"保留窗口内的发送成功率（百分比）", nil, nil),
		processingDesc: prometheus.NewDesc("dispatcher_avg_processing_ms",
			"保留窗口内的平均处理耗时（毫秒）", nil, nil),
		alertsDesc: prometheus.NewDesc("dispatcher_alerts",
			"当前生效的告警数", []string{"level"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
	ch <- c.successDesc
	ch <- c.processingDesc
	ch <- c.alertsDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.r.SystemStats(StatsFilter{})
	ch <- prometheus.MustNewConstMetric(c.recordsDesc, prometheus.GaugeValue, float64(c.r.Len()))
	ch <- prometheus.MustNewConstMetric(c.successDesc, prometheus.GaugeValue, stats.SuccessRate)
	ch <- prometheus.MustNewConstMetric(c.processingDesc, prometheus.GaugeValue, stats.AvgProcessingTimeMs)
	counts := map[string]int{"critical": 0, "warning": 0, "info": 0}
	for _, a := range c.r.Alerts() {
		counts[string(a.Level)]++
	}
	for level, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.alertsDesc, prometheus.GaugeValue, float64(n), level)
	}
}
