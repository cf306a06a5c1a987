// Package metrics 为供应商实现添加指标收集的装饰器
package metrics

import (
	"context"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"github.com/prometheus/client_golang/prometheus"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 为供应商实现添加指标收集的装饰器
type Provider struct {
	provider            provider.Provider
	sendDurationSummary *prometheus.SummaryVec
	sendCounter         *prometheus.CounterVec
	sendStatusCounter   *prometheus.CounterVec
}

// NewProvider 创建一个新的带有指标收集的供应商，指标注册到 reg
func NewProvider(p provider.Provider, reg prometheus.Registerer) *Provider {
	sendDurationSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:        "provider_send_duration_seconds",
			Help:        "供应商发送通知耗时统计（秒）",
			Objectives:  map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:      time.Minute * 5,
			ConstLabels: prometheus.Labels{"provider": p.Name()},
		},
		[]string{"template", "status"},
	)

	sendCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "provider_send_total",
			Help:        "供应商发送通知总数",
			ConstLabels: prometheus.Labels{"provider": p.Name()},
		},
		[]string{"template"},
	)

	sendStatusCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "provider_send_status_total",
			Help:        "供应商发送通知状态统计",
			ConstLabels: prometheus.Labels{"provider": p.Name()},
		},
		[]string{"template", "status"},
	)

	reg.MustRegister(sendDurationSummary, sendCounter, sendStatusCounter)

	return &Provider{
		provider:            p,
		sendDurationSummary: sendDurationSummary,
		sendCounter:         sendCounter,
		sendStatusCounter:   sendStatusCounter,
	}
}

func (p *Provider) Name() string {
	return p.provider.Name()
}

// Send 发送通知并记录指标
func (p *Provider) Send(ctx context.Context, msg provider.Message) error {
	startTime := time.Now()
	tmpl := msg.TemplateName.String()
	p.sendCounter.WithLabelValues(tmpl).Inc()

	err := p.provider.Send(ctx, msg)

	status := "succeeded"
	if err != nil {
		status = errs.Classify(err).String()
	}
	p.sendStatusCounter.WithLabelValues(tmpl, status).Inc()
	p.sendDurationSummary.WithLabelValues(tmpl, status).Observe(time.Since(startTime).Seconds())
	return err
}
