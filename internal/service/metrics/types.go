package metrics

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

type Config struct {
	// Capacity 环形缓冲区容量，满了之后覆盖最老的记录
	Capacity int `yaml:"capacity"`
	// Retention 超过这个时间的记录在清理时删除
	Retention time.Duration `yaml:"retention"`
}

func DefaultConfig() Config {
	return Config{
		Capacity:  10000,
		Retention: 7 * 24 * time.Hour,
	}
}

// 告警阈值
const (
	criticalSuccessRate   = 90.0
	warningSuccessRate    = 95.0
	warningProcessingMs   = 3000.0
	warningDeliveryRate   = 90.0
	deliveryRateMinVolume = 10
)

// StatsFilter 零值表示统计全部保留的记录
type StatsFilter struct {
	// Window 只统计最近 Window 内的记录
	Window   time.Duration
	Template domain.TemplateName
}

// WindowCounts 固定时间窗口内的发送和失败数
type WindowCounts struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type TemplateStats struct {
	Sent         int     `json:"sent"`
	Failed       int     `json:"failed"`
	Delivered    int     `json:"delivered"`
	Opened       int     `json:"opened"`
	Clicked      int     `json:"clicked"`
	Bounced      int     `json:"bounced"`
	DeliveryRate float64 `json:"deliveryRate"`
	OpenRate     float64 `json:"openRate"`
	ClickRate    float64 `json:"clickRate"`
}

type SystemStats struct {
	TotalSent   int `json:"totalSent"`
	TotalFailed int `json:"totalFailed"`
	// SuccessRate 没有任何发送记录时为 100
	SuccessRate         float64                               `json:"successRate"`
	AvgProcessingTimeMs float64                               `json:"avgProcessingTimeMs"`
	LastHour            WindowCounts                          `json:"lastHour"`
	Last24Hours         WindowCounts                          `json:"last24Hours"`
	Last7Days           WindowCounts                          `json:"last7Days"`
	Templates           map[domain.TemplateName]TemplateStats `json:"templates"`
}

// ProviderEvent 供应商回调上报的投递状态变化
type ProviderEvent struct {
	JobID        uint64               `json:"jobId"`
	Recipient    string               `json:"recipient"`
	TemplateName domain.TemplateName  `json:"templateName,omitempty"`
	Status       domain.AttemptStatus `json:"status"`
	Timestamp    time.Time            `json:"timestamp,omitempty"`
}
