package metrics

import (
	"fmt"
	"sort"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

// SystemStats 汇总统计。发送数只统计 sent，失败数只统计 failed，
// 送达、打开、点击、退信来自供应商回调，只用于模板维度的比率
func (r *Recorder) SystemStats(filter StatsFilter) SystemStats {
	now := r.now()
	stats := SystemStats{Templates: make(map[domain.TemplateName]TemplateStats)}
	var (
		totalProcessing int64
		processed       int
	)

	r.mu.RLock()
	r.each(func(rec domain.DeliveryAttemptRecord) {
		if filter.Template != "" && rec.TemplateName != filter.Template {
			return
		}
		if filter.Window > 0 && rec.Timestamp.Before(now.Add(-filter.Window)) {
			return
		}
		age := now.Sub(rec.Timestamp)
		ts := stats.Templates[rec.TemplateName]
		switch rec.Status {
		case domain.AttemptStatusSent:
			stats.TotalSent++
			ts.Sent++
			addWindow(&stats, age, true)
		case domain.AttemptStatusFailed:
			stats.TotalFailed++
			ts.Failed++
			addWindow(&stats, age, false)
		case domain.AttemptStatusDelivered:
			ts.Delivered++
		case domain.AttemptStatusOpened:
			ts.Opened++
		case domain.AttemptStatusClicked:
			ts.Clicked++
		case domain.AttemptStatusBounced:
			ts.Bounced++
		}
		if rec.Status == domain.AttemptStatusSent || rec.Status == domain.AttemptStatusFailed {
			totalProcessing += rec.ProcessingTimeMs
			processed++
		}
		stats.Templates[rec.TemplateName] = ts
	})
	r.mu.RUnlock()

	stats.SuccessRate = 100
	if total := stats.TotalSent + stats.TotalFailed; total > 0 {
		stats.SuccessRate = percent(stats.TotalSent, total)
	}
	if processed > 0 {
		stats.AvgProcessingTimeMs = float64(totalProcessing) / float64(processed)
	}
	for name, ts := range stats.Templates {
		ts.DeliveryRate = percent(ts.Delivered, ts.Sent)
		ts.OpenRate = percent(ts.Opened, ts.Delivered)
		ts.ClickRate = percent(ts.Clicked, ts.Opened)
		stats.Templates[name] = ts
	}
	return stats
}

func addWindow(stats *SystemStats, age time.Duration, sent bool) {
	windows := []struct {
		limit time.Duration
		wc    *WindowCounts
	}{
		{limit: time.Hour, wc: &stats.LastHour},
		{limit: 24 * time.Hour, wc: &stats.Last24Hours},
		{limit: 7 * 24 * time.Hour, wc: &stats.Last7Days},
	}
	for _, w := range windows {
		if age > w.limit {
			continue
		}
		if sent {
			w.wc.Sent++
		} else {
			w.wc.Failed++
		}
	}
}

// percent 分母为 0 时返回 0
func percent(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// FailureRate 最近 window 内 failed 占 sent+failed 的百分比，没有记录时为 0
func (r *Recorder) FailureRate(window time.Duration) float64 {
	cutoff := r.now().Add(-window)
	var sent, failed int
	r.mu.RLock()
	r.each(func(rec domain.DeliveryAttemptRecord) {
		if rec.Timestamp.Before(cutoff) {
			return
		}
		switch rec.Status {
		case domain.AttemptStatusSent:
			sent++
		case domain.AttemptStatusFailed:
			failed++
		}
	})
	r.mu.RUnlock()
	return percent(failed, sent+failed)
}

// Alerts 根据当前保留的全部记录实时计算，多条告警可以同时存在
func (r *Recorder) Alerts() []domain.Alert {
	stats := r.SystemStats(StatsFilter{})
	var alerts []domain.Alert

	if stats.TotalSent+stats.TotalFailed > 0 {
		switch {
		case stats.SuccessRate < criticalSuccessRate:
			alerts = append(alerts, domain.Alert{
				Level:     domain.AlertLevelCritical,
				Metric:    "successRate",
				Value:     stats.SuccessRate,
				Threshold: criticalSuccessRate,
				Message:   fmt.Sprintf("发送成功率 %.2f%% 低于 %.0f%%", stats.SuccessRate, criticalSuccessRate),
			})
		case stats.SuccessRate < warningSuccessRate:
			alerts = append(alerts, domain.Alert{
				Level:     domain.AlertLevelWarning,
				Metric:    "successRate",
				Value:     stats.SuccessRate,
				Threshold: warningSuccessRate,
				Message:   fmt.Sprintf("发送成功率 %.2f%% 低于 %.0f%%", stats.SuccessRate, warningSuccessRate),
			})
		}
	}

	if stats.AvgProcessingTimeMs > warningProcessingMs {
		alerts = append(alerts, domain.Alert{
			Level:     domain.AlertLevelWarning,
			Metric:    "avgProcessingTimeMs",
			Value:     stats.AvgProcessingTimeMs,
			Threshold: warningProcessingMs,
			Message:   fmt.Sprintf("平均处理耗时 %.0fms 超过 %.0fms", stats.AvgProcessingTimeMs, warningProcessingMs),
		})
	}

	names := make([]string, 0, len(stats.Templates))
	for name := range stats.Templates {
		names = append(names, name.String())
	}
	sort.Strings(names)
	for _, name := range names {
		ts := stats.Templates[domain.TemplateName(name)]
		if ts.Sent > deliveryRateMinVolume && ts.DeliveryRate < warningDeliveryRate {
			alerts = append(alerts, domain.Alert{
				Level:     domain.AlertLevelWarning,
				Metric:    "deliveryRate." + name,
				Value:     ts.DeliveryRate,
				Threshold: warningDeliveryRate,
				Message:   fmt.Sprintf("模板 %s 送达率 %.2f%% 低于 %.0f%%", name, ts.DeliveryRate, warningDeliveryRate),
			})
		}
	}
	return alerts
}
