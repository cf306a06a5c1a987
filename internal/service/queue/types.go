package queue

import (
	"context"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

// IDGenerator *sonyflake.Sonyflake 满足这个接口
type IDGenerator interface {
	NextID() (uint64, error)
}

// FailureRateSource 健康检查需要的失败率来源，一般是 MetricsRecorder
type FailureRateSource interface {
	// FailureRate 最近 window 内失败占比，取值 0~100
	FailureRate(window time.Duration) float64
}

// DeadLetterListener 任务进入死信之后的回调，不能阻塞太久
type DeadLetterListener interface {
	OnDeadLetter(ctx context.Context, job domain.Job)
}

type Config struct {
	BulkBatchSize    int           `yaml:"bulkBatchSize"`
	BulkStagger      time.Duration `yaml:"bulkStagger"`
	RetryBaseDelay   time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay    time.Duration `yaml:"retryMaxDelay"`
	ClaimTimeout     time.Duration `yaml:"claimTimeout"`
	RestoreBatchSize int           `yaml:"restoreBatchSize"`

	DegradedBacklog      int           `yaml:"degradedBacklog"`
	UnhealthyBacklog     int           `yaml:"unhealthyBacklog"`
	DegradedFailureRate  float64       `yaml:"degradedFailureRate"`
	UnhealthyFailureRate float64       `yaml:"unhealthyFailureRate"`
	FailureRateWindow    time.Duration `yaml:"failureRateWindow"`
}

func DefaultConfig() Config {
	return Config{
		BulkBatchSize:        50,
		BulkStagger:          time.Second,
		RetryBaseDelay:       time.Second,
		RetryMaxDelay:        5 * time.Minute,
		ClaimTimeout:         5 * time.Minute,
		RestoreBatchSize:     500,
		DegradedBacklog:      500,
		UnhealthyBacklog:     1000,
		DegradedFailureRate:  5,
		UnhealthyFailureRate: 10,
		FailureRateWindow:    time.Hour,
	}
}

// withDefaults 零值字段用默认值补齐
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BulkBatchSize <= 0 {
		c.BulkBatchSize = def.BulkBatchSize
	}
	if c.BulkStagger <= 0 {
		c.BulkStagger = def.BulkStagger
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = def.RetryMaxDelay
	}
	if c.ClaimTimeout <= 0 {
		c.ClaimTimeout = def.ClaimTimeout
	}
	if c.RestoreBatchSize <= 0 {
		c.RestoreBatchSize = def.RestoreBatchSize
	}
	if c.DegradedBacklog <= 0 {
		c.DegradedBacklog = def.DegradedBacklog
	}
	if c.UnhealthyBacklog <= 0 {
		c.UnhealthyBacklog = def.UnhealthyBacklog
	}
	if c.DegradedFailureRate <= 0 {
		c.DegradedFailureRate = def.DegradedFailureRate
	}
	if c.UnhealthyFailureRate <= 0 {
		c.UnhealthyFailureRate = def.UnhealthyFailureRate
	}
	if c.FailureRateWindow <= 0 {
		c.FailureRateWindow = def.FailureRateWindow
	}
	return c
}

// Backoff min(base * 2^attempt, maxDelay)
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay || d <= 0 {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}
