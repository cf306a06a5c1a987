package worker

import (
	"context"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/service/delivery"
)

// Sender *delivery.Client 满足这个接口
type Sender interface {
	SendJob(ctx context.Context, job domain.Job) delivery.Result
}

// Recorder *metrics.Recorder 满足这个接口
type Recorder interface {
	Record(rec domain.DeliveryAttemptRecord)
}

type Config struct {
	// Workers 每个通道的专属 worker 数
	Workers map[domain.Lane]int `yaml:"workers"`
	// SharedWorkers 按 domain.Lanes 的顺序从所有通道领取，立即通道总是先被排空
	SharedWorkers int `yaml:"sharedWorkers"`
	// PollInterval 没有任务时最长的等待时间
	PollInterval time.Duration `yaml:"pollInterval"`
	// BulkInterval 相邻两个批量任务开始处理的最小间隔，和 worker 数无关
	BulkInterval time.Duration `yaml:"bulkInterval"`
}

func DefaultConfig() Config {
	return Config{
		Workers: map[domain.Lane]int{
			domain.LaneImmediate: 8,
			domain.LaneRetry:     2,
			domain.LaneScheduled: 4,
			domain.LaneBulk:      2,
		},
		PollInterval: time.Second,
		BulkInterval: time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers == nil && c.SharedWorkers <= 0 {
		c.Workers = def.Workers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.BulkInterval <= 0 {
		c.BulkInterval = def.BulkInterval
	}
	return c
}
