package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Hook 为 Redis 命令、管道和建连收集指标。
// 追踪ID去重和分布式锁都走这个客户端，redis.Nil 不算错误
type Hook struct {
	commandCounter   *prometheus.CounterVec
	commandDuration  *prometheus.SummaryVec
	pipelineCounter  *prometheus.CounterVec
	pipelineSize     prometheus.Histogram
	pipelineDuration prometheus.Summary
	dialCounter      *prometheus.CounterVec
}

// NewHook 指标注册到 reg
func NewHook(reg prometheus.Registerer, namespace string) *Hook {
	objectives := map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}
	h := &Hook{
		commandCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_commands_total",
			Help:      "Redis 命令执行次数",
		}, []string{"command", "status"}),
		commandDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "redis_command_duration_seconds",
			Help:       "Redis 命令耗时（秒）",
			Objectives: objectives,
		}, []string{"command"}),
		pipelineCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_pipelines_total",
			Help:      "Redis 管道执行次数",
		}, []string{"status"}),
		pipelineSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "redis_pipeline_size",
			Help:      "单个管道里的命令数，批量去重时等于批次数",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		pipelineDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "redis_pipeline_duration_seconds",
			Help:       "Redis 管道耗时（秒）",
			Objectives: objectives,
		}),
		dialCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_dials_total",
			Help:      "Redis 建连次数",
		}, []string{"status"}),
	}
	reg.MustRegister(h.commandCounter, h.commandDuration, h.pipelineCounter,
		h.pipelineSize, h.pipelineDuration, h.dialCounter)
	return h
}

func status(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return statusError
	}
	return statusSuccess
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.commandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		h.commandCounter.WithLabelValues(cmd.Name(), status(err)).Inc()
		return err
	}
}

// ProcessPipelineHook 任何一条命令失败，整个管道记为失败
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if len(cmds) == 0 {
			return next(ctx, cmds)
		}
		start := time.Now()
		err := next(ctx, cmds)
		h.pipelineDuration.Observe(time.Since(start).Seconds())
		h.pipelineSize.Observe(float64(len(cmds)))

		res := status(err)
		for _, cmd := range cmds {
			if status(cmd.Err()) == statusError {
				res = statusError
				break
			}
		}
		h.pipelineCounter.WithLabelValues(res).Inc()
		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		h.dialCounter.WithLabelValues(status(err)).Inc()
		return conn, err
	}
}

// WithMetrics 指标注册到默认的 Registerer
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(NewHook(prometheus.DefaultRegisterer, "dispatcher"))
	return client
}
