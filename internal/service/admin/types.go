package admin

import (
	"context"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/service/breaker"
)

// EnqueueRequest 三种入队方式共用的请求
type EnqueueRequest struct {
	Recipients []string
	Payload    domain.Payload
	Priority   int
	// TrackingID 为空时生成一个 UUID
	TrackingID string
	Metadata   map[string]string
}

// Health 健康检查结果，任何情况下都能拿到
type Health struct {
	Status          domain.HealthStatus `json:"status"`
	ProviderCircuit breaker.Snapshot    `json:"providerCircuit"`
	LaneDepths      map[string]int      `json:"laneDepths"`
	Lanes           []domain.LaneHealth `json:"lanes"`
	WorkerCounts    map[string]int      `json:"workerCounts"`
	Backlog         int                 `json:"backlog"`
	InFlight        int                 `json:"inFlight"`
	FailureRate     float64             `json:"failureRate"`
}

// WorkerCounter *worker.Pool 满足这个接口
type WorkerCounter interface {
	WorkerCounts() map[string]int
}

// TemplateCache *renderer.Renderer 满足这个接口
type TemplateCache interface {
	ClearCache()
}

// LanePausePublisher 把通道暂停状态同步给集群里的其他实例
type LanePausePublisher interface {
	Publish(ctx context.Context, lane domain.Lane, paused bool) error
}
