package domain

// HealthStatus 健康状态
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// LaneHealth 单个通道的快照
type LaneHealth struct {
	Lane     Lane `json:"lane"`
	Depth    int  `json:"depth"`
	InFlight int  `json:"inFlight"`
	Paused   bool `json:"paused"`
}

// QueueHealth 队列整体健康快照
type QueueHealth struct {
	Lanes       []LaneHealth `json:"lanes"`
	Backlog     int          `json:"backlog"`
	InFlight    int          `json:"inFlight"`
	FailureRate float64      `json:"failureRate"`
	Status      HealthStatus `json:"status"`
}
