package sendrequest

import (
	"gitee.com/flycash/notification-dispatcher/internal/service/admin"
)

const Topic = "delivery_send_request"

type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeScheduled Mode = "scheduled"
	ModeBulk      Mode = "bulk"
)

// Event 上游服务通过 Kafka 提交的发送请求
type Event struct {
	Mode Mode `json:"mode"`
	admin.SendRequest
}
