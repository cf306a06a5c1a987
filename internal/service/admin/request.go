package admin

import (
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
)

// SendRequest HTTP 和 Kafka 传入的发送请求，Data 按 Template 解析成具体的模板数据
type SendRequest struct {
	Recipients []string            `json:"recipients"`
	Template   domain.TemplateName `json:"template"`
	Data       json.RawMessage     `json:"data"`
	Priority   int                 `json:"priority"`
	TrackingID string              `json:"trackingId"`
	Metadata   map[string]string   `json:"metadata"`

	// 以下字段只有定时发送使用，三选一
	DelayMs int64      `json:"delayMs,omitempty"`
	At      *time.Time `json:"at,omitempty"`
	Cron    string     `json:"cron,omitempty"`
}

func (r SendRequest) EnqueueRequest() (EnqueueRequest, error) {
	if len(r.Data) == 0 {
		return EnqueueRequest{}, fmt.Errorf("%w: data 不能为空", errs.ErrInvalidParameter)
	}
	payload, err := domain.DecodePayload(r.Template, r.Data)
	if err != nil {
		return EnqueueRequest{}, err
	}
	return EnqueueRequest{
		Recipients: r.Recipients,
		Payload:    payload,
		Priority:   r.Priority,
		TrackingID: r.TrackingID,
		Metadata:   r.Metadata,
	}, nil
}

func (r SendRequest) ScheduleOption() domain.ScheduleOption {
	opt := domain.ScheduleOption{
		Delay: time.Duration(r.DelayMs) * time.Millisecond,
		Cron:  r.Cron,
	}
	if r.At != nil {
		opt.At = *r.At
	}
	return opt
}
