package http

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

// Result 所有接口统一的响应格式
type Result[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

type Job struct {
	ID           uint64            `json:"jobId"`
	TrackingID   string            `json:"trackingId"`
	Template     string            `json:"template"`
	Lane         string            `json:"lane"`
	Recipients   int               `json:"recipients"`
	Attempt      int               `json:"attempt"`
	MaxAttempts  int               `json:"maxAttempts"`
	ScheduledFor time.Time         `json:"scheduledFor"`
	LastError    string            `json:"lastError,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func newJob(j domain.Job) Job {
	return Job{
		ID:           j.ID,
		TrackingID:   j.TrackingID,
		Template:     j.TemplateName.String(),
		Lane:         j.Lane.String(),
		Recipients:   len(j.Recipients),
		Attempt:      j.Attempt,
		MaxAttempts:  j.MaxAttempts,
		ScheduledFor: j.ScheduledFor,
		LastError:    j.LastError,
		Metadata:     j.Metadata,
	}
}

type BulkResp struct {
	TrackingID string `json:"trackingId"`
	Jobs       []Job  `json:"jobs"`
}
