package deadletter

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

const Topic = "delivery_dead_letter"

type Event struct {
	JobID       uint64              `json:"jobId"`
	TrackingID  string              `json:"trackingId"`
	Template    domain.TemplateName `json:"template"`
	Lane        domain.Lane         `json:"originLane"`
	Recipients  int                 `json:"recipients"`
	Attempt     int                 `json:"attempt"`
	MaxAttempts int                 `json:"maxAttempts"`
	Error       string              `json:"error"`
	DeadAt      time.Time           `json:"deadAt"`
}

func newEvent(job domain.Job, now time.Time) Event {
	return Event{
		JobID:       job.ID,
		TrackingID:  job.TrackingID,
		Template:    job.TemplateName,
		Lane:        job.OriginLane,
		Recipients:  len(job.Recipients),
		Attempt:     job.Attempt,
		MaxAttempts: job.MaxAttempts,
		Error:       job.LastError,
		DeadAt:      now,
	}
}
