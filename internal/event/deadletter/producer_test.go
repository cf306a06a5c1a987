package deadletter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"github.com/ecodeclub/mq-api/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_OnDeadLetter(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := memory.NewMQ()
	require.NoError(t, q.CreateTopic(ctx, Topic, 1))
	consumer, err := q.Consumer(Topic, "test")
	require.NoError(t, err)
	producer, err := NewProducer(q)
	require.NoError(t, err)

	producer.OnDeadLetter(ctx, domain.Job{
		ID:           42,
		Recipients:   []string{"a@example.com", "b@example.com"},
		TemplateName: domain.TemplateRentReminder,
		Lane:         domain.LaneDeadLetter,
		OriginLane:   domain.LaneImmediate,
		Attempt:      3,
		MaxAttempts:  3,
		TrackingID:   "track-42",
		LastError:    "供应商临时错误",
		Status:       domain.JobStatusDead,
	})

	msg, err := consumer.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "track-42", string(msg.Key))

	var evt Event
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.WithinDuration(t, time.Now(), evt.DeadAt, time.Minute)
	evt.DeadAt = time.Time{}
	assert.Equal(t, Event{
		JobID:       42,
		TrackingID:  "track-42",
		Template:    domain.TemplateRentReminder,
		Lane:        domain.LaneImmediate,
		Recipients:  2,
		Attempt:     3,
		MaxAttempts: 3,
		Error:       "供应商临时错误",
	}, evt)
}
