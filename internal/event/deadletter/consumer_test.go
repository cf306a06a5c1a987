package deadletter

import (
	"context"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumer_Consume(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	q := memory.NewMQ()
	require.NoError(t, q.CreateTopic(ctx, Topic, 1))

	var got []Event
	consumer, err := NewConsumer(HandlerFunc(func(_ context.Context, evt Event) error {
		got = append(got, evt)
		return nil
	}), q, "test")
	require.NoError(t, err)
	producer, err := NewProducer(q)
	require.NoError(t, err)

	// 非法消息被丢弃
	raw, err := q.Producer(Topic)
	require.NoError(t, err)
	_, err = raw.Produce(ctx, &mq.Message{Value: []byte("not json")})
	require.NoError(t, err)
	require.NoError(t, producer.Produce(ctx, Event{JobID: 7, TrackingID: "t-7", Lane: domain.LaneBulk}))

	require.NoError(t, consumer.Consume(ctx))
	assert.Empty(t, got)
	require.NoError(t, consumer.Consume(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, uint64(7), got[0].JobID)
	assert.Equal(t, domain.LaneBulk, got[0].Lane)
}

func TestLogHandler(t *testing.T) {
	t.Parallel()
	assert.NoError(t, LogHandler().HandleDeadLetter(context.Background(), Event{JobID: 1}))
}
