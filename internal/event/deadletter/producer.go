package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"github.com/ecodeclub/mq-api"
	"github.com/gotomicro/ego/core/elog"
)

// Producer 任务进入死信之后发出事件，发送失败只记录日志
type Producer struct {
	producer mq.Producer
	timeout  time.Duration
	logger   *elog.Component
}

func NewProducer(q mq.MQ) (*Producer, error) {
	p, err := q.Producer(Topic)
	if err != nil {
		return nil, fmt.Errorf("创建死信事件生产者失败: %w", err)
	}
	return &Producer{
		producer: p,
		timeout:  3 * time.Second,
		logger:   elog.DefaultLogger,
	}, nil
}

func (p *Producer) Produce(ctx context.Context, evt Event) error {
	val, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化死信事件失败 %w", err)
	}
	_, err = p.producer.Produce(ctx, &mq.Message{
		Topic: Topic,
		Key:   []byte(evt.TrackingID),
		Value: val,
	})
	return err
}

// OnDeadLetter 队列的回调
func (p *Producer) OnDeadLetter(ctx context.Context, job domain.Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.Produce(ctx, newEvent(job, time.Now())); err != nil {
		p.logger.Error("发送死信事件失败",
			elog.Any("jobId", job.ID),
			elog.String("trackingId", job.TrackingID),
			elog.FieldErr(err))
	}
}
