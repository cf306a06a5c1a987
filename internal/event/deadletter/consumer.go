package deadletter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ecodeclub/mq-api"
	"github.com/gotomicro/ego/core/elog"
)

type Handler interface {
	HandleDeadLetter(ctx context.Context, evt Event) error
}

type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleDeadLetter(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// LogHandler 只把死信事件写进日志，供运维排查
func LogHandler() Handler {
	logger := elog.DefaultLogger
	return HandlerFunc(func(_ context.Context, evt Event) error {
		logger.Warn("任务进入死信",
			elog.Any("jobId", evt.JobID),
			elog.String("trackingId", evt.TrackingID),
			elog.String("template", evt.Template.String()),
			elog.String("originLane", evt.Lane.String()),
			elog.Int("attempt", evt.Attempt),
			elog.String("error", evt.Error))
		return nil
	})
}

type Consumer struct {
	handler  Handler
	consumer mq.Consumer
	logger   *elog.Component
}

func NewConsumer(handler Handler, q mq.MQ, groupID string) (*Consumer, error) {
	consumer, err := q.Consumer(Topic, groupID)
	if err != nil {
		return nil, fmt.Errorf("创建死信事件消费者失败: %w", err)
	}
	return &Consumer{
		handler:  handler,
		consumer: consumer,
		logger:   elog.DefaultLogger,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) {
	go func() {
		for ctx.Err() == nil {
			if er := c.Consume(ctx); er != nil && ctx.Err() == nil {
				c.logger.Error("消费死信事件失败", elog.FieldErr(er))
			}
		}
	}()
}

// Consume 处理一条消息。解析失败的消息直接丢弃
func (c *Consumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("获取消息失败: %w", err)
	}
	var evt Event
	if err = json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("解析死信事件失败", elog.FieldErr(err), elog.String("value", string(msg.Value)))
		return nil
	}
	return c.handler.HandleDeadLetter(ctx, evt)
}
