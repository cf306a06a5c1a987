package sendrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/mqx2"
	"gitee.com/flycash/notification-dispatcher/internal/service/admin"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"
)

// Enqueuer *admin.Service 满足这个接口
type Enqueuer interface {
	EnqueueImmediate(ctx context.Context, req admin.EnqueueRequest) (domain.Job, error)
	EnqueueScheduled(ctx context.Context, req admin.EnqueueRequest, opt domain.ScheduleOption) (domain.Job, error)
	EnqueueBulk(ctx context.Context, req admin.EnqueueRequest) ([]domain.Job, error)
}

type Consumer struct {
	enqueuer Enqueuer
	consumer mqx2.Consumer

	batchSize    int
	batchTimeout time.Duration

	logger *elog.Component
}

func NewConsumer(enqueuer Enqueuer, consumer *kafka.Consumer, batchSize int, batchTimeout time.Duration) (*Consumer, error) {
	err := consumer.SubscribeTopics([]string{Topic}, nil)
	if err != nil {
		return nil, err
	}
	return newConsumer(enqueuer, consumer, batchSize, batchTimeout), nil
}

func newConsumer(enqueuer Enqueuer, consumer mqx2.Consumer, batchSize int, batchTimeout time.Duration) *Consumer {
	return &Consumer{
		enqueuer:     enqueuer,
		consumer:     consumer,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
		logger:       elog.DefaultLogger,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	go func() {
		for ctx.Err() == nil {
			if er := c.Consume(ctx); er != nil {
				c.logger.Error("消费发送请求失败", elog.FieldErr(er))
			}
		}
	}()
}

// Consume 拉取一批消息，逐条入队，全部处理完之后按分区提交最后一条消息的位移。
// 重复的追踪ID和非法的请求直接跳过，其余入队失败整批不提交，等待重新消费。
func (c *Consumer) Consume(ctx context.Context) error {
	timer := time.NewTimer(c.batchTimeout)
	defer timer.Stop()

	var processed []*kafka.Message
collectBatch:
	for len(processed) < c.batchSize {
		select {
		case <-ctx.Done():
			break collectBatch
		case <-timer.C:
			break collectBatch
		default:
		}

		msg, err := c.consumer.ReadMessage(c.batchTimeout)
		if err != nil {
			if mqx2.IsTimeout(err) {
				break
			}
			return fmt.Errorf("获取消息失败: %w", err)
		}
		if err = c.handle(ctx, msg); err != nil {
			return err
		}
		processed = append(processed, msg)
	}

	if len(processed) == 0 {
		return nil
	}
	lastMessages := make(map[int32]*kafka.Message)
	for _, msg := range processed {
		lastMessages[msg.TopicPartition.Partition] = msg
	}
	for _, lastMsg := range lastMessages {
		if _, err := c.consumer.CommitMessage(lastMsg); err != nil {
			c.logger.Warn("提交消息失败",
				elog.FieldErr(err),
				elog.Any("partition", lastMsg.TopicPartition.Partition),
				elog.Any("offset", lastMsg.TopicPartition.Offset))
			return err
		}
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg *kafka.Message) error {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Warn("解析消息失败", elog.FieldErr(err), elog.Any("offset", msg.TopicPartition.Offset))
		return nil
	}
	err := c.enqueue(ctx, evt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrDuplicateTrackingID):
		// 上次入队成功但是没有提交位移
		return nil
	case errors.Is(err, errs.ErrInvalidParameter), errors.Is(err, errs.ErrUnknownTemplate):
		c.logger.Warn("丢弃非法的发送请求",
			elog.String("trackingId", evt.TrackingID),
			elog.String("mode", string(evt.Mode)),
			elog.FieldErr(err))
		return nil
	default:
		return fmt.Errorf("发送请求入队失败 trackingId=%s: %w", evt.TrackingID, err)
	}
}

func (c *Consumer) enqueue(ctx context.Context, evt Event) error {
	req, err := evt.EnqueueRequest()
	if err != nil {
		return err
	}
	switch evt.Mode {
	case ModeImmediate, "":
		_, err = c.enqueuer.EnqueueImmediate(ctx, req)
	case ModeScheduled:
		_, err = c.enqueuer.EnqueueScheduled(ctx, req, evt.ScheduleOption())
	case ModeBulk:
		_, err = c.enqueuer.EnqueueBulk(ctx, req)
	default:
		err = fmt.Errorf("%w: mode = %q", errs.ErrInvalidParameter, evt.Mode)
	}
	return err
}
