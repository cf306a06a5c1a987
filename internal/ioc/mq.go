package ioc

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/event/deadletter"
	"gitee.com/flycash/notification-dispatcher/internal/event/sendrequest"
	"gitee.com/flycash/notification-dispatcher/internal/service/admin"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
	"github.com/gotomicro/ego/core/econf"
)

// InitMQ 进程内的消息队列，承载死信事件
func InitMQ() mq.MQ {
	q := memory.NewMQ()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := q.CreateTopic(ctx, deadletter.Topic, 1); err != nil {
		panic(err)
	}
	return q
}

// InitDeadLetterProducer 创建生产者并注册到队列上
func InitDeadLetterProducer(q mq.MQ, jobs *queue.Queue) *deadletter.Producer {
	p, err := deadletter.NewProducer(q)
	if err != nil {
		panic(err)
	}
	jobs.AddDeadLetterListener(p)
	return p
}

func InitDeadLetterConsumer(q mq.MQ, _ *deadletter.Producer) *deadletter.Consumer {
	c, err := deadletter.NewConsumer(deadletter.LogHandler(), q, "dispatcher")
	if err != nil {
		panic(err)
	}
	return c
}

func InitSendRequestConsumer(svc *admin.Service) *sendrequest.Consumer {
	type Config struct {
		BootstrapServers string        `yaml:"bootstrapServers"`
		GroupID          string        `yaml:"groupId"`
		BatchSize        int           `yaml:"batchSize"`
		BatchTimeout     time.Duration `yaml:"batchTimeout"`
	}
	cfg := Config{
		GroupID:      "notification-dispatcher",
		BatchSize:    20,
		BatchTimeout: 3 * time.Second,
	}
	if err := econf.UnmarshalKey("kafka", &cfg); err != nil {
		panic(err)
	}
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.BootstrapServers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		panic(fmt.Sprintf("创建消费者失败: %v", err))
	}
	c, err := sendrequest.NewConsumer(svc, consumer, cfg.BatchSize, cfg.BatchTimeout)
	if err != nil {
		panic(err)
	}
	return c
}
