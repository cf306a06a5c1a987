package lanesync

import (
	"context"
	"strconv"
	"strings"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"github.com/gotomicro/ego/core/elog"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const DefaultPrefix = "/notification-dispatcher/lanes/"

// Client *eetcd.Component 满足这个接口
type Client interface {
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan
}

// Pauser *queue.Queue 满足这个接口
type Pauser interface {
	Pause(l domain.Lane) error
	Resume(l domain.Lane) error
}

// Sync 通过 etcd 在多个实例之间同步通道的暂停状态。
// key 的格式是 <prefix><lane>/paused，值为 true 或 false
type Sync struct {
	client Client
	pauser Pauser
	prefix string
	logger *elog.Component
}

func NewSync(client Client, pauser Pauser, prefix string) *Sync {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Sync{
		client: client,
		pauser: pauser,
		prefix: prefix,
		logger: elog.DefaultLogger,
	}
}

func (s *Sync) key(lane domain.Lane) string {
	return s.prefix + lane.String() + "/paused"
}

// Publish 写入 etcd，本实例也会通过 Watch 收到这次变更
func (s *Sync) Publish(ctx context.Context, lane domain.Lane, paused bool) error {
	_, err := s.client.Put(ctx, s.key(lane), strconv.FormatBool(paused))
	return err
}

// Load 启动时读取已有的暂停状态
func (s *Sync) Load(ctx context.Context) error {
	resp, err := s.client.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		return err
	}
	for _, kv := range resp.Kvs {
		s.apply(string(kv.Key), string(kv.Value))
	}
	return nil
}

// Start 阻塞直到 ctx 被取消
func (s *Sync) Start(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.Error("加载通道暂停状态失败", elog.FieldErr(err))
	}
	watchChan := s.client.Watch(ctx, s.prefix, clientv3.WithPrefix())
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-watchChan:
			if !ok {
				return
			}
			if err := resp.Err(); err != nil {
				s.logger.Error("监听通道暂停状态失败", elog.FieldErr(err))
				continue
			}
			for _, event := range resp.Events {
				// 删除 key 视为恢复
				if event.Type == clientv3.EventTypeDelete {
					s.apply(string(event.Kv.Key), "false")
					continue
				}
				s.apply(string(event.Kv.Key), string(event.Kv.Value))
			}
		}
	}
}

func (s *Sync) apply(key, value string) {
	name, ok := strings.CutPrefix(key, s.prefix)
	if !ok {
		return
	}
	name, ok = strings.CutSuffix(name, "/paused")
	if !ok {
		return
	}
	lane, err := domain.ParseLane(name)
	if err != nil {
		s.logger.Warn("忽略未知通道", elog.String("key", key))
		return
	}
	paused, err := strconv.ParseBool(value)
	if err != nil {
		s.logger.Warn("忽略非法的暂停状态", elog.String("key", key), elog.String("value", value))
		return
	}
	if paused {
		err = s.pauser.Pause(lane)
	} else {
		err = s.pauser.Resume(lane)
	}
	if err != nil {
		s.logger.Error("同步通道暂停状态失败", elog.String("lane", lane.String()), elog.FieldErr(err))
		return
	}
	s.logger.Info("同步通道暂停状态", elog.String("lane", lane.String()), elog.Any("paused", paused))
}
