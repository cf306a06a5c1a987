package loopjob

import (
	"context"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// InfiniteLoop 多实例部署时只让持有分布式锁的实例执行 biz。
// 拿锁失败或者续约失败都会等 retryInterval 之后重新抢锁
type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	logger  *elog.Component
	biz     func(ctx context.Context) error

	lockTTL       time.Duration
	retryInterval time.Duration
	opTimeout     time.Duration
}

type Option func(l *InfiniteLoop)

// WithLockTTL 锁的过期时间，每跑完一轮 biz 续约一次，所以 biz 单轮耗时要小于它
func WithLockTTL(ttl time.Duration) Option {
	return func(l *InfiniteLoop) {
		l.lockTTL = ttl
	}
}

func WithRetryInterval(interval time.Duration) Option {
	return func(l *InfiniteLoop) {
		l.retryInterval = interval
	}
}

// WithOpTimeout 加锁、续约、释放锁各自的超时时间
func WithOpTimeout(timeout time.Duration) Option {
	return func(l *InfiniteLoop) {
		l.opTimeout = timeout
	}
}

func NewInfiniteLoop(
	dclient dlock.Client,
	// ctx 被取消的时候退出全部循环
	biz func(ctx context.Context) error,
	key string,
	opts ...Option,
) *InfiniteLoop {
	l := &InfiniteLoop{
		dclient:       dclient,
		key:           key,
		logger:        elog.DefaultLogger.With(elog.String("key", key)),
		biz:           biz,
		lockTTL:       time.Minute,
		retryInterval: time.Minute,
		opTimeout:     3 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run 阻塞直到 ctx 被取消
func (l *InfiniteLoop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := l.runOnce(ctx); err != nil {
			l.logger.Error("任务循环中断，稍后重新抢锁", elog.FieldErr(err))
		}
		if !l.wait(ctx) {
			break
		}
	}
	l.logger.Info("任务被取消，退出任务循环")
}

// runOnce 抢锁并在持锁期间循环执行 biz，返回前释放锁
func (l *InfiniteLoop) runOnce(ctx context.Context) error {
	lock, err := l.dclient.NewLock(ctx, l.key, l.lockTTL)
	if err != nil {
		return fmt.Errorf("初始化分布式锁失败 %w", err)
	}
	lockCtx, cancel := context.WithTimeout(ctx, l.opTimeout)
	err = lock.Lock(lockCtx)
	cancel()
	if err != nil {
		// 锁被其他实例持有也走这里
		return fmt.Errorf("没有抢到分布式锁 %w", err)
	}

	err = l.bizLoop(ctx, lock)

	// ctx 可能已经被取消，释放锁不能再用它
	unCtx, cancel := context.WithTimeout(context.Background(), l.opTimeout)
	//nolint:contextcheck // 原始 ctx 可能已被取消
	if unErr := lock.Unlock(unCtx); unErr != nil {
		l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
	}
	cancel()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		if err := l.biz(ctx); err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, l.opTimeout)
		err := lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}
	}
}

// wait 返回 false 表示 ctx 已经被取消
func (l *InfiniteLoop) wait(ctx context.Context) bool {
	timer := time.NewTimer(l.retryInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
