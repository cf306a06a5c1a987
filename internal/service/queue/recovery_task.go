package queue

import (
	"context"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/pkg/loopjob"
	"github.com/meoying/dlock-go"
)

// StaleClaimTask 只有抢到分布式锁的实例执行回收
type StaleClaimTask struct {
	dclient  dlock.Client
	q        *Queue
	interval time.Duration
}

func NewStaleClaimTask(dclient dlock.Client, q *Queue) *StaleClaimTask {
	return &StaleClaimTask{dclient: dclient, q: q, interval: time.Minute}
}

func (t *StaleClaimTask) Start(ctx context.Context) {
	const key = "notification_dispatcher_stale_claims"
	// 每轮业务会等一个 interval 再续约，锁的过期时间要留出余量
	lj := loopjob.NewInfiniteLoop(t.dclient, t.HandleStaleClaims, key,
		loopjob.WithLockTTL(2*t.interval), loopjob.WithRetryInterval(t.interval))
	lj.Run(ctx)
}

func (t *StaleClaimTask) HandleStaleClaims(ctx context.Context) error {
	_, err := t.q.RecoverStaleClaims(ctx)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(t.interval):
	}
	return nil
}
