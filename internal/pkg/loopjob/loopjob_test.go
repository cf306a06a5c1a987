package loopjob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meoying/dlock-go"
	"github.com/stretchr/testify/assert"
)

type failingClient struct {
	calls atomic.Int32
}

func (c *failingClient) NewLock(context.Context, string, time.Duration) (dlock.Lock, error) {
	c.calls.Add(1)
	return nil, errors.New("mock lock error")
}

func TestNewInfiniteLoop_Options(t *testing.T) {
	t.Parallel()
	l := NewInfiniteLoop(&failingClient{}, nil, "k")
	assert.Equal(t, time.Minute, l.lockTTL)
	assert.Equal(t, time.Minute, l.retryInterval)

	l = NewInfiniteLoop(&failingClient{}, nil, "k",
		WithLockTTL(10*time.Second), WithRetryInterval(time.Second), WithOpTimeout(time.Millisecond))
	assert.Equal(t, 10*time.Second, l.lockTTL)
	assert.Equal(t, time.Second, l.retryInterval)
	assert.Equal(t, time.Millisecond, l.opTimeout)
}

// 抢不到锁时按间隔重试，ctx 取消后退出
func TestInfiniteLoop_RunRetriesUntilCancelled(t *testing.T) {
	t.Parallel()
	client := &failingClient{}
	l := NewInfiniteLoop(client, func(context.Context) error {
		t.Error("没有拿到锁不应该执行业务")
		return nil
	}, "k", WithRetryInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ctx 取消之后没有退出")
	}
	assert.GreaterOrEqual(t, client.calls.Load(), int32(2))
}
