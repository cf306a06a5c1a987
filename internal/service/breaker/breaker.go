package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/gotomicro/ego/core/elog"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

type Config struct {
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		ResetTimeout:     time.Minute,
	}
}

// Snapshot 熔断器对外的只读视图
type Snapshot struct {
	Name                string    `json:"name"`
	State               string    `json:"state"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	OpenedAt            time.Time `json:"openedAt,omitempty"`
}

// Breaker 一个供应商一个实例，所有 worker 共享。
// 状态只在 mu 里修改；HalfOpen 期间只有拿到 trial 的那一次调用可以通过。
type Breaker struct {
	name string
	cfg  Config

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool

	now    func() time.Time
	logger *elog.Component
}

func NewBreaker(name string, cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: elog.DefaultLogger,
	}
}

func (b *Breaker) Name() string {
	return b.name
}

// Allow 申请一次调用。成功时返回的 done 必须且只能调用一次，用来汇报调用结果
func (b *Breaker) Allow() (done func(success bool), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return b.doneFunc(false), nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return nil, b.openErr()
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		b.logger.Info("熔断器进入半开状态", elog.String("breaker", b.name))
		return b.doneFunc(true), nil
	default:
		// 半开状态下 trial 已经被占用
		return nil, b.openErr()
	}
}

func (b *Breaker) openErr() error {
	return fmt.Errorf("%w: %s", errs.ErrCircuitOpen, b.name)
}

func (b *Breaker) doneFunc(trial bool) func(success bool) {
	var once sync.Once
	return func(success bool) {
		once.Do(func() {
			b.report(trial, success)
		})
	}
}

func (b *Breaker) report(trial, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
		if success {
			b.state = StateClosed
			b.consecutiveFailures = 0
			b.logger.Info("熔断器恢复", elog.String("breaker", b.name))
			return
		}
		b.open()
		return
	}

	// 熔断之前放行的调用在熔断之后才返回，结果不再影响状态
	if b.state != StateClosed {
		return
	}
	if success {
		b.consecutiveFailures = 0
		return
	}
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.cfg.FailureThreshold {
		b.open()
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.logger.Warn("熔断器打开",
		elog.String("breaker", b.name),
		elog.Int("consecutiveFailures", b.consecutiveFailures))
}

// Execute 通过熔断器执行 fn。
// 只有可重试的错误（超时、连接失败、临时错误）才计为失败；
// 永久拒绝说明供应商本身是可用的，按成功处理。fn panic 按失败汇报，panic 继续向上抛。
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	done, err := b.Allow()
	if err != nil {
		return err
	}
	success := false
	defer func() {
		done(success)
	}()
	err = fn(ctx)
	success = err == nil || errs.Classify(err) != errs.ClassRetryable
	return err
}

// State 打开且冷却期已过时报告为半开
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// RemainingCooldown 距离允许试探还有多久，未熔断时为 0
func (b *Breaker) RemainingCooldown() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return 0
	}
	remaining := b.cfg.ResetTimeout - b.now().Sub(b.openedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b *Breaker) Snapshot() Snapshot {
	state := b.State()
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:                b.name,
		State:               state.String(),
		ConsecutiveFailures: b.consecutiveFailures,
		OpenedAt:            b.openedAt,
	}
}
