package delivery

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/retry"
	"gitee.com/flycash/notification-dispatcher/internal/service/renderer"
)

// Outcome 一次投递的最终结论，工作池只根据它决定后续动作
type Outcome uint8

const (
	OutcomeSucceeded Outcome = iota
	// OutcomeRetryable 消耗一次尝试后重新排队
	OutcomeRetryable
	// OutcomeTerminal 直接进入死信
	OutcomeTerminal
	// OutcomeCircuitOpen 供应商熔断，不消耗尝试次数
	OutcomeCircuitOpen
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeTerminal:
		return "terminal"
	case OutcomeCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// RecipientResult 单个收件人的投递结果
type RecipientResult struct {
	Recipient string
	// Attempts 本次投递内对供应商的调用次数
	Attempts int
	Duration time.Duration
	Err      error
}

func (r RecipientResult) Succeeded() bool {
	return r.Err == nil
}

func (r RecipientResult) Class() errs.Class {
	return errs.Classify(r.Err)
}

// Result 一个任务的投递结果
type Result struct {
	Outcome    Outcome
	Recipients []RecipientResult
	// Err 汇总所有失败收件人的错误
	Err error
	// RetryAfter 熔断时距离允许试探的时间
	RetryAfter time.Duration
}

type Renderer interface {
	Render(name domain.TemplateName, payload domain.Payload) (renderer.Rendered, error)
}

type Config struct {
	// ProviderTimeout 单次供应商调用的超时时间
	ProviderTimeout time.Duration `yaml:"providerTimeout"`
	// Retry 单次投递内的重试，用来吸收偶发的网络抖动。跨任务的重试由队列负责
	Retry retry.Config `yaml:"retry"`
}

func DefaultConfig() Config {
	return Config{
		ProviderTimeout: 10 * time.Second,
		Retry: retry.Config{
			Type: "exponential",
			ExponentialBackoff: &retry.ExponentialBackoffConfig{
				InitialInterval: 100,
				MaxInterval:     1000,
				MaxRetries:      2,
			},
		},
	}
}
