package errs

import (
	"errors"
	"fmt"
	"strings"
)

// 定义统一的错误类型
var (
	ErrInvalidParameter = errors.New("参数错误")

	ErrJobNotFound         = errors.New("任务不存在")
	ErrJobDuplicate        = errors.New("任务主键冲突")
	ErrJobVersionMismatch  = errors.New("任务版本不匹配")
	ErrJobNotDeadLettered  = errors.New("任务不在死信队列中")
	ErrJobNotClaimed       = errors.New("任务未被领取")
	ErrJobClaimed          = errors.New("任务已被其他 worker 领取")
	ErrDuplicateTrackingID = errors.New("追踪ID重复")
	ErrLanePaused          = errors.New("队列已暂停")
	ErrUnknownLane         = errors.New("未知队列")

	ErrUnknownTemplate = errors.New("未知模板")
	ErrInvalidPayload  = errors.New("模板数据校验失败")
	ErrRenderFailed    = errors.New("模板渲染失败")

	ErrCircuitOpen       = errors.New("供应商熔断中")
	ErrProviderTransient = errors.New("供应商临时错误")
	ErrProviderPermanent = errors.New("供应商永久拒绝")
	ErrInvalidRecipient  = errors.New("收件人格式错误")
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Param  string `json:"param,omitempty"`
	Reason string `json:"reason"`
}

// InvalidPayloadError 模板数据不满足声明的结构，不可重试
type InvalidPayloadError struct {
	Template string
	Fields   []FieldError
}

func (e *InvalidPayloadError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s(%s)", f.Field, f.Reason))
	}
	return fmt.Sprintf("%s: template=%s, fields=[%s]", ErrInvalidPayload, e.Template, strings.Join(parts, ", "))
}

func (e *InvalidPayloadError) Unwrap() error {
	return ErrInvalidPayload
}

// ProviderError 供应商返回的错误，Permanent 决定是否可以重试
type ProviderError struct {
	Provider  string
	Code      string
	Permanent bool
	Err       error
}

func NewTransientError(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Err: err}
}

func NewPermanentError(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Permanent: true, Err: err}
}

func (e *ProviderError) Error() string {
	kind := ErrProviderTransient
	if e.Permanent {
		kind = ErrProviderPermanent
	}
	return fmt.Sprintf("%s: provider=%s, code=%s, err=%v", kind, e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Is(target error) bool {
	if e.Permanent {
		return target == ErrProviderPermanent
	}
	return target == ErrProviderTransient
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Class 错误分类，工作池只根据分类决定重试还是进入死信
type Class uint8

const (
	ClassRetryable Class = iota
	ClassTerminal
	ClassCircuitOpen
)

func (c Class) String() string {
	switch c {
	case ClassTerminal:
		return "terminal"
	case ClassCircuitOpen:
		return "circuit_open"
	default:
		return "retryable"
	}
}

// Classify 未识别的错误一律按可重试处理
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassRetryable
	case errors.Is(err, ErrCircuitOpen):
		return ClassCircuitOpen
	case errors.Is(err, ErrInvalidPayload),
		errors.Is(err, ErrUnknownTemplate),
		errors.Is(err, ErrInvalidRecipient),
		errors.Is(err, ErrProviderPermanent),
		errors.Is(err, ErrRenderFailed):
		return ClassTerminal
	}
	// 超时、连接错误、5xx 都属于可重试
	return ClassRetryable
}
