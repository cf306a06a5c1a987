package delivery

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/retry"
	"gitee.com/flycash/notification-dispatcher/internal/service/breaker"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

// Client 组合熔断器、渲染器和供应商完成一次投递。
// Client 从不丢弃任务，只把结果分类后交给工作池决定
type Client struct {
	breaker  *breaker.Breaker
	renderer Renderer
	provider provider.Provider
	cfg      Config
	logger   *elog.Component
}

func NewClient(b *breaker.Breaker, r Renderer, p provider.Provider, cfg Config) *Client {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultConfig().ProviderTimeout
	}
	if _, err := retry.NewRetry(cfg.Retry); err != nil {
		panic(err)
	}
	return &Client{
		breaker:  b,
		renderer: r,
		provider: p,
		cfg:      cfg,
		logger:   elog.DefaultLogger,
	}
}

func (c *Client) Breaker() *breaker.Breaker {
	return c.breaker
}

func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// SendJob 渲染一次，然后逐个收件人发送
func (c *Client) SendJob(ctx context.Context, job domain.Job) Result {
	rendered, err := c.renderer.Render(job.TemplateName, job.Payload)
	if err != nil {
		c.logger.Warn("模板渲染失败",
			elog.Any("jobId", job.ID),
			elog.String("template", job.TemplateName.String()),
			elog.FieldErr(err))
		results := make([]RecipientResult, 0, len(job.Recipients))
		for _, r := range job.Recipients {
			results = append(results, RecipientResult{Recipient: r, Err: err})
		}
		return Result{Outcome: classifyOutcome(results), Recipients: results, Err: err}
	}

	results := make([]RecipientResult, 0, len(job.Recipients))
	var merr error
	for _, recipient := range job.Recipients {
		res := c.sendOne(ctx, provider.Message{
			JobID:        job.ID,
			TrackingID:   job.TrackingID,
			TemplateName: job.TemplateName,
			Recipient:    recipient,
			Subject:      rendered.Subject,
			HTML:         rendered.HTML,
			Text:         rendered.Text,
		})
		if res.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", recipient, res.Err))
		}
		results = append(results, res)
	}
	result := Result{
		Outcome:    classifyOutcome(results),
		Recipients: results,
		Err:        merr,
	}
	if result.Outcome == OutcomeCircuitOpen {
		result.RetryAfter = c.breaker.RemainingCooldown()
	}
	return result
}

// sendOne 只有可重试的错误才会在本次投递内重试；熔断和不可重试错误立刻返回
func (c *Client) sendOne(ctx context.Context, msg provider.Message) RecipientResult {
	start := time.Now()
	res := RecipientResult{Recipient: msg.Recipient}
	strategy, _ := retry.NewRetry(c.cfg.Retry)
	for {
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			res.Attempts++
			ctx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
			defer cancel()
			return c.provider.Send(ctx, msg)
		})
		res.Err = err
		if err == nil || errs.Classify(err) != errs.ClassRetryable {
			break
		}
		interval, ok := strategy.Next()
		if !ok {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.Duration = time.Since(start)
			return res
		case <-timer.C:
		}
	}
	res.Duration = time.Since(start)
	return res
}

// classifyOutcome 有任何不可重试的收件人就整体进入死信；
// 否则只要有可重试的失败就整体重试；只剩熔断失败时不消耗尝试次数
func classifyOutcome(results []RecipientResult) Outcome {
	var retryable, circuitOpen bool
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		switch r.Class() {
		case errs.ClassTerminal:
			return OutcomeTerminal
		case errs.ClassCircuitOpen:
			circuitOpen = true
		default:
			retryable = true
		}
	}
	switch {
	case retryable:
		return OutcomeRetryable
	case circuitOpen:
		return OutcomeCircuitOpen
	default:
		return OutcomeSucceeded
	}
}
