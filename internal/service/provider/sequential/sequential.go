package sequential

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 按顺序尝试多个供应商。
// 可重试的错误换下一个供应商；不可重试的错误（收件人错误、永久拒绝）直接返回，换供应商也没有意义
type Provider struct {
	providers []provider.Provider
	logger    *elog.Component
}

func NewProvider(providers ...provider.Provider) *Provider {
	return &Provider{
		providers: providers,
		logger:    elog.DefaultLogger,
	}
}

func (p *Provider) Name() string {
	return strings.Join(slice.Map(p.providers, func(_ int, src provider.Provider) string {
		return src.Name()
	}), ",")
}

func (p *Provider) Send(ctx context.Context, msg provider.Message) error {
	if len(p.providers) == 0 {
		return errs.NewTransientError("sequential", "empty", errors.New("没有可用的供应商"))
	}
	var merr error
	for _, pr := range p.providers {
		err := pr.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if errs.Classify(err) == errs.ClassTerminal {
			return err
		}
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", pr.Name(), err))
		if ctx.Err() != nil {
			break
		}
		p.logger.Warn("供应商发送失败，尝试下一个",
			elog.String("provider", pr.Name()),
			elog.FieldErr(err))
	}
	return merr
}
