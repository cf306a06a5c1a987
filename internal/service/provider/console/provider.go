package console

import (
	"context"

	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 只把消息输出到日志，本地开发使用
type Provider struct {
	logger *elog.Component
}

func NewProvider() *Provider {
	return &Provider{
		logger: elog.DefaultLogger,
	}
}

func (p *Provider) Name() string {
	return "console"
}

func (p *Provider) Send(_ context.Context, msg provider.Message) error {
	p.logger.Info("发送通知",
		elog.Any("jobId", msg.JobID),
		elog.String("trackingId", msg.TrackingID),
		elog.String("recipient", msg.Recipient),
		elog.String("subject", msg.Subject),
		elog.Int("bodySize", len(msg.HTML)))
	return nil
}
