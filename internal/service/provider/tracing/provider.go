package tracing

import (
	"context"
	"strconv"

	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ provider.Provider = (*Provider)(nil)

// Provider 为供应商实现添加链路追踪的装饰器
type Provider struct {
	provider provider.Provider
	tracer   trace.Tracer
}

// NewProvider 创建一个新的带有链路追踪的供应商
func NewProvider(p provider.Provider) *Provider {
	return &Provider{
		provider: p,
		tracer:   otel.Tracer("notification-dispatcher/provider"),
	}
}

func (p *Provider) Name() string {
	return p.provider.Name()
}

func (p *Provider) Send(ctx context.Context, msg provider.Message) error {
	ctx, span := p.tracer.Start(ctx, "Provider.Send",
		trace.WithAttributes(
			attribute.String("provider", p.provider.Name()),
			attribute.String("job.id", strconv.FormatUint(msg.JobID, 10)),
			attribute.String("job.trackingId", msg.TrackingID),
			attribute.String("job.template", msg.TemplateName.String()),
		))
	defer span.End()

	err := p.provider.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
