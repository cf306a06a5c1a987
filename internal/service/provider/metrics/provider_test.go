package metrics

import (
	"context"
	"errors"
	"testing"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	providermocks "gitee.com/flycash/notification-dispatcher/internal/service/provider/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestProvider_Send(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inner := providermocks.NewMockProvider(ctrl)
	inner.EXPECT().Name().Return("smtp").AnyTimes()
	gomock.InOrder(
		inner.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
		inner.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errs.NewPermanentError("smtp", "550", errors.New("rejected"))),
	)

	reg := prometheus.NewRegistry()
	p := NewProvider(inner, reg)
	msg := provider.Message{TemplateName: domain.TemplateRentReminder, Recipient: "a@example.com"}

	assert.NoError(t, p.Send(context.Background(), msg))
	assert.ErrorIs(t, p.Send(context.Background(), msg), errs.ErrProviderPermanent)

	assert.Equal(t, float64(2), testutil.ToFloat64(p.sendCounter.WithLabelValues("rent_reminder")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.sendStatusCounter.WithLabelValues("rent_reminder", "succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.sendStatusCounter.WithLabelValues("rent_reminder", "terminal")))
	assert.Equal(t, "smtp", p.Name())
}
