package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/idempotent"
	idempotentmocks "gitee.com/flycash/notification-dispatcher/internal/pkg/idempotent/mocks"
	repomocks "gitee.com/flycash/notification-dispatcher/internal/repository/mocks"
	"gitee.com/flycash/notification-dispatcher/internal/service/breaker"
	"gitee.com/flycash/notification-dispatcher/internal/service/metrics"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type seqIDGenerator struct {
	id uint64
}

func (g *seqIDGenerator) NextID() (uint64, error) {
	g.id++
	return g.id, nil
}

type fakeWorkers map[string]int

func (f fakeWorkers) WorkerCounts() map[string]int {
	return f
}

type fakeTemplates struct {
	cleared int
}

func (f *fakeTemplates) ClearCache() {
	f.cleared++
}

type fakePublisher struct {
	calls []string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, lane domain.Lane, paused bool) error {
	if paused {
		f.calls = append(f.calls, "pause:"+lane.String())
	} else {
		f.calls = append(f.calls, "resume:"+lane.String())
	}
	return f.err
}

type fixture struct {
	svc       *Service
	q         *queue.Queue
	breaker   *breaker.Breaker
	recorder  *metrics.Recorder
	templates *fakeTemplates
}

func newQueue(t *testing.T, failure queue.FailureRateSource, createErr error) *queue.Queue {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repomocks.NewMockJobRepository(ctrl)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job domain.Job) (domain.Job, error) {
			if createErr != nil {
				return domain.Job{}, createErr
			}
			job.Version = 1
			return job, nil
		}).AnyTimes()
	repo.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cfg := queue.DefaultConfig()
	cfg.BulkBatchSize = 2
	return queue.NewQueue(repo, &seqIDGenerator{}, failure, cfg)
}

func newFixture(t *testing.T, idem idempotent.Service, createErr error) fixture {
	t.Helper()
	recorder := metrics.NewRecorder(metrics.DefaultConfig())
	q := newQueue(t, recorder, createErr)
	b := breaker.NewBreaker("console", breaker.Config{FailureThreshold: 1, ResetTimeout: time.Minute})
	templates := &fakeTemplates{}
	svc := NewService(q, idem, b, fakeWorkers{"IMMEDIATE": 2, "BULK": 1}, recorder, templates)
	return fixture{svc: svc, q: q, breaker: b, recorder: recorder, templates: templates}
}

func receipt() domain.PaymentReceipt {
	return domain.PaymentReceipt{
		TenantName:  "Bob",
		PaymentID:   "pay_1",
		AmountCents: 100,
		Currency:    "USD",
		PaidAt:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Method:      "card",
	}
}

func TestService_EnqueueImmediate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		req     EnqueueRequest
		prepare func(f fixture)
		wantErr error
		assert  func(t *testing.T, f fixture, job domain.Job)
	}{
		{
			name: "入队成功",
			req: EnqueueRequest{
				Recipients: []string{"a@example.com"},
				Payload:    receipt(),
				TrackingID: "track-1",
				Metadata:   map[string]string{"orgId": "7"},
			},
			assert: func(t *testing.T, f fixture, job domain.Job) {
				assert.NotZero(t, job.ID)
				assert.Equal(t, "track-1", job.TrackingID)
				assert.Equal(t, domain.LaneImmediate, job.Lane)
				assert.Equal(t, domain.TemplatePaymentReceipt, job.TemplateName)
				assert.Equal(t, 3, job.MaxAttempts)
				assert.Equal(t, 1, f.q.Health().Backlog)
			},
		},
		{
			name: "自动生成追踪ID",
			req: EnqueueRequest{
				Recipients: []string{"a@example.com"},
				Payload:    receipt(),
			},
			assert: func(t *testing.T, f fixture, job domain.Job) {
				assert.Len(t, job.TrackingID, 36)
			},
		},
		{
			name: "追踪ID重复",
			req: EnqueueRequest{
				Recipients: []string{"a@example.com"},
				Payload:    receipt(),
				TrackingID: "track-dup",
			},
			prepare: func(f fixture) {
				_, err := f.svc.EnqueueImmediate(context.Background(), EnqueueRequest{
					Recipients: []string{"b@example.com"},
					Payload:    receipt(),
					TrackingID: "track-dup",
				})
				require.NoError(t, err)
			},
			wantErr: errs.ErrDuplicateTrackingID,
			assert: func(t *testing.T, f fixture, _ domain.Job) {
				assert.Equal(t, 1, f.q.Health().Backlog)
			},
		},
		{
			name:    "收件人为空",
			req:     EnqueueRequest{Payload: receipt()},
			wantErr: errs.ErrInvalidParameter,
		},
		{
			name:    "模板数据为空",
			req:     EnqueueRequest{Recipients: []string{"a@example.com"}},
			wantErr: errs.ErrInvalidParameter,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
			if tc.prepare != nil {
				tc.prepare(f)
			}
			job, err := f.svc.EnqueueImmediate(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)
			if tc.assert != nil {
				tc.assert(t, f, job)
			}
		})
	}
}

func TestService_EnqueueReleasesKeyOnFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	idem := idempotentmocks.NewMockService(ctrl)
	idem.EXPECT().Reserve(gomock.Any(), "track-1").Return(true, nil)
	idem.EXPECT().Release(gomock.Any(), "track-1").Return(nil)

	f := newFixture(t, idem, errors.New("mock db error"))
	_, err := f.svc.EnqueueImmediate(context.Background(), EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
		TrackingID: "track-1",
	})
	assert.Error(t, err)
}

func TestService_EnqueueIdempotencyError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	idem := idempotentmocks.NewMockService(ctrl)
	idem.EXPECT().Reserve(gomock.Any(), "track-1").Return(false, errors.New("mock redis error"))

	f := newFixture(t, idem, nil)
	_, err := f.svc.EnqueueImmediate(context.Background(), EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
		TrackingID: "track-1",
	})
	assert.Error(t, err)
	assert.Equal(t, 0, f.q.Health().Backlog)
}

func TestService_EnqueueScheduled(t *testing.T) {
	t.Parallel()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	req := EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
		TrackingID: "track-s",
	}

	_, err := f.svc.EnqueueScheduled(context.Background(), req, domain.ScheduleOption{})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)

	// 参数错误不占用追踪ID
	job, err := f.svc.EnqueueScheduled(context.Background(), req, domain.ScheduleOption{Delay: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, domain.LaneScheduled, job.Lane)
	assert.Equal(t, 5, job.MaxAttempts)
	assert.WithinDuration(t, time.Now().Add(time.Hour), job.ScheduledFor, time.Minute)

	job, err = f.svc.EnqueueScheduled(context.Background(), EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
		TrackingID: "track-cron",
	}, domain.ScheduleOption{Cron: "0 9 1 * *"})
	require.NoError(t, err)
	assert.True(t, job.IsRecurring())
}

func TestService_EnqueueBulk(t *testing.T) {
	t.Parallel()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	req := EnqueueRequest{
		Recipients: []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"},
		Payload:    receipt(),
		TrackingID: "campaign-1",
	}

	jobs, err := f.svc.EnqueueBulk(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for i, job := range jobs {
		assert.Equal(t, domain.LaneBulk, job.Lane)
		assert.Equal(t, "campaign-1", job.TrackingID)
		assert.Equal(t, 2, job.MaxAttempts)
		if i > 0 {
			assert.Equal(t, time.Second, job.ScheduledFor.Sub(jobs[i-1].ScheduledFor))
		}
	}
	assert.Equal(t, []string{"e@example.com"}, jobs[2].Recipients)

	_, err = f.svc.EnqueueBulk(context.Background(), req)
	assert.ErrorIs(t, err, errs.ErrDuplicateTrackingID)

	// 收件人变多之后只有新增的批次不重复，依然整体拒绝，并且释放新占用的 key
	req.Recipients = append(req.Recipients, "f@example.com", "g@example.com")
	_, err = f.svc.EnqueueBulk(context.Background(), req)
	assert.ErrorIs(t, err, errs.ErrDuplicateTrackingID)
	ok, err := idempotentReserved(f, "campaign-1#3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func idempotentReserved(f fixture, key string) (bool, error) {
	return f.svc.idem.Reserve(context.Background(), key)
}

func TestService_RetryDeadLetter(t *testing.T) {
	t.Parallel()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	ctx := context.Background()

	job, err := f.svc.EnqueueImmediate(ctx, EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
		TrackingID: "track-dead",
	})
	require.NoError(t, err)
	claimed, err := f.q.DequeueNext(ctx, domain.LaneImmediate)
	require.NoError(t, err)
	_, err = f.q.MoveToDeadLetter(ctx, claimed, errs.NewPermanentError("mock", "550", errors.New("rejected")))
	require.NoError(t, err)
	require.Len(t, f.svc.DeadLetters(), 1)

	retried, err := f.svc.RetryDeadLetter(ctx, job.ID)
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, retried.ID)
	assert.Equal(t, "track-dead", retried.TrackingID)
	assert.Equal(t, 0, retried.Attempt)
	assert.Equal(t, domain.LaneImmediate, retried.Lane)
	assert.Equal(t, "1", retried.Metadata[queue.MetadataRetryOf])
	// 原任务保持死信状态
	assert.Len(t, f.svc.DeadLetters(), 1)
}

func TestService_PauseResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	pub := &fakePublisher{err: errors.New("mock etcd error")}
	f.svc.WithPublisher(pub)

	require.NoError(t, f.svc.PauseLane(ctx, domain.LaneBulk))
	assert.True(t, f.q.IsPaused(domain.LaneBulk))
	assert.Equal(t, domain.HealthStatusUnhealthy, f.svc.Health().Status)

	require.NoError(t, f.svc.ResumeLane(ctx, domain.LaneBulk))
	assert.False(t, f.q.IsPaused(domain.LaneBulk))
	assert.Equal(t, []string{"pause:BULK", "resume:BULK"}, pub.calls)

	assert.ErrorIs(t, f.svc.PauseLane(ctx, domain.Lane("EMAIL")), errs.ErrUnknownLane)
	assert.Len(t, pub.calls, 2)
}

func TestService_Health(t *testing.T) {
	t.Parallel()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	_, err := f.svc.EnqueueImmediate(context.Background(), EnqueueRequest{
		Recipients: []string{"a@example.com"},
		Payload:    receipt(),
	})
	require.NoError(t, err)

	h := f.svc.Health()
	assert.Equal(t, domain.HealthStatusHealthy, h.Status)
	assert.Equal(t, "closed", h.ProviderCircuit.State)
	assert.Equal(t, map[string]int{
		"IMMEDIATE":   1,
		"RETRY":       0,
		"SCHEDULED":   0,
		"BULK":        0,
		"DEAD_LETTER": 0,
	}, h.LaneDepths)
	assert.Equal(t, map[string]int{"IMMEDIATE": 2, "BULK": 1}, h.WorkerCounts)
	assert.Equal(t, 1, h.Backlog)

	// 熔断之后降级
	err = f.breaker.Execute(context.Background(), func(context.Context) error {
		return errs.NewTransientError("console", "503", errors.New("unavailable"))
	})
	require.Error(t, err)
	h = f.svc.Health()
	assert.Equal(t, domain.HealthStatusDegraded, h.Status)
	assert.Equal(t, "open", h.ProviderCircuit.State)
	assert.Equal(t, 1, h.ProviderCircuit.ConsecutiveFailures)
}

func TestService_StatsAndEvents(t *testing.T) {
	t.Parallel()
	f := newFixture(t, idempotent.NewLocalService(time.Hour), nil)
	now := time.Now()
	for i := 0; i < 3; i++ {
		f.recorder.Record(domain.DeliveryAttemptRecord{
			JobID:        uint64(i + 1),
			TemplateName: domain.TemplatePaymentReceipt,
			Recipient:    "a@example.com",
			Status:       domain.AttemptStatusSent,
			Timestamp:    now,
		})
	}
	f.recorder.Record(domain.DeliveryAttemptRecord{
		JobID:        4,
		TemplateName: domain.TemplateRentReminder,
		Recipient:    "a@example.com",
		Status:       domain.AttemptStatusFailed,
		Timestamp:    now,
	})

	stats := f.svc.SystemStats("")
	assert.Equal(t, 75.0, stats.SuccessRate)
	stats = f.svc.SystemStats(domain.TemplatePaymentReceipt)
	assert.Equal(t, 3, stats.TotalSent)
	assert.Equal(t, 0, stats.TotalFailed)

	alerts := f.svc.Alerts()
	require.NotEmpty(t, alerts)
	assert.Equal(t, domain.AlertLevelCritical, alerts[0].Level)

	require.NoError(t, f.svc.RecordEvent(metrics.ProviderEvent{
		JobID:     1,
		Recipient: "a@example.com",
		Status:    domain.AttemptStatusDelivered,
	}))
	assert.ErrorIs(t, f.svc.RecordEvent(metrics.ProviderEvent{
		JobID:     99,
		Recipient: "a@example.com",
		Status:    domain.AttemptStatusDelivered,
	}), errs.ErrInvalidParameter)

	f.svc.ClearTemplateCache()
	assert.Equal(t, 1, f.templates.cleared)
}
