package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RecorderTestSuite struct {
	suite.Suite
	now time.Time
	r   *Recorder
}

func TestRecorderTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(RecorderTestSuite))
}

func (s *RecorderTestSuite) SetupTest() {
	s.now = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	s.r = NewRecorder(Config{Capacity: 100})
	s.r.now = func() time.Time { return s.now }
}

func (s *RecorderTestSuite) record(tmpl domain.TemplateName, status domain.AttemptStatus, age time.Duration, ms int64) {
	s.r.Record(domain.DeliveryAttemptRecord{
		JobID:            1,
		TemplateName:     tmpl,
		Recipient:        "a@example.com",
		Status:           status,
		Timestamp:        s.now.Add(-age),
		ProcessingTimeMs: ms,
	})
}

func (s *RecorderTestSuite) TestSuccessRate() {
	t := s.T()
	for i := 0; i < 3; i++ {
		s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 100)
	}
	s.record(domain.TemplateRentReminder, domain.AttemptStatusFailed, time.Minute, 300)

	stats := s.r.SystemStats(StatsFilter{})
	assert.Equal(t, 3, stats.TotalSent)
	assert.Equal(t, 1, stats.TotalFailed)
	assert.Equal(t, 75.0, stats.SuccessRate)
	assert.Equal(t, 150.0, stats.AvgProcessingTimeMs)
	assert.Equal(t, WindowCounts{Sent: 3, Failed: 1}, stats.LastHour)
	assert.Equal(t, 25.0, s.r.FailureRate(time.Hour))
}

func (s *RecorderTestSuite) TestEmpty() {
	t := s.T()
	stats := s.r.SystemStats(StatsFilter{})
	assert.Equal(t, 100.0, stats.SuccessRate)
	assert.Empty(t, stats.Templates)
	assert.Empty(t, s.r.Alerts())
	assert.Equal(t, 0.0, s.r.FailureRate(time.Hour))
}

func (s *RecorderTestSuite) TestWindows() {
	t := s.T()
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 10*time.Minute, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 3*time.Hour, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusFailed, 2*24*time.Hour, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 8*24*time.Hour, 0)

	stats := s.r.SystemStats(StatsFilter{})
	assert.Equal(t, WindowCounts{Sent: 1}, stats.LastHour)
	assert.Equal(t, WindowCounts{Sent: 2}, stats.Last24Hours)
	assert.Equal(t, WindowCounts{Sent: 2, Failed: 1}, stats.Last7Days)
	assert.Equal(t, 3, stats.TotalSent)

	stats = s.r.SystemStats(StatsFilter{Window: 24 * time.Hour})
	assert.Equal(t, 2, stats.TotalSent)
	assert.Equal(t, 0, stats.TotalFailed)
}

func (s *RecorderTestSuite) TestTemplateRates() {
	t := s.T()
	for i := 0; i < 10; i++ {
		s.record(domain.TemplateWelcomeTenant, domain.AttemptStatusSent, time.Minute, 0)
	}
	for i := 0; i < 8; i++ {
		s.record(domain.TemplateWelcomeTenant, domain.AttemptStatusDelivered, time.Minute, 0)
	}
	for i := 0; i < 4; i++ {
		s.record(domain.TemplateWelcomeTenant, domain.AttemptStatusOpened, time.Minute, 0)
	}
	s.record(domain.TemplateWelcomeTenant, domain.AttemptStatusClicked, time.Minute, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 0)

	stats := s.r.SystemStats(StatsFilter{Template: domain.TemplateWelcomeTenant})
	require.Len(t, stats.Templates, 1)
	ts := stats.Templates[domain.TemplateWelcomeTenant]
	assert.Equal(t, 10, ts.Sent)
	assert.Equal(t, 80.0, ts.DeliveryRate)
	assert.Equal(t, 50.0, ts.OpenRate)
	assert.Equal(t, 25.0, ts.ClickRate)
	assert.Equal(t, 10, stats.TotalSent)
}

func (s *RecorderTestSuite) TestAlerts() {
	testCases := []struct {
		name   string
		before func()
		want   []domain.Alert
	}{
		{
			name: "成功率低于90为严重告警",
			before: func() {
				for i := 0; i < 8; i++ {
					s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 10)
				}
				for i := 0; i < 2; i++ {
					s.record(domain.TemplateRentReminder, domain.AttemptStatusFailed, time.Minute, 10)
				}
			},
			want: []domain.Alert{{Level: domain.AlertLevelCritical, Metric: "successRate", Value: 80, Threshold: 90}},
		},
		{
			name: "成功率低于95为警告",
			before: func() {
				for i := 0; i < 18; i++ {
					s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 10)
					s.record(domain.TemplateRentReminder, domain.AttemptStatusDelivered, time.Minute, 0)
				}
				s.record(domain.TemplateRentReminder, domain.AttemptStatusFailed, time.Minute, 10)
			},
			want: []domain.Alert{{Level: domain.AlertLevelWarning, Metric: "successRate", Value: 18.0 / 19 * 100, Threshold: 95}},
		},
		{
			name: "处理耗时过长",
			before: func() {
				s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 5000)
				s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, time.Minute, 2000)
			},
			want: []domain.Alert{{Level: domain.AlertLevelWarning, Metric: "avgProcessingTimeMs", Value: 3500, Threshold: 3000}},
		},
		{
			name: "模板送达率过低，多条告警共存",
			before: func() {
				for i := 0; i < 11; i++ {
					s.record(domain.TemplateLeaseRenewal, domain.AttemptStatusSent, time.Minute, 4000)
				}
				for i := 0; i < 5; i++ {
					s.record(domain.TemplateLeaseRenewal, domain.AttemptStatusDelivered, time.Minute, 0)
				}
			},
			want: []domain.Alert{
				{Level: domain.AlertLevelWarning, Metric: "avgProcessingTimeMs", Value: 4000, Threshold: 3000},
				{Level: domain.AlertLevelWarning, Metric: "deliveryRate.lease_renewal", Value: 5.0 / 11 * 100, Threshold: 90},
			},
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			tc.before()
			alerts := s.r.Alerts()
			require.Len(s.T(), alerts, len(tc.want))
			for i, want := range tc.want {
				assert.Equal(s.T(), want.Level, alerts[i].Level)
				assert.Equal(s.T(), want.Metric, alerts[i].Metric)
				assert.InDelta(s.T(), want.Value, alerts[i].Value, 0.001)
				assert.Equal(s.T(), want.Threshold, alerts[i].Threshold)
				assert.NotEmpty(s.T(), alerts[i].Message)
			}
		})
	}
}

func (s *RecorderTestSuite) TestRingBufferEvictsOldest() {
	t := s.T()
	r := NewRecorder(Config{Capacity: 3})
	for i := 1; i <= 5; i++ {
		r.Record(domain.DeliveryAttemptRecord{JobID: uint64(i), Status: domain.AttemptStatusSent})
	}
	records := r.Records()
	require.Len(t, records, 3)
	assert.Equal(t, []uint64{3, 4, 5}, []uint64{records[0].JobID, records[1].JobID, records[2].JobID})
	assert.Equal(t, uint64(5), records[2].ID)
}

func (s *RecorderTestSuite) TestSweep() {
	t := s.T()
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 8*24*time.Hour, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 6*24*time.Hour, 0)
	s.record(domain.TemplateRentReminder, domain.AttemptStatusFailed, time.Hour, 0)

	assert.Equal(t, 1, s.r.Sweep())
	assert.Equal(t, 2, s.r.Len())
	assert.Equal(t, 0, s.r.Sweep())

	// 清理之后继续写入，顺序保持不变
	s.record(domain.TemplateRentReminder, domain.AttemptStatusSent, 0, 0)
	records := s.r.Records()
	require.Len(t, records, 3)
	assert.Equal(t, domain.AttemptStatusFailed, records[1].Status)
	assert.Equal(t, s.now, records[2].Timestamp)
}

func (s *RecorderTestSuite) TestRecordProviderEvent() {
	t := s.T()
	s.r.Record(domain.DeliveryAttemptRecord{
		JobID:        7,
		TemplateName: domain.TemplatePaymentReceipt,
		Recipient:    "a@example.com",
		Status:       domain.AttemptStatusSent,
		Metadata:     map[string]string{"orgId": "9"},
	})

	testCases := []struct {
		name    string
		ev      ProviderEvent
		wantErr error
	}{
		{name: "继承发送记录的模板", ev: ProviderEvent{JobID: 7, Recipient: "a@example.com", Status: domain.AttemptStatusDelivered}},
		{name: "直接指定模板", ev: ProviderEvent{Recipient: "b@example.com", TemplateName: domain.TemplateRentReminder, Status: domain.AttemptStatusBounced}},
		{name: "不支持的状态", ev: ProviderEvent{JobID: 7, Recipient: "a@example.com", Status: domain.AttemptStatusSent}, wantErr: errs.ErrInvalidParameter},
		{name: "找不到发送记录", ev: ProviderEvent{JobID: 8, Recipient: "a@example.com", Status: domain.AttemptStatusOpened}, wantErr: errs.ErrInvalidParameter},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := s.r.RecordProviderEvent(tc.ev)
			assert.ErrorIs(s.T(), err, tc.wantErr)
		})
	}

	records := s.r.Records()
	require.Len(t, records, 3)
	assert.Equal(t, domain.TemplatePaymentReceipt, records[1].TemplateName)
	assert.Equal(t, "9", records[1].Metadata["orgId"])
	assert.Equal(t, 100.0, s.r.SystemStats(StatsFilter{}).Templates[domain.TemplatePaymentReceipt].DeliveryRate)
}

func TestRecorder_Concurrent(t *testing.T) {
	t.Parallel()
	r := NewRecorder(Config{Capacity: 500})
	var wg sync.WaitGroup
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				status := domain.AttemptStatusSent
				if i%10 == 0 {
					status = domain.AttemptStatusFailed
				}
				r.Record(domain.DeliveryAttemptRecord{
					TemplateName: domain.TemplateRentReminder,
					Recipient:    fmt.Sprintf("%d-%d@example.com", w, i),
					Status:       status,
				})
				_ = r.SystemStats(StatsFilter{})
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 500, r.Len())
}
