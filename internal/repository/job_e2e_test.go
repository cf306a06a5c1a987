//go:build e2e

package repository

import (
	"context"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/repository/dao"
	testioc "gitee.com/flycash/notification-dispatcher/internal/test/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func TestJobRepositorySuite(t *testing.T) {
	suite.Run(t, new(JobRepositoryTestSuite))
}

type JobRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo JobRepository
}

func (s *JobRepositoryTestSuite) SetupSuite() {
	s.db = testioc.InitDBAndTables()
	s.repo = NewJobRepository(dao.NewJobDAO(s.db))
}

func (s *JobRepositoryTestSuite) TearDownTest() {
	s.db.Exec("TRUNCATE TABLE `delivery_jobs`")
}

func (s *JobRepositoryTestSuite) newJob(id uint64) domain.Job {
	return domain.Job{
		ID:         id,
		Recipients: []string{"a@example.com", "b@example.com"},
		Payload: domain.WelcomeTenant{
			TenantName: "张三",
			OrgName:    "Acme Homes",
			PortalURL:  "https://portal.example.com",
			MoveInDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		TemplateName: domain.TemplateWelcomeTenant,
		Lane:         domain.LaneImmediate,
		OriginLane:   domain.LaneImmediate,
		MaxAttempts:  3,
		ScheduledFor: time.UnixMilli(time.Now().UnixMilli()),
		TrackingID:   "track-1",
		Metadata:     map[string]string{"source": "e2e"},
		Status:       domain.JobStatusPending,
	}
}

func (s *JobRepositoryTestSuite) TestCreateAndGet() {
	t := s.T()
	ctx := context.Background()

	created, err := s.repo.Create(ctx, s.newJob(1))
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	_, err = s.repo.Create(ctx, s.newJob(1))
	assert.ErrorIs(t, err, errs.ErrJobDuplicate)

	got, err := s.repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created.Recipients, got.Recipients)
	assert.Equal(t, created.Payload, got.Payload)
	assert.Equal(t, created.Metadata, got.Metadata)
	assert.Equal(t, domain.LaneImmediate, got.Lane)

	_, err = s.repo.GetByID(ctx, 2)
	assert.ErrorIs(t, err, errs.ErrJobNotFound)
}

func (s *JobRepositoryTestSuite) TestClaimAndUpdate() {
	t := s.T()
	ctx := context.Background()

	job, err := s.repo.Create(ctx, s.newJob(10))
	require.NoError(t, err)

	job.ClaimedAt = time.Now()
	require.NoError(t, s.repo.Claim(ctx, job))
	// 同一个版本不能被领取两次
	assert.ErrorIs(t, s.repo.Claim(ctx, job), errs.ErrJobClaimed)

	job.Version++
	job.Status = domain.JobStatusDead
	job.Lane = domain.LaneDeadLetter
	job.Attempt = 3
	job.LastError = "供应商临时错误"
	require.NoError(t, s.repo.Update(ctx, job))
	// 旧版本更新失败
	assert.ErrorIs(t, s.repo.Update(ctx, job), errs.ErrJobVersionMismatch)

	got, err := s.repo.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDead, got.Status)
	assert.Equal(t, domain.LaneDeadLetter, got.Lane)
	assert.Equal(t, 3, got.Attempt)
	assert.Equal(t, job.Version+1, got.Version)
}

func (s *JobRepositoryTestSuite) TestRestoreAndResetStaleClaims() {
	t := s.T()
	ctx := context.Background()

	for id := uint64(1); id <= 3; id++ {
		_, err := s.repo.Create(ctx, s.newJob(id))
		require.NoError(t, err)
	}
	stale, err := s.repo.GetByID(ctx, 2)
	require.NoError(t, err)
	stale.ClaimedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.repo.Claim(ctx, stale))

	jobs, err := s.repo.FindRestorable(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	jobs, err = s.repo.FindRestorable(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	n, err := s.repo.ResetStaleClaims(ctx, time.Now().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, got.Status)
}
