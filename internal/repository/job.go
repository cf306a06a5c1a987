package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/repository/dao"
)

//go:generate mockgen -source=./job.go -destination=./mocks/job.mock.go -package=repomocks -typed JobRepository
type JobRepository interface {
	Create(ctx context.Context, job domain.Job) (domain.Job, error)
	GetByID(ctx context.Context, id uint64) (domain.Job, error)
	// Claim 持久化领取，job.Version 必须是领取前的版本
	Claim(ctx context.Context, job domain.Job) error
	// Touch 刷新领取时间，job.Version 是当前版本
	Touch(ctx context.Context, job domain.Job) error
	// Update 持久化状态迁移，job.Version 必须是迁移前的版本
	Update(ctx context.Context, job domain.Job) error
	FindRestorable(ctx context.Context, offset, limit int) ([]domain.Job, error)
	ResetStaleClaims(ctx context.Context, before time.Time, batchSize int) (int64, error)
}

type jobRepository struct {
	dao dao.JobDAO
}

func NewJobRepository(d dao.JobDAO) JobRepository {
	return &jobRepository{
		dao: d,
	}
}

func (r *jobRepository) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	entity, err := r.toEntity(job)
	if err != nil {
		return domain.Job{}, err
	}
	created, err := r.dao.Create(ctx, entity)
	if err != nil {
		return domain.Job{}, err
	}
	job.Version = created.Version
	job.Ctime = time.UnixMilli(created.Ctime)
	job.Utime = time.UnixMilli(created.Utime)
	return job, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint64) (domain.Job, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	return r.toDomain(entity)
}

func (r *jobRepository) Claim(ctx context.Context, job domain.Job) error {
	return r.dao.Claim(ctx, job.ID, job.Version, job.ClaimedAt.UnixMilli())
}

func (r *jobRepository) Touch(ctx context.Context, job domain.Job) error {
	return r.dao.Touch(ctx, job.ID, job.Version, job.ClaimedAt.UnixMilli())
}

func (r *jobRepository) Update(ctx context.Context, job domain.Job) error {
	entity, err := r.toEntity(job)
	if err != nil {
		return err
	}
	return r.dao.Update(ctx, entity)
}

func (r *jobRepository) FindRestorable(ctx context.Context, offset, limit int) ([]domain.Job, error) {
	entities, err := r.dao.FindRestorable(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Job, 0, len(entities))
	for i := range entities {
		job, err1 := r.toDomain(entities[i])
		if err1 != nil {
			return nil, err1
		}
		res = append(res, job)
	}
	return res, nil
}

func (r *jobRepository) ResetStaleClaims(ctx context.Context, before time.Time, batchSize int) (int64, error) {
	return r.dao.ResetStaleClaims(ctx, before.UnixMilli(), batchSize)
}

func (r *jobRepository) toEntity(job domain.Job) (dao.Job, error) {
	recipients, err := json.Marshal(job.Recipients)
	if err != nil {
		return dao.Job{}, fmt.Errorf("序列化收件人失败: %w", err)
	}
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return dao.Job{}, fmt.Errorf("序列化模板数据失败: %w", err)
	}
	var metadata []byte
	if len(job.Metadata) > 0 {
		metadata, err = json.Marshal(job.Metadata)
		if err != nil {
			return dao.Job{}, fmt.Errorf("序列化元数据失败: %w", err)
		}
	}
	var expr string
	if job.Schedule != nil {
		expr = job.Schedule.Expr()
	}
	var claimedAt int64
	if !job.ClaimedAt.IsZero() {
		claimedAt = job.ClaimedAt.UnixMilli()
	}
	return dao.Job{
		ID:           job.ID,
		TrackingID:   job.TrackingID,
		Recipients:   string(recipients),
		TemplateName: job.TemplateName.String(),
		Payload:      string(payload),
		Lane:         job.Lane.String(),
		OriginLane:   job.OriginLane.String(),
		Priority:     job.Priority,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
		ScheduledFor: job.ScheduledFor.UnixMilli(),
		ScheduleExpr: expr,
		Metadata:     string(metadata),
		Status:       job.Status.String(),
		LastError:    job.LastError,
		ClaimedAt:    claimedAt,
		Version:      job.Version,
	}, nil
}

func (r *jobRepository) toDomain(entity dao.Job) (domain.Job, error) {
	var recipients []string
	if err := json.Unmarshal([]byte(entity.Recipients), &recipients); err != nil {
		return domain.Job{}, fmt.Errorf("解析收件人失败 id=%d: %w", entity.ID, err)
	}
	name := domain.TemplateName(entity.TemplateName)
	payload, err := domain.DecodePayload(name, []byte(entity.Payload))
	if err != nil {
		return domain.Job{}, fmt.Errorf("解析模板数据失败 id=%d: %w", entity.ID, err)
	}
	var metadata map[string]string
	if entity.Metadata != "" {
		if err = json.Unmarshal([]byte(entity.Metadata), &metadata); err != nil {
			return domain.Job{}, fmt.Errorf("解析元数据失败 id=%d: %w", entity.ID, err)
		}
	}
	var sched domain.Schedule
	if entity.ScheduleExpr != "" {
		sched, err = domain.ParseSchedule(entity.ScheduleExpr)
		if err != nil {
			return domain.Job{}, err
		}
	}
	var claimedAt time.Time
	if entity.ClaimedAt > 0 {
		claimedAt = time.UnixMilli(entity.ClaimedAt)
	}
	return domain.Job{
		ID:           entity.ID,
		Recipients:   recipients,
		TemplateName: name,
		Payload:      payload,
		Lane:         domain.Lane(entity.Lane),
		OriginLane:   domain.Lane(entity.OriginLane),
		Priority:     entity.Priority,
		Attempt:      entity.Attempt,
		MaxAttempts:  entity.MaxAttempts,
		ScheduledFor: time.UnixMilli(entity.ScheduledFor),
		Schedule:     sched,
		TrackingID:   entity.TrackingID,
		Metadata:     metadata,
		Status:       domain.JobStatus(entity.Status),
		LastError:    entity.LastError,
		ClaimedAt:    claimedAt,
		Version:      entity.Version,
		Ctime:        time.UnixMilli(entity.Ctime),
		Utime:        time.UnixMilli(entity.Utime),
	}, nil
}
