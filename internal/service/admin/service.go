package admin

import (
	"context"
	"fmt"
	"strconv"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/idempotent"
	"gitee.com/flycash/notification-dispatcher/internal/service/breaker"
	"gitee.com/flycash/notification-dispatcher/internal/service/metrics"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"github.com/gofrs/uuid"
	"github.com/gotomicro/ego/core/elog"
)

// Service 对外的控制面：入队、死信重试、暂停恢复和各种查询
type Service struct {
	q         *queue.Queue
	idem      idempotent.Service
	breaker   *breaker.Breaker
	workers   WorkerCounter
	recorder  *metrics.Recorder
	templates TemplateCache
	publisher LanePausePublisher
	logger    *elog.Component
}

func NewService(
	q *queue.Queue,
	idem idempotent.Service,
	b *breaker.Breaker,
	workers WorkerCounter,
	recorder *metrics.Recorder,
	templates TemplateCache,
) *Service {
	return &Service{
		q:         q,
		idem:      idem,
		breaker:   b,
		workers:   workers,
		recorder:  recorder,
		templates: templates,
		logger:    elog.DefaultLogger,
	}
}

// WithPublisher 设置之后暂停和恢复会广播给其他实例
func (s *Service) WithPublisher(p LanePausePublisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) EnqueueImmediate(ctx context.Context, req EnqueueRequest) (domain.Job, error) {
	return s.enqueueOne(ctx, req, func(job domain.Job) (domain.Job, error) {
		return s.q.EnqueueImmediate(ctx, job)
	})
}

func (s *Service) EnqueueScheduled(ctx context.Context, req EnqueueRequest, opt domain.ScheduleOption) (domain.Job, error) {
	if err := opt.Validate(); err != nil {
		return domain.Job{}, err
	}
	return s.enqueueOne(ctx, req, func(job domain.Job) (domain.Job, error) {
		return s.q.EnqueueScheduled(ctx, job, opt)
	})
}

func (s *Service) enqueueOne(ctx context.Context, req EnqueueRequest, enqueue func(job domain.Job) (domain.Job, error)) (domain.Job, error) {
	job, err := s.newJob(req)
	if err != nil {
		return domain.Job{}, err
	}
	key := job.TrackingID
	ok, err := s.idem.Reserve(ctx, key)
	if err != nil {
		return domain.Job{}, fmt.Errorf("检查追踪ID失败: %w", err)
	}
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", errs.ErrDuplicateTrackingID, key)
	}
	created, err := enqueue(job)
	if err != nil {
		s.release(ctx, key)
		return domain.Job{}, err
	}
	return created, nil
}

// EnqueueBulk 每一批单独占用 <trackingId>#<批次> 这个 key，任意一批重复就整体拒绝
func (s *Service) EnqueueBulk(ctx context.Context, req EnqueueRequest) ([]domain.Job, error) {
	job, err := s.newJob(req)
	if err != nil {
		return nil, err
	}
	size := s.q.Config().BulkBatchSize
	batches := (len(job.Recipients) + size - 1) / size
	keys := make([]string, batches)
	for i := range keys {
		keys[i] = job.TrackingID + "#" + strconv.Itoa(i)
	}
	reserved, err := s.idem.MReserve(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("检查追踪ID失败: %w", err)
	}
	var fresh []string
	duplicate := false
	for i, ok := range reserved {
		if ok {
			fresh = append(fresh, keys[i])
		} else {
			duplicate = true
		}
	}
	if duplicate {
		s.release(ctx, fresh...)
		return nil, fmt.Errorf("%w: %s", errs.ErrDuplicateTrackingID, job.TrackingID)
	}

	jobs, err := s.q.EnqueueBulk(ctx, job)
	if err != nil {
		// 已经入队的批次保留占位
		s.release(ctx, keys[len(jobs):]...)
		return jobs, err
	}
	return jobs, nil
}

func (s *Service) newJob(req EnqueueRequest) (domain.Job, error) {
	if req.Payload == nil {
		return domain.Job{}, fmt.Errorf("%w: 模板数据不能为空", errs.ErrInvalidParameter)
	}
	if len(req.Recipients) == 0 {
		return domain.Job{}, fmt.Errorf("%w: 收件人不能为空", errs.ErrInvalidParameter)
	}
	trackingID := req.TrackingID
	if trackingID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return domain.Job{}, fmt.Errorf("生成追踪ID失败: %w", err)
		}
		trackingID = id.String()
	}
	return domain.Job{
		Recipients:   req.Recipients,
		TemplateName: req.Payload.TemplateName(),
		Payload:      req.Payload,
		Priority:     req.Priority,
		TrackingID:   trackingID,
		Metadata:     req.Metadata,
	}, nil
}

func (s *Service) release(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.idem.Release(ctx, keys...); err != nil {
		s.logger.Warn("释放追踪ID失败", elog.Any("keys", keys), elog.FieldErr(err))
	}
}

// RetryDeadLetter 不检查追踪ID，新任务沿用原来的追踪ID
func (s *Service) RetryDeadLetter(ctx context.Context, id uint64) (domain.Job, error) {
	job, err := s.q.RetryDeadLetter(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	s.logger.Info("死信任务重新入队", elog.Any("deadJobId", id), elog.Any("jobId", job.ID))
	return job, nil
}

func (s *Service) DeadLetters() []domain.Job {
	return s.q.DeadLetters()
}

func (s *Service) PauseLane(ctx context.Context, lane domain.Lane) error {
	return s.setPaused(ctx, lane, true)
}

func (s *Service) ResumeLane(ctx context.Context, lane domain.Lane) error {
	return s.setPaused(ctx, lane, false)
}

// setPaused 本实例立即生效，广播失败只记录日志
func (s *Service) setPaused(ctx context.Context, lane domain.Lane, paused bool) error {
	var err error
	if paused {
		err = s.q.Pause(lane)
	} else {
		err = s.q.Resume(lane)
	}
	if err != nil {
		return err
	}
	if s.publisher != nil {
		if er := s.publisher.Publish(ctx, lane, paused); er != nil {
			s.logger.Error("广播通道状态失败",
				elog.String("lane", lane.String()),
				elog.Any("paused", paused),
				elog.FieldErr(er))
		}
	}
	return nil
}

// Health 熔断器没有关闭时，状态至少是 degraded
func (s *Service) Health() Health {
	qh := s.q.Health()
	res := Health{
		Status:          qh.Status,
		ProviderCircuit: s.breaker.Snapshot(),
		LaneDepths:      make(map[string]int, len(qh.Lanes)),
		Lanes:           qh.Lanes,
		WorkerCounts:    s.workers.WorkerCounts(),
		Backlog:         qh.Backlog,
		InFlight:        qh.InFlight,
		FailureRate:     qh.FailureRate,
	}
	for _, l := range qh.Lanes {
		res.LaneDepths[l.Lane.String()] = l.Depth
	}
	if s.breaker.State() != breaker.StateClosed && res.Status == domain.HealthStatusHealthy {
		res.Status = domain.HealthStatusDegraded
	}
	return res
}

func (s *Service) SystemStats(template domain.TemplateName) metrics.SystemStats {
	return s.recorder.SystemStats(metrics.StatsFilter{Template: template})
}

func (s *Service) Alerts() []domain.Alert {
	return s.recorder.Alerts()
}

func (s *Service) RecordEvent(ev metrics.ProviderEvent) error {
	return s.recorder.RecordProviderEvent(ev)
}

func (s *Service) ClearTemplateCache() {
	s.templates.ClearCache()
}
