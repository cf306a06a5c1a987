package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

// ErrNoEligibleJob 通道里暂时没有可以领取的任务
var ErrNoEligibleJob = errors.New("没有可领取的任务")

// Queue 多通道任务队列。
// 内存里维护每个通道的堆和任务索引，所有状态迁移先改内存，再用 version 做 CAS 落库；
// 落库期间任务不在任何堆里，所以别的 worker 不可能领取到。
type Queue struct {
	mu     sync.Mutex
	lanes  map[domain.Lane]*lane
	jobs   map[uint64]*domain.Job // PENDING 和 CLAIMED
	dead   map[uint64]*domain.Job
	seq    uint64
	signal chan struct{}

	repo      repository.JobRepository
	idGen     IDGenerator
	failure   FailureRateSource
	listeners []DeadLetterListener
	cfg       Config
	now       func() time.Time
	logger    *elog.Component
}

func NewQueue(repo repository.JobRepository, idGen IDGenerator, failure FailureRateSource, cfg Config) *Queue {
	lanes := make(map[domain.Lane]*lane, len(domain.Lanes))
	for _, name := range domain.Lanes {
		lanes[name] = newLane(name)
	}
	return &Queue{
		lanes:   lanes,
		jobs:    make(map[uint64]*domain.Job),
		dead:    make(map[uint64]*domain.Job),
		signal:  make(chan struct{}),
		repo:    repo,
		idGen:   idGen,
		failure: failure,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		logger:  elog.DefaultLogger,
	}
}

// AddDeadLetterListener 只能在启动阶段调用
func (q *Queue) AddDeadLetterListener(l DeadLetterListener) {
	q.listeners = append(q.listeners, l)
}

func (q *Queue) Config() Config {
	return q.cfg
}

// Ready 有新任务入队或者通道恢复时，返回的 channel 会被关闭
func (q *Queue) Ready() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.signal
}

// NextDue 通道里最早的未到期时间，用于 worker 计算等待时长
func (q *Queue) NextDue(l domain.Lane) time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	ln, ok := q.lanes[l]
	if !ok {
		return time.Time{}
	}
	return ln.nextDue()
}

func (q *Queue) EnqueueImmediate(ctx context.Context, job domain.Job) (domain.Job, error) {
	job.Lane = domain.LaneImmediate
	job.ScheduledFor = q.now()
	job.Schedule = nil
	return q.enqueue(ctx, job)
}

// EnqueueScheduled 过去的时间点视为立即可领取
func (q *Queue) EnqueueScheduled(ctx context.Context, job domain.Job, opt domain.ScheduleOption) (domain.Job, error) {
	if err := opt.Validate(); err != nil {
		return domain.Job{}, err
	}
	now := q.now()
	job.Lane = domain.LaneScheduled
	job.Schedule = nil
	switch {
	case opt.Delay > 0:
		job.ScheduledFor = now.Add(opt.Delay)
	case !opt.At.IsZero():
		job.ScheduledFor = opt.At
	default:
		sched, err := domain.ParseSchedule(opt.Cron)
		if err != nil {
			return domain.Job{}, err
		}
		next := sched.Next(now)
		if next.IsZero() {
			return domain.Job{}, fmt.Errorf("%w: cron = %q 不会再触发", errs.ErrInvalidParameter, opt.Cron)
		}
		job.Schedule = sched
		job.ScheduledFor = next
	}
	return q.enqueue(ctx, job)
}

// EnqueueBulk 把收件人按批拆分，每一批是一个独立的任务，第 i 批延迟 i * BulkStagger。
// 中途失败时返回已经入队的任务和错误。
func (q *Queue) EnqueueBulk(ctx context.Context, job domain.Job) ([]domain.Job, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	batches := splitBatches(job.Recipients, q.cfg.BulkBatchSize)
	now := q.now()
	res := make([]domain.Job, 0, len(batches))
	for i, batch := range batches {
		j := job.Clone()
		j.Recipients = batch
		j.Lane = domain.LaneBulk
		j.Schedule = nil
		j.ScheduledFor = now.Add(time.Duration(i) * q.cfg.BulkStagger)
		if j.Metadata == nil {
			j.Metadata = make(map[string]string, 1)
		}
		j.Metadata[MetadataBatchIndex] = strconv.Itoa(i)
		created, err := q.enqueue(ctx, j)
		if err != nil {
			return res, fmt.Errorf("第 %d 批入队失败: %w", i, err)
		}
		res = append(res, created)
	}
	return res, nil
}

const (
	MetadataBatchIndex = "batchIndex"
	MetadataRetryOf    = "retryOf"
)

func splitBatches(recipients []string, size int) [][]string {
	res := make([][]string, 0, (len(recipients)+size-1)/size)
	for start := 0; start < len(recipients); start += size {
		end := min(start+size, len(recipients))
		res = append(res, append([]string(nil), recipients[start:end]...))
	}
	return res
}

func (q *Queue) enqueue(ctx context.Context, job domain.Job) (domain.Job, error) {
	if err := job.Validate(); err != nil {
		return domain.Job{}, err
	}
	id, err := q.idGen.NextID()
	if err != nil {
		return domain.Job{}, fmt.Errorf("生成任务ID失败: %w", err)
	}
	job.ID = id
	job.OriginLane = job.Lane
	job.MaxAttempts = job.Lane.MaxAttempts()
	job.Attempt = 0
	job.Status = domain.JobStatusPending
	job.LastError = ""
	job.ClaimedAt = time.Time{}

	created, err := q.repo.Create(ctx, job)
	if err != nil {
		return domain.Job{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	j := created.Clone()
	q.insertLocked(&j)
	return created, nil
}

func (q *Queue) insertLocked(j *domain.Job) {
	q.seq++
	q.jobs[j.ID] = j
	q.lanes[j.Lane].push(entry{job: j, seq: q.seq}, q.now())
	q.wakeLocked()
}

func (q *Queue) wakeLocked() {
	close(q.signal)
	q.signal = make(chan struct{})
}

// DequeueNext 领取通道里优先级最高、最早入队的已到期任务。
// 同一个任务只会被一个 worker 领取：出堆和置 CLAIMED 在同一把锁里完成，落库用 version CAS。
func (q *Queue) DequeueNext(ctx context.Context, l domain.Lane) (domain.Job, error) {
	q.mu.Lock()
	ln, ok := q.lanes[l]
	if !ok {
		q.mu.Unlock()
		return domain.Job{}, fmt.Errorf("%w: %s", errs.ErrUnknownLane, l)
	}
	if ln.paused {
		q.mu.Unlock()
		return domain.Job{}, fmt.Errorf("%w: %s", errs.ErrLanePaused, l)
	}
	now := q.now()
	e, ok := ln.pop(now)
	if !ok {
		q.mu.Unlock()
		return domain.Job{}, ErrNoEligibleJob
	}
	job := e.job
	job.Status = domain.JobStatusClaimed
	job.ClaimedAt = now
	ln.inFlight++
	snapshot := job.Clone()
	q.mu.Unlock()

	err := q.repo.Claim(ctx, snapshot)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		ln.inFlight--
		if errors.Is(err, errs.ErrJobClaimed) {
			// 其他实例已经领取，本地直接丢弃
			delete(q.jobs, job.ID)
			return domain.Job{}, err
		}
		job.Status = domain.JobStatusPending
		job.ClaimedAt = time.Time{}
		ln.push(e, now)
		return domain.Job{}, fmt.Errorf("持久化领取失败: %w", err)
	}
	job.Version++
	return job.Clone(), nil
}

// DequeueFrom 按顺序尝试多个通道，靠前的通道总是先被排空
func (q *Queue) DequeueFrom(ctx context.Context, lanes ...domain.Lane) (domain.Job, error) {
	for _, l := range lanes {
		job, err := q.DequeueNext(ctx, l)
		switch {
		case err == nil:
			return job, nil
		case errors.Is(err, ErrNoEligibleJob), errors.Is(err, errs.ErrLanePaused):
			continue
		default:
			return domain.Job{}, err
		}
	}
	return domain.Job{}, ErrNoEligibleJob
}

// Complete 发送成功。周期任务会重新布防下一次触发
func (q *Queue) Complete(ctx context.Context, job domain.Job) error {
	q.mu.Lock()
	j, err := q.claimedLocked(job.ID)
	if err != nil {
		q.mu.Unlock()
		return err
	}
	q.lanes[j.Lane].inFlight--
	j.Status = domain.JobStatusCompleted
	j.LastError = ""
	delete(q.jobs, j.ID)
	snapshot := j.Clone()
	q.mu.Unlock()

	err = q.repo.Update(ctx, snapshot)
	if err != nil {
		q.logger.Error("持久化任务完成状态失败",
			elog.Any("jobID", snapshot.ID),
			elog.FieldErr(err))
	}
	q.rearm(ctx, snapshot)
	return err
}

// RequeueForRetry attempt 加一，没有耗尽就按指数退避放进重试通道，否则进入死信
func (q *Queue) RequeueForRetry(ctx context.Context, job domain.Job, cause error) (domain.Job, error) {
	q.mu.Lock()
	j, err := q.claimedLocked(job.ID)
	if err != nil {
		q.mu.Unlock()
		return domain.Job{}, err
	}
	j.Attempt++
	if j.Exhausted() {
		snapshot := q.deadLetterLocked(j, cause)
		q.mu.Unlock()
		q.afterDeadLetter(ctx, snapshot)
		return snapshot, nil
	}
	delay := Backoff(j.Attempt, q.cfg.RetryBaseDelay, q.cfg.RetryMaxDelay)
	snapshot := q.releaseLocked(j, domain.LaneRetry, q.now().Add(delay), cause)
	q.mu.Unlock()
	return snapshot, q.persistAndPush(ctx, snapshot)
}

// RequeueCircuitOpen 熔断属于系统性故障，不消耗 attempt
func (q *Queue) RequeueCircuitOpen(ctx context.Context, job domain.Job, delay time.Duration) (domain.Job, error) {
	q.mu.Lock()
	j, err := q.claimedLocked(job.ID)
	if err != nil {
		q.mu.Unlock()
		return domain.Job{}, err
	}
	snapshot := q.releaseLocked(j, domain.LaneRetry, q.now().Add(delay), errs.ErrCircuitOpen)
	q.mu.Unlock()
	return snapshot, q.persistAndPush(ctx, snapshot)
}

// MoveToDeadLetter 不可重试的失败直接进入死信，本次尝试同样计数
func (q *Queue) MoveToDeadLetter(ctx context.Context, job domain.Job, cause error) (domain.Job, error) {
	q.mu.Lock()
	j, err := q.claimedLocked(job.ID)
	if err != nil {
		q.mu.Unlock()
		return domain.Job{}, err
	}
	if j.Attempt < j.MaxAttempts {
		j.Attempt++
	}
	snapshot := q.deadLetterLocked(j, cause)
	q.mu.Unlock()
	q.afterDeadLetter(ctx, snapshot)
	return snapshot, nil
}

// RetryDeadLetter 以死信任务为模板创建一个新任务，原任务保持 DEAD 不变
func (q *Queue) RetryDeadLetter(ctx context.Context, id uint64) (domain.Job, error) {
	q.mu.Lock()
	var src domain.Job
	j, ok := q.dead[id]
	if ok {
		src = j.Clone()
	}
	q.mu.Unlock()
	if !ok {
		found, err := q.repo.GetByID(ctx, id)
		if err != nil {
			return domain.Job{}, err
		}
		if found.Status != domain.JobStatusDead {
			return domain.Job{}, fmt.Errorf("%w: id=%d, status=%s", errs.ErrJobNotDeadLettered, id, found.Status)
		}
		src = found
	}

	lane := src.OriginLane
	if !lane.IsValid() || lane == domain.LaneDeadLetter || lane == domain.LaneRetry {
		lane = domain.LaneImmediate
	}
	src.Lane = lane
	src.ScheduledFor = q.now()
	// 周期任务在进入死信的时候已经布防过了
	src.Schedule = nil
	metadata := make(map[string]string, len(src.Metadata)+1)
	for k, v := range src.Metadata {
		metadata[k] = v
	}
	metadata[MetadataRetryOf] = strconv.FormatUint(id, 10)
	src.Metadata = metadata
	return q.enqueue(ctx, src)
}

func (q *Queue) claimedLocked(id uint64) (*domain.Job, error) {
	j, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", errs.ErrJobNotFound, id)
	}
	if j.Status != domain.JobStatusClaimed {
		return nil, fmt.Errorf("%w: id=%d, status=%s", errs.ErrJobNotClaimed, id, j.Status)
	}
	return j, nil
}

// releaseLocked 把领取中的任务释放为 PENDING，但还不放回堆
func (q *Queue) releaseLocked(j *domain.Job, to domain.Lane, at time.Time, cause error) domain.Job {
	q.lanes[j.Lane].inFlight--
	j.Lane = to
	j.Status = domain.JobStatusPending
	j.ScheduledFor = at
	j.ClaimedAt = time.Time{}
	if cause != nil {
		j.LastError = cause.Error()
	}
	return j.Clone()
}

func (q *Queue) deadLetterLocked(j *domain.Job, cause error) domain.Job {
	q.lanes[j.Lane].inFlight--
	j.Lane = domain.LaneDeadLetter
	j.Status = domain.JobStatusDead
	j.ClaimedAt = time.Time{}
	if cause != nil {
		j.LastError = cause.Error()
	}
	delete(q.jobs, j.ID)
	q.dead[j.ID] = j
	return j.Clone()
}

// persistAndPush 落库成功之后再放回堆
func (q *Queue) persistAndPush(ctx context.Context, snapshot domain.Job) error {
	err := q.repo.Update(ctx, snapshot)

	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[snapshot.ID]
	if !ok {
		return err
	}
	switch {
	case err == nil:
		j.Version++
	case errors.Is(err, errs.ErrJobVersionMismatch):
		// 其他实例修改过这个任务，以数据库为准
		delete(q.jobs, j.ID)
		q.logger.Warn("任务版本冲突，放弃本地副本", elog.Any("jobID", j.ID))
		return err
	default:
		// 内存中的状态继续生效，数据库里的旧版本会在恢复时被纠正
		q.logger.Error("持久化任务状态失败", elog.Any("jobID", j.ID), elog.FieldErr(err))
	}
	q.seq++
	q.lanes[j.Lane].push(entry{job: j, seq: q.seq}, q.now())
	q.wakeLocked()
	return err
}

func (q *Queue) afterDeadLetter(ctx context.Context, snapshot domain.Job) {
	err := q.repo.Update(ctx, snapshot)
	if err == nil {
		q.mu.Lock()
		if j, ok := q.dead[snapshot.ID]; ok {
			j.Version++
		}
		q.mu.Unlock()
	} else {
		q.logger.Error("持久化死信状态失败", elog.Any("jobID", snapshot.ID), elog.FieldErr(err))
	}
	q.logger.Error("任务进入死信",
		elog.Any("jobID", snapshot.ID),
		elog.String("trackingID", snapshot.TrackingID),
		elog.Int("attempt", snapshot.Attempt),
		elog.String("lastError", snapshot.LastError))
	for _, l := range q.listeners {
		l.OnDeadLetter(ctx, snapshot)
	}
	q.rearm(ctx, snapshot)
}

// rearm 周期任务每次结束之后，用新的 ID 布防下一次触发
func (q *Queue) rearm(ctx context.Context, prev domain.Job) {
	if !prev.IsRecurring() {
		return
	}
	next := prev.Schedule.Next(q.now())
	if next.IsZero() {
		q.logger.Info("周期任务不再触发", elog.Any("jobID", prev.ID))
		return
	}
	j := prev.Clone()
	j.Lane = domain.LaneScheduled
	j.ScheduledFor = next
	created, err := q.enqueue(ctx, j)
	if err != nil {
		q.logger.Error("周期任务重新布防失败", elog.Any("jobID", prev.ID), elog.FieldErr(err))
		return
	}
	q.logger.Debug("周期任务重新布防",
		elog.Any("prevJobID", prev.ID),
		elog.Any("jobID", created.ID),
		elog.Any("scheduledFor", next))
}

// Pause 只阻止新的领取，已经领取的任务照常执行
func (q *Queue) Pause(l domain.Lane) error {
	return q.setPaused(l, true)
}

func (q *Queue) Resume(l domain.Lane) error {
	return q.setPaused(l, false)
}

func (q *Queue) setPaused(l domain.Lane, paused bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	ln, ok := q.lanes[l]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrUnknownLane, l)
	}
	if ln.paused == paused {
		return nil
	}
	ln.paused = paused
	if !paused {
		q.wakeLocked()
	}
	q.logger.Info("通道状态变更", elog.String("lane", l.String()), elog.Any("paused", paused))
	return nil
}

func (q *Queue) IsPaused(l domain.Lane) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	ln, ok := q.lanes[l]
	return ok && ln.paused
}

// DeadLetters 当前死信任务，按 ID 升序
func (q *Queue) DeadLetters() []domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	res := make([]domain.Job, 0, len(q.dead))
	for _, j := range q.dead {
		res = append(res, j.Clone())
	}
	sortJobs(res)
	return res
}

// Restore 启动时从数据库装载任务。上一次运行遗留的 CLAIMED 任务重置为 PENDING
func (q *Queue) Restore(ctx context.Context) (int, error) {
	return q.restore(ctx, true)
}

// Heartbeat 刷新领取时间。处理中的 worker 定期调用，避免被其他实例当成遗留任务回收
func (q *Queue) Heartbeat(ctx context.Context, job domain.Job) error {
	q.mu.Lock()
	j, err := q.claimedLocked(job.ID)
	if err != nil {
		q.mu.Unlock()
		return err
	}
	j.ClaimedAt = q.now()
	snapshot := j.Clone()
	q.mu.Unlock()
	return q.repo.Touch(ctx, snapshot)
}

// RecoverStaleClaims 把数据库里领取超过 ClaimTimeout 的任务重置为 PENDING 并装载。
// 这些是已经退出的实例遗留的任务；本实例内存中领取的任务由本实例的 worker 负责，不会被回收
func (q *Queue) RecoverStaleClaims(ctx context.Context) (int, error) {
	cutoff := q.now().Add(-q.cfg.ClaimTimeout)
	n, err := q.repo.ResetStaleClaims(ctx, cutoff, q.cfg.RestoreBatchSize)
	if err != nil || n == 0 {
		return 0, err
	}
	adopted, err := q.restore(ctx, false)
	if adopted > 0 {
		q.logger.Warn("回收其他实例遗留的任务", elog.Int("reset", int(n)), elog.Int("adopted", adopted))
	}
	return adopted, err
}

func (q *Queue) restore(ctx context.Context, resetClaimed bool) (int, error) {
	cnt := 0
	batch := q.cfg.RestoreBatchSize
	for offset := 0; ; offset += batch {
		jobs, err := q.repo.FindRestorable(ctx, offset, batch)
		if err != nil {
			return cnt, err
		}
		for i := range jobs {
			if q.adopt(ctx, jobs[i], resetClaimed) {
				cnt++
			}
		}
		if len(jobs) < batch {
			return cnt, nil
		}
	}
}

func (q *Queue) adopt(ctx context.Context, job domain.Job, resetClaimed bool) bool {
	q.mu.Lock()
	if _, ok := q.jobs[job.ID]; ok {
		q.mu.Unlock()
		return false
	}
	if _, ok := q.dead[job.ID]; ok {
		q.mu.Unlock()
		return false
	}
	j := job.Clone()
	switch j.Status {
	case domain.JobStatusDead:
		q.dead[j.ID] = &j
		q.mu.Unlock()
		return true
	case domain.JobStatusPending:
		if _, ok := q.lanes[j.Lane]; !ok {
			q.mu.Unlock()
			q.logger.Warn("忽略未知通道的任务", elog.Any("jobID", j.ID), elog.String("lane", j.Lane.String()))
			return false
		}
		q.insertLocked(&j)
		q.mu.Unlock()
		return true
	case domain.JobStatusClaimed:
		if !resetClaimed {
			q.mu.Unlock()
			return false
		}
		if _, ok := q.lanes[j.Lane]; !ok {
			q.mu.Unlock()
			return false
		}
		j.Status = domain.JobStatusPending
		j.ClaimedAt = time.Time{}
		q.jobs[j.ID] = &j
		snapshot := j.Clone()
		q.mu.Unlock()
		return q.persistAndPush(ctx, snapshot) == nil
	default:
		q.mu.Unlock()
		return false
	}
}
