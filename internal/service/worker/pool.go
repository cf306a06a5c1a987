package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/delivery"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const sharedPool = "SHARED"

// Pool 从队列领取任务、调用投递客户端、记录结果，并且是唯一决定重试还是死信的地方
type Pool struct {
	q        *queue.Queue
	sender   Sender
	recorder Recorder
	cfg      Config
	// bulk 批量任务（包括重试中的批量任务）共用，相邻两个开始处理至少间隔 BulkInterval
	bulk     *rate.Limiter

	mu      sync.RWMutex
	running map[string]int
	busy    atomic.Int64

	logger *elog.Component
}

func NewPool(q *queue.Queue, sender Sender, recorder Recorder, cfg Config) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		q:        q,
		sender:   sender,
		recorder: recorder,
		cfg:      cfg,
		bulk:     rate.NewLimiter(rate.Every(cfg.BulkInterval), 1),
		running:  make(map[string]int),
		logger:   elog.DefaultLogger,
	}
}

// Start 阻塞直到 ctx 结束。ctx 结束后不再领取新任务，已经领取的任务会处理完
func (p *Pool) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, l := range domain.Lanes {
		n := p.cfg.Workers[l]
		for i := 0; i < n; i++ {
			lane := l
			eg.Go(func() error {
				return p.run(ctx, lane.String(), lane)
			})
		}
	}
	for i := 0; i < p.cfg.SharedWorkers; i++ {
		eg.Go(func() error {
			return p.run(ctx, sharedPool, domain.Lanes...)
		})
	}
	p.logger.Info("工作池启动", elog.Any("workers", p.cfg.Workers), elog.Int("shared", p.cfg.SharedWorkers))
	err := eg.Wait()
	p.logger.Info("工作池退出")
	return err
}

// WorkerCounts 当前运行中的 worker 数，按通道统计
func (p *Pool) WorkerCounts() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := make(map[string]int, len(p.running))
	for k, v := range p.running {
		res[k] = v
	}
	return res
}

// Busy 正在处理任务的 worker 数
func (p *Pool) Busy() int {
	return int(p.busy.Load())
}

func (p *Pool) track(name string, delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running[name] += delta
	if p.running[name] <= 0 {
		delete(p.running, name)
	}
}

func (p *Pool) run(ctx context.Context, name string, lanes ...domain.Lane) error {
	p.track(name, 1)
	defer p.track(name, -1)
	for {
		if ctx.Err() != nil {
			return nil
		}
		// 先拿信号再领取，领取失败之后入队的任务一定能唤醒这里
		ready := p.q.Ready()
		job, err := p.q.DequeueFrom(ctx, lanes...)
		switch {
		case err == nil:
			//nolint:contextcheck // 已领取的任务不受退出信号影响
			p.Process(context.WithoutCancel(ctx), job)
			continue
		case errors.Is(err, errs.ErrJobClaimed):
			continue
		case errors.Is(err, queue.ErrNoEligibleJob):
		default:
			p.logger.Error("领取任务失败", elog.String("worker", name), elog.FieldErr(err))
		}
		p.wait(ctx, ready, lanes)
	}
}

// wait 等到有新任务、最早的延迟任务到期或者轮询间隔结束
func (p *Pool) wait(ctx context.Context, ready <-chan struct{}, lanes []domain.Lane) {
	d := p.cfg.PollInterval
	for _, l := range lanes {
		due := p.q.NextDue(l)
		if due.IsZero() {
			continue
		}
		if until := time.Until(due); until < d {
			d = max(until, time.Millisecond)
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-ready:
	case <-timer.C:
	}
}

// Process 处理一个已经领取的任务
func (p *Pool) Process(ctx context.Context, job domain.Job) {
	p.busy.Add(1)
	defer p.busy.Add(-1)

	stop := p.heartbeat(ctx, job)
	if job.OriginLane == domain.LaneBulk {
		_ = p.bulk.Wait(ctx)
	}
	res := p.sender.SendJob(ctx, job)
	stop()
	p.record(job, res)

	var err error
	switch res.Outcome {
	case delivery.OutcomeSucceeded:
		err = p.q.Complete(ctx, job)
		if err == nil {
			p.logger.Info("任务发送成功",
				elog.Any("jobId", job.ID),
				elog.String("trackingId", job.TrackingID),
				elog.Int("recipients", len(job.Recipients)))
		}
	case delivery.OutcomeRetryable:
		var next domain.Job
		next, err = p.q.RequeueForRetry(ctx, job, res.Err)
		if err == nil && next.Status != domain.JobStatusDead {
			p.logger.Warn("任务发送失败，等待重试",
				elog.Any("jobId", job.ID),
				elog.Int("attempt", next.Attempt),
				elog.Int("maxAttempts", next.MaxAttempts),
				elog.Any("scheduledFor", next.ScheduledFor),
				elog.FieldErr(res.Err))
		}
	case delivery.OutcomeTerminal:
		_, err = p.q.MoveToDeadLetter(ctx, job, res.Err)
	case delivery.OutcomeCircuitOpen:
		delay := max(res.RetryAfter, p.q.Config().RetryBaseDelay)
		_, err = p.q.RequeueCircuitOpen(ctx, job, delay)
		if err == nil {
			p.logger.Warn("供应商熔断，任务延后",
				elog.Any("jobId", job.ID),
				elog.Any("delay", delay))
		}
	default:
		err = fmt.Errorf("未知的投递结果 %d", res.Outcome)
	}
	if err != nil {
		p.logger.Error("更新任务状态失败",
			elog.Any("jobId", job.ID),
			elog.String("outcome", res.Outcome.String()),
			elog.FieldErr(err))
	}
}

// heartbeat 处理期间定期刷新领取时间，返回的函数停止续约并等待续约协程退出
func (p *Pool) heartbeat(ctx context.Context, job domain.Job) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	interval := max(p.q.Config().ClaimTimeout/3, time.Millisecond)
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.q.Heartbeat(ctx, job); err != nil && ctx.Err() == nil {
					p.logger.Warn("刷新任务领取时间失败",
						elog.Any("jobId", job.ID),
						elog.FieldErr(err))
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// record 每个收件人一条记录。被熔断拦下、没有真正调用供应商的收件人不记录
func (p *Pool) record(job domain.Job, res delivery.Result) {
	now := time.Now()
	for _, rr := range res.Recipients {
		if rr.Attempts == 0 && errors.Is(rr.Err, errs.ErrCircuitOpen) {
			continue
		}
		rec := domain.DeliveryAttemptRecord{
			JobID:            job.ID,
			TemplateName:     job.TemplateName,
			Recipient:        rr.Recipient,
			Status:           domain.AttemptStatusSent,
			Timestamp:        now,
			ProcessingTimeMs: rr.Duration.Milliseconds(),
			Metadata:         recordMetadata(job),
		}
		if rr.Err != nil {
			rec.Status = domain.AttemptStatusFailed
			rec.ErrorMessage = rr.Err.Error()
		}
		p.recorder.Record(rec)
	}
}

func recordMetadata(job domain.Job) map[string]string {
	res := make(map[string]string, len(job.Metadata)+2)
	for k, v := range job.Metadata {
		res[k] = v
	}
	res["trackingId"] = job.TrackingID
	res["lane"] = job.Lane.String()
	return res
}
