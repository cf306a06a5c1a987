package metrics

import (
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/gotomicro/ego/core/elog"
)

// Recorder 投递记录的唯一持有者。
// 记录保存在固定容量的环形缓冲区里，所有读写都经过 mu
type Recorder struct {
	cfg Config

	mu     sync.RWMutex
	buf    []domain.DeliveryAttemptRecord
	head   int // 最老记录的位置
	size   int
	nextID uint64

	now    func() time.Time
	logger *elog.Component
}

func NewRecorder(cfg Config) *Recorder {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	return &Recorder{
		cfg:    cfg,
		buf:    make([]domain.DeliveryAttemptRecord, cfg.Capacity),
		now:    time.Now,
		logger: elog.DefaultLogger,
	}
}

// Record 追加一条记录，ID 和时间为空时自动补上
func (r *Recorder) Record(rec domain.DeliveryAttemptRecord) {
	r.mu.Lock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	r.nextID++
	if rec.ID == 0 {
		rec.ID = r.nextID
	}
	r.appendLocked(rec)
	r.mu.Unlock()

	if rec.Status == domain.AttemptStatusFailed {
		r.logger.Warn("投递失败",
			elog.Any("jobId", rec.JobID),
			elog.String("template", rec.TemplateName.String()),
			elog.String("recipient", rec.Recipient),
			elog.String("error", rec.ErrorMessage))
	}
}

func (r *Recorder) appendLocked(rec domain.DeliveryAttemptRecord) {
	idx := (r.head + r.size) % len(r.buf)
	r.buf[idx] = rec
	if r.size < len(r.buf) {
		r.size++
		return
	}
	// 已满，覆盖最老的一条
	r.head = (r.head + 1) % len(r.buf)
}

// RecordProviderEvent 记录供应商回调。
// 没有带模板名称时，从同一个任务、同一个收件人最近的发送记录里继承模板和元数据
func (r *Recorder) RecordProviderEvent(ev ProviderEvent) error {
	switch ev.Status {
	case domain.AttemptStatusDelivered, domain.AttemptStatusOpened,
		domain.AttemptStatusClicked, domain.AttemptStatusBounced:
	default:
		return fmt.Errorf("%w: status = %q", errs.ErrInvalidParameter, ev.Status)
	}
	if ev.Recipient == "" {
		return fmt.Errorf("%w: recipient 不能为空", errs.ErrInvalidParameter)
	}

	rec := domain.DeliveryAttemptRecord{
		JobID:        ev.JobID,
		TemplateName: ev.TemplateName,
		Recipient:    ev.Recipient,
		Status:       ev.Status,
		Timestamp:    ev.Timestamp,
	}
	if rec.TemplateName == "" {
		origin, ok := r.lastSent(ev.JobID, ev.Recipient)
		if !ok {
			return fmt.Errorf("%w: 找不到任务 %d 发往 %s 的记录", errs.ErrInvalidParameter, ev.JobID, ev.Recipient)
		}
		rec.TemplateName = origin.TemplateName
		rec.Metadata = origin.Metadata
	}
	r.Record(rec)
	return nil
}

func (r *Recorder) lastSent(jobID uint64, recipient string) (domain.DeliveryAttemptRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := r.size - 1; i >= 0; i-- {
		rec := r.buf[(r.head+i)%len(r.buf)]
		if rec.JobID == jobID && rec.Recipient == recipient && rec.Status == domain.AttemptStatusSent {
			return rec, true
		}
	}
	return domain.DeliveryAttemptRecord{}, false
}

// Sweep 删除超过保留期的记录，返回删除的条数
func (r *Recorder) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.cfg.Retention)
	kept := make([]domain.DeliveryAttemptRecord, 0, r.size)
	r.each(func(rec domain.DeliveryAttemptRecord) {
		if !rec.Timestamp.Before(cutoff) {
			kept = append(kept, rec)
		}
	})
	removed := r.size - len(kept)
	if removed == 0 {
		return 0
	}
	clear(r.buf)
	copy(r.buf, kept)
	r.head = 0
	r.size = len(kept)
	r.logger.Info("清理过期投递记录", elog.Int("removed", removed), elog.Int("remaining", r.size))
	return removed
}

// Len 当前保留的记录数
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Records 按时间从旧到新返回副本
func (r *Recorder) Records() []domain.DeliveryAttemptRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]domain.DeliveryAttemptRecord, 0, r.size)
	r.each(func(rec domain.DeliveryAttemptRecord) {
		res = append(res, rec)
	})
	return res
}

// each 调用方需要持有锁
func (r *Recorder) each(fn func(rec domain.DeliveryAttemptRecord)) {
	for i := 0; i < r.size; i++ {
		fn(r.buf[(r.head+i)%len(r.buf)])
	}
}
