package queue

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"github.com/ecodeclub/ekit"
	ekitqueue "github.com/ecodeclub/ekit/queue"
)

// entry 堆里的元素，seq 用来在同优先级下保持入队顺序
type entry struct {
	job *domain.Job
	seq uint64
}

// lane 一个通道由两个堆组成：
// ready 按 (priority, seq) 排序，只放已经到期的任务；
// delayed 按 (scheduledFor, seq) 排序，到期之后搬到 ready。
type lane struct {
	name     domain.Lane
	ready    *ekitqueue.PriorityQueue[entry]
	delayed  *ekitqueue.PriorityQueue[entry]
	paused   bool
	inFlight int
}

func newLane(name domain.Lane) *lane {
	return &lane{
		name:    name,
		ready:   ekitqueue.NewPriorityQueue[entry](0, readyComparator()),
		delayed: ekitqueue.NewPriorityQueue[entry](0, delayedComparator()),
	}
}

func readyComparator() ekit.Comparator[entry] {
	return func(src, dst entry) int {
		if src.job.Priority != dst.job.Priority {
			if src.job.Priority < dst.job.Priority {
				return -1
			}
			return 1
		}
		return compareSeq(src.seq, dst.seq)
	}
}

func delayedComparator() ekit.Comparator[entry] {
	return func(src, dst entry) int {
		if !src.job.ScheduledFor.Equal(dst.job.ScheduledFor) {
			if src.job.ScheduledFor.Before(dst.job.ScheduledFor) {
				return -1
			}
			return 1
		}
		return compareSeq(src.seq, dst.seq)
	}
}

func compareSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// push 未到期的任务进 delayed，其余直接进 ready
func (l *lane) push(e entry, now time.Time) {
	if e.job.EligibleAt(now) {
		_ = l.ready.Enqueue(e)
		return
	}
	_ = l.delayed.Enqueue(e)
}

// promote 把所有到期的任务搬到 ready
func (l *lane) promote(now time.Time) {
	for {
		head, err := l.delayed.Peek()
		if err != nil || !head.job.EligibleAt(now) {
			return
		}
		e, _ := l.delayed.Dequeue()
		_ = l.ready.Enqueue(e)
	}
}

// pop 取出优先级最高的已到期任务
func (l *lane) pop(now time.Time) (entry, bool) {
	l.promote(now)
	e, err := l.ready.Dequeue()
	if err != nil {
		return entry{}, false
	}
	return e, true
}

// nextDue delayed 中最早的到期时间，没有则返回零值
func (l *lane) nextDue() time.Time {
	head, err := l.delayed.Peek()
	if err != nil {
		return time.Time{}
	}
	return head.job.ScheduledFor
}

func (l *lane) depth() int {
	return l.ready.Len() + l.delayed.Len()
}
