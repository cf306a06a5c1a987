package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
)

// Lane 队列通道
type Lane string

const (
	LaneImmediate  Lane = "IMMEDIATE"   // 立即发送
	LaneScheduled  Lane = "SCHEDULED"   // 定时发送
	LaneBulk       Lane = "BULK"        // 批量发送
	LaneRetry      Lane = "RETRY"       // 重试
	LaneDeadLetter Lane = "DEAD_LETTER" // 死信
)

// Lanes 可被领取的通道，按照排空优先级排序
var Lanes = []Lane{LaneImmediate, LaneRetry, LaneScheduled, LaneBulk}

func (l Lane) String() string {
	return string(l)
}

func (l Lane) IsValid() bool {
	switch l {
	case LaneImmediate, LaneScheduled, LaneBulk, LaneRetry, LaneDeadLetter:
		return true
	default:
		return false
	}
}

// MaxAttempts 每个通道的最大尝试次数
func (l Lane) MaxAttempts() int {
	switch l {
	case LaneImmediate:
		return 3
	case LaneScheduled:
		return 5
	case LaneBulk:
		return 2
	default:
		return 3
	}
}

func ParseLane(s string) (Lane, error) {
	l := Lane(s)
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownLane, s)
	}
	return l, nil
}

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"   // 等待领取
	JobStatusClaimed   JobStatus = "CLAIMED"   // 已被某个 worker 领取
	JobStatusCompleted JobStatus = "COMPLETED" // 发送成功
	JobStatusDead      JobStatus = "DEAD"      // 进入死信，不会再变更
)

func (s JobStatus) String() string {
	return string(s)
}

// Job 投递任务
type Job struct {
	ID           uint64
	Recipients   []string
	TemplateName TemplateName
	Payload      Payload
	Lane         Lane
	// OriginLane 进入重试通道之前所在的通道，决定 MaxAttempts
	OriginLane   Lane
	Priority     int
	Attempt      int
	MaxAttempts  int
	ScheduledFor time.Time
	// Schedule 不为空时表示周期任务，每次触发之后重新布防
	Schedule   Schedule
	TrackingID string
	Metadata   map[string]string
	Status     JobStatus
	LastError  string
	ClaimedAt  time.Time
	Version    int
	Ctime      time.Time
	Utime      time.Time
}

func (j *Job) Validate() error {
	if len(j.Recipients) == 0 {
		return fmt.Errorf("%w: Recipients = %v", errs.ErrInvalidParameter, j.Recipients)
	}
	if j.Payload == nil {
		return fmt.Errorf("%w: Payload 不能为空", errs.ErrInvalidParameter)
	}
	if j.TemplateName == "" {
		j.TemplateName = j.Payload.TemplateName()
	}
	if j.TemplateName != j.Payload.TemplateName() {
		return fmt.Errorf("%w: TemplateName = %q, Payload = %q", errs.ErrInvalidParameter, j.TemplateName, j.Payload.TemplateName())
	}
	if j.Lane != "" && !j.Lane.IsValid() {
		return fmt.Errorf("%w: Lane = %q", errs.ErrInvalidParameter, j.Lane)
	}
	return nil
}

// EligibleAt 任务是否已经可以被领取
func (j *Job) EligibleAt(now time.Time) bool {
	return !j.ScheduledFor.After(now)
}

// Exhausted 尝试次数已经耗尽
func (j *Job) Exhausted() bool {
	return j.Attempt >= j.MaxAttempts
}

func (j *Job) IsRecurring() bool {
	return j.Schedule != nil
}

// Clone 深拷贝，队列对外只暴露副本
func (j *Job) Clone() Job {
	res := *j
	res.Recipients = append([]string(nil), j.Recipients...)
	if j.Metadata != nil {
		res.Metadata = make(map[string]string, len(j.Metadata))
		for k, v := range j.Metadata {
			res.Metadata[k] = v
		}
	}
	return res
}
