package domain

import (
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/robfig/cron/v3"
)

// Schedule 周期调度描述，只负责计算下一次触发时间
type Schedule interface {
	// Next 返回 after 之后的下一次触发时间，零值表示不再触发
	Next(after time.Time) time.Time
	// Expr 持久化用的表达式
	Expr() string
}

// ScheduleOption 定时入队的三选一参数
type ScheduleOption struct {
	Delay time.Duration
	At    time.Time
	Cron  string
}

func (o ScheduleOption) Validate() error {
	cnt := 0
	if o.Delay > 0 {
		cnt++
	}
	if !o.At.IsZero() {
		cnt++
	}
	if o.Cron != "" {
		cnt++
	}
	if cnt != 1 {
		return fmt.Errorf("%w: delay、at、cron 必须且只能指定一个", errs.ErrInvalidParameter)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: Delay = %s", errs.ErrInvalidParameter, o.Delay)
	}
	return nil
}

// cronSchedule 基于 robfig/cron 的标准五段式表达式，也支持 @every、@daily 等描述符
type cronSchedule struct {
	expr  string
	sched cron.Schedule
}

// ParseSchedule 唯一的表达式解析入口
func ParseSchedule(expr string) (Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: cron = %q, %w", errs.ErrInvalidParameter, expr, err)
	}
	return cronSchedule{expr: expr, sched: s}, nil
}

func (c cronSchedule) Next(after time.Time) time.Time {
	return c.sched.Next(after)
}

func (c cronSchedule) Expr() string {
	return c.expr
}
