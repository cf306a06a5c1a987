package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	jobStatusPending = "PENDING"
	jobStatusClaimed = "CLAIMED"
	jobStatusDead    = "DEAD"
)

type JobDAO interface {
	Create(ctx context.Context, data Job) (Job, error)
	GetByID(ctx context.Context, id uint64) (Job, error)
	// Claim PENDING -> CLAIMED，基于 version 的 CAS
	Claim(ctx context.Context, id uint64, version int, claimedAt int64) error
	// Touch 刷新领取时间，不改 version
	Touch(ctx context.Context, id uint64, version int, claimedAt int64) error
	// Update 全量更新可变字段，基于 version 的 CAS
	Update(ctx context.Context, data Job) error
	// FindRestorable 查找重启后需要重新装载的任务
	FindRestorable(ctx context.Context, offset, limit int) ([]Job, error)
	// ResetStaleClaims 把领取时间早于 before 的任务重置为 PENDING
	ResetStaleClaims(ctx context.Context, before int64, batchSize int) (int64, error)
}

// Job 投递任务表
type Job struct {
	ID           uint64 `gorm:"primaryKey;comment:'雪花算法ID'"`
	TrackingID   string `gorm:"type:VARCHAR(256);NOT NULL;index:idx_tracking_id;comment:'调用方提供的追踪ID'"`
	Recipients   string `gorm:"type:TEXT;NOT NULL;comment:'收件人，JSON数组'"`
	TemplateName string `gorm:"type:VARCHAR(64);NOT NULL;comment:'模板名称'"`
	Payload      string `gorm:"type:TEXT;NOT NULL;comment:'模板数据，JSON'"`
	Lane         string `gorm:"type:ENUM('IMMEDIATE','SCHEDULED','BULK','RETRY','DEAD_LETTER');NOT NULL;index:idx_status_lane,priority:2;comment:'所在通道'"`
	OriginLane   string `gorm:"type:ENUM('IMMEDIATE','SCHEDULED','BULK','RETRY','DEAD_LETTER');NOT NULL;comment:'原始通道，决定最大尝试次数'"`
	Priority     int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'越小越优先'"`
	Attempt      int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'已尝试次数'"`
	MaxAttempts  int    `gorm:"type:INT;NOT NULL;comment:'最大尝试次数'"`
	ScheduledFor int64  `gorm:"column:scheduled_for;NOT NULL;comment:'最早可领取时间，毫秒'"`
	ScheduleExpr string `gorm:"type:VARCHAR(128);NOT NULL;DEFAULT:'';comment:'周期表达式'"`
	Metadata     string `gorm:"type:TEXT;comment:'透传元数据，JSON'"`
	Status       string `gorm:"type:ENUM('PENDING','CLAIMED','COMPLETED','DEAD');NOT NULL;DEFAULT:'PENDING';index:idx_status_lane,priority:1;index:idx_status_claimed,priority:1;comment:'任务状态'"`
	LastError    string `gorm:"type:TEXT;comment:'最近一次错误'"`
	ClaimedAt    int64  `gorm:"index:idx_status_claimed,priority:2;comment:'领取时间，毫秒'"`
	Version      int    `gorm:"type:INT;NOT NULL;DEFAULT:1;comment:'版本号，用于CAS操作'"`
	Ctime        int64
	Utime        int64
}

// TableName 重命名表
func (Job) TableName() string {
	return "delivery_jobs"
}

type jobDAO struct {
	db *egorm.Component
}

func NewJobDAO(db *egorm.Component) JobDAO {
	return &jobDAO{
		db: db,
	}
}

func (d *jobDAO) Create(ctx context.Context, data Job) (Job, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	data.Version = 1
	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if d.isUniqueConstraintError(err) {
			return Job{}, fmt.Errorf("%w: id=%d", errs.ErrJobDuplicate, data.ID)
		}
		return Job{}, err
	}
	return data, nil
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func (d *jobDAO) isUniqueConstraintError(err error) bool {
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}

func (d *jobDAO) GetByID(ctx context.Context, id uint64) (Job, error) {
	var job Job
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Job{}, fmt.Errorf("%w: id=%d", errs.ErrJobNotFound, id)
		}
		return Job{}, err
	}
	return job, nil
}

func (d *jobDAO) Claim(ctx context.Context, id uint64, version int, claimedAt int64) error {
	res := d.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND version = ? AND status = ?", id, version, jobStatusPending).
		Updates(map[string]any{
			"status":     jobStatusClaimed,
			"claimed_at": claimedAt,
			"version":    gorm.Expr("version + 1"),
			"utime":      time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("并发竞争失败 %w, id %d", errs.ErrJobClaimed, id)
	}
	return nil
}

func (d *jobDAO) Touch(ctx context.Context, id uint64, version int, claimedAt int64) error {
	res := d.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND version = ? AND status = ?", id, version, jobStatusClaimed).
		Updates(map[string]any{
			"claimed_at": claimedAt,
			"utime":      time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		// 领取已经被其他实例回收
		return fmt.Errorf("%w, id %d", errs.ErrJobVersionMismatch, id)
	}
	return nil
}

func (d *jobDAO) Update(ctx context.Context, data Job) error {
	res := d.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND version = ?", data.ID, data.Version).
		Updates(map[string]any{
			"lane":          data.Lane,
			"origin_lane":   data.OriginLane,
			"attempt":       data.Attempt,
			"max_attempts":  data.MaxAttempts,
			"scheduled_for": data.ScheduledFor,
			"status":        data.Status,
			"last_error":    data.LastError,
			"claimed_at":    data.ClaimedAt,
			"version":       gorm.Expr("version + 1"),
			"utime":         time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected < 1 {
		return fmt.Errorf("并发竞争失败 %w, id %d", errs.ErrJobVersionMismatch, data.ID)
	}
	return nil
}

func (d *jobDAO) FindRestorable(ctx context.Context, offset, limit int) ([]Job, error) {
	var res []Job
	err := d.db.WithContext(ctx).
		Where("status IN ?", []string{jobStatusPending, jobStatusClaimed, jobStatusDead}).
		Order("id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (d *jobDAO) ResetStaleClaims(ctx context.Context, before int64, batchSize int) (int64, error) {
	var ids []uint64
	err := d.db.WithContext(ctx).Model(&Job{}).
		Where("status = ? AND claimed_at <= ?", jobStatusClaimed, before).
		Limit(batchSize).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	res := d.db.WithContext(ctx).Model(&Job{}).
		Where("id IN ? AND status = ?", ids, jobStatusClaimed).
		Updates(map[string]any{
			"status":     jobStatusPending,
			"claimed_at": 0,
			"version":    gorm.Expr("version + 1"),
			"utime":      time.Now().UnixMilli(),
		})
	return res.RowsAffected, res.Error
}
