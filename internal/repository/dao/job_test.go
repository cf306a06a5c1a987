package dao

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestJobDAO_Create(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "创建成功",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `delivery_jobs`")).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "主键冲突",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `delivery_jobs`")).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
			},
			wantErr: errs.ErrJobDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			tc.mock(mock)

			d := NewJobDAO(db)
			job, err := d.Create(context.Background(), Job{
				ID:           1,
				TrackingID:   "t-1",
				Recipients:   `["a@example.com"]`,
				TemplateName: "rent_reminder",
				Payload:      "{}",
				Lane:         "IMMEDIATE",
				OriginLane:   "IMMEDIATE",
				MaxAttempts:  3,
				ScheduledFor: time.Now().UnixMilli(),
				Status:       jobStatusPending,
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, job.Version)
			assert.NotZero(t, job.Ctime)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobDAO_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `delivery_jobs` WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewJobDAO(db).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, errs.ErrJobNotFound)
}

func TestJobDAO_Claim(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "领取成功", affected: 1},
		{name: "已被其他实例领取", affected: 0, wantErr: errs.ErrJobClaimed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_jobs` SET")).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := NewJobDAO(db).Claim(context.Background(), 1, 3, time.Now().UnixMilli())
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobDAO_Touch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "刷新成功", affected: 1},
		{name: "领取已被回收", affected: 0, wantErr: errs.ErrJobVersionMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_jobs` SET `claimed_at`=?")).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			err := NewJobDAO(db).Touch(context.Background(), 1, 4, 1000)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobDAO_Update_VersionMismatch(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_jobs` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewJobDAO(db).Update(context.Background(), Job{ID: 1, Version: 2, Status: jobStatusDead})
	assert.ErrorIs(t, err, errs.ErrJobVersionMismatch)
}

func TestJobDAO_ResetStaleClaims(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `delivery_jobs`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `delivery_jobs` SET")).
		WillReturnResult(sqlmock.NewResult(0, 2))

	cnt, err := NewJobDAO(db).ResetStaleClaims(context.Background(), time.Now().UnixMilli(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
