package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStaleClaimTask_HandleStaleClaims(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		resetN  int64
		resetEr error
		wantErr error
	}{
		{name: "没有超时任务", resetN: 0},
		{name: "数据库错误", resetEr: errors.New("mock db error"), wantErr: errors.New("mock db error")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			repo := permissiveRepo(ctrl)
			repo.EXPECT().ResetStaleClaims(gomock.Any(), gomock.Any(), 500).Return(tc.resetN, tc.resetEr)
			q, _ := newTestQueue(t, repo)

			task := NewStaleClaimTask(nil, q)
			task.interval = time.Millisecond
			err := task.HandleStaleClaims(context.Background())
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr.Error(), err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}
