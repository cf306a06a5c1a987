package ioc

import (
	"gitee.com/flycash/notification-dispatcher/internal/event/deadletter"
	"gitee.com/flycash/notification-dispatcher/internal/event/sendrequest"
	"gitee.com/flycash/notification-dispatcher/internal/service/lanesync"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
)

func InitTasks(t1 *PoolTask,
	t2 *queue.StaleClaimTask,
	t3 *lanesync.Sync,
	t4 *sendrequest.Consumer,
	t5 *deadletter.Consumer,
) []Task {
	return []Task{
		t1,
		t2,
		t3,
		t4,
		t5,
	}
}
