//go:build wireinject

package ioc

import (
	httpapi "gitee.com/flycash/notification-dispatcher/internal/api/http"
	"gitee.com/flycash/notification-dispatcher/internal/ioc"
	"gitee.com/flycash/notification-dispatcher/internal/repository"
	"gitee.com/flycash/notification-dispatcher/internal/repository/dao"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitDistributedLock,
		ioc.InitEtcdClient,
		ioc.InitIDGenerator,
		ioc.InitRedisClient,
		ioc.InitIdempotent,
		ioc.InitMQ,
	)
	queueSet = wire.NewSet(
		ioc.InitQueue,
		repository.NewJobRepository,
		dao.NewJobDAO,
		queue.NewStaleClaimTask,
	)
	deliverySet = wire.NewSet(
		ioc.InitRenderer,
		ioc.InitProvider,
		ioc.InitBreaker,
		ioc.InitDeliveryClient,
		ioc.InitRecorder,
		ioc.InitWorkerPool,
		ioc.NewPoolTask,
	)
	eventSet = wire.NewSet(
		ioc.InitDeadLetterProducer,
		ioc.InitDeadLetterConsumer,
		ioc.InitSendRequestConsumer,
	)
	adminSet = wire.NewSet(
		ioc.InitLaneSync,
		ioc.InitAdminService,
		httpapi.NewHandler,
		ioc.InitGinServer,
	)
)

func InitApp() *ioc.App {
	wire.Build(
		// 基础设施
		BaseSet,

		// 队列与投递
		queueSet,
		deliverySet,

		// 事件
		eventSet,

		// 管理接口
		adminSet,

		ioc.InitTasks,
		ioc.Crons,
		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App)
}
