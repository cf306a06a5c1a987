package main

import (
	"context"
	"time"

	"gitee.com/flycash/notification-dispatcher/cmd/platform/ioc"
	prodioc "gitee.com/flycash/notification-dispatcher/internal/ioc"
	"github.com/gotomicro/ego"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/server/egovernor"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	// 必须先初始化 ego，配置才会被加载
	app := ego.New(ego.WithBeforeStopClean(func() error {
		stop()
		return nil
	}))

	tp := prodioc.InitZipkinTracer()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			elog.Error("Shutdown zipkinTracer", elog.FieldErr(err))
		}
	}()

	dispatcher := ioc.InitApp()

	// 先恢复上一次运行遗留的任务，再启动 worker
	restoreCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	cnt, err := dispatcher.Queue.Restore(restoreCtx)
	cancel()
	if err != nil {
		elog.Panic("恢复任务失败", elog.FieldErr(err))
	}
	elog.Info("恢复任务完成", elog.Int("count", cnt))

	dispatcher.StartTasks(ctx)

	if err = app.Serve(
		egovernor.Load("server.governor").Build(),
		dispatcher.Server,
	).Cron(dispatcher.Crons...).Run(); err != nil {
		elog.Panic("startup", elog.FieldErr(err))
	}
}
