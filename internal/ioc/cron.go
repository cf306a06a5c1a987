package ioc

import (
	"context"

	"gitee.com/flycash/notification-dispatcher/internal/service/metrics"
	"github.com/gotomicro/ego/core/elog"
	"github.com/gotomicro/ego/task/ecron"
)

func Crons(recorder *metrics.Recorder) []ecron.Ecron {
	sweep := ecron.Load("cron.metricsSweep").Build(ecron.WithJob(func(_ context.Context) error {
		n := recorder.Sweep()
		elog.DefaultLogger.Info("清理过期投递记录", elog.Int("removed", n))
		return nil
	}))
	return []ecron.Ecron{sweep}
}
