package ioc

import (
	"context"
	"fmt"
	"strings"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/idempotent"
	"gitee.com/flycash/notification-dispatcher/internal/repository"
	"gitee.com/flycash/notification-dispatcher/internal/service/admin"
	"gitee.com/flycash/notification-dispatcher/internal/service/breaker"
	"gitee.com/flycash/notification-dispatcher/internal/service/delivery"
	"gitee.com/flycash/notification-dispatcher/internal/service/lanesync"
	"gitee.com/flycash/notification-dispatcher/internal/service/metrics"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider/console"
	providermetrics "gitee.com/flycash/notification-dispatcher/internal/service/provider/metrics"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider/sequential"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider/smtp"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider/tracing"
	"gitee.com/flycash/notification-dispatcher/internal/service/queue"
	"gitee.com/flycash/notification-dispatcher/internal/service/renderer"
	"gitee.com/flycash/notification-dispatcher/internal/service/worker"
	"github.com/ego-component/eetcd"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/sonyflake"
)

func InitIDGenerator() queue.IDGenerator {
	sf := sonyflake.NewSonyflake(sonyflake.Settings{})
	if sf == nil {
		panic("初始化 ID 生成器失败")
	}
	return sf
}

func InitRecorder() *metrics.Recorder {
	cfg := metrics.DefaultConfig()
	if err := econf.UnmarshalKey("metrics", &cfg); err != nil {
		panic(err)
	}
	r := metrics.NewRecorder(cfg)
	prometheus.MustRegister(metrics.NewCollector(r))
	return r
}

func InitQueue(repo repository.JobRepository, idGen queue.IDGenerator, recorder *metrics.Recorder) *queue.Queue {
	cfg := queue.DefaultConfig()
	if err := econf.UnmarshalKey("queue", &cfg); err != nil {
		panic(err)
	}
	q := queue.NewQueue(repo, idGen, recorder, cfg)
	prometheus.MustRegister(queue.NewCollector(q))
	return q
}

func InitRenderer() *renderer.Renderer {
	r, err := renderer.NewDefaultRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// InitProvider 按配置顺序组装供应商，多个供应商时依次降级
func InitProvider() provider.Provider {
	type Config struct {
		Providers []string    `yaml:"providers"`
		SMTP      smtp.Config `yaml:"smtp"`
	}
	cfg := Config{Providers: []string{"console"}}
	if err := econf.UnmarshalKey("provider", &cfg); err != nil {
		panic(err)
	}
	providers := make([]provider.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		var p provider.Provider
		switch name {
		case "smtp":
			p = smtp.NewProvider(cfg.SMTP)
		case "console":
			p = console.NewProvider()
		default:
			panic(fmt.Sprintf("未知的供应商 %s", name))
		}
		providers = append(providers, tracing.NewProvider(providermetrics.NewProvider(p, prometheus.DefaultRegisterer)))
	}
	if len(providers) == 1 {
		return providers[0]
	}
	return sequential.NewProvider(providers...)
}

func InitBreaker(p provider.Provider) *breaker.Breaker {
	cfg := breaker.DefaultConfig()
	if err := econf.UnmarshalKey("breaker", &cfg); err != nil {
		panic(err)
	}
	b := breaker.NewBreaker(p.Name(), cfg)
	prometheus.MustRegister(breaker.NewCollector(b))
	return b
}

func InitDeliveryClient(b *breaker.Breaker, r *renderer.Renderer, p provider.Provider) *delivery.Client {
	cfg := delivery.DefaultConfig()
	if err := econf.UnmarshalKey("delivery", &cfg); err != nil {
		panic(err)
	}
	return delivery.NewClient(b, r, p, cfg)
}

func InitWorkerPool(q *queue.Queue, client *delivery.Client, recorder *metrics.Recorder) *worker.Pool {
	cfg := worker.DefaultConfig()
	if err := econf.UnmarshalKey("worker", &cfg); err != nil {
		panic(err)
	}
	// 配置里的通道名不区分大小写
	workers := make(map[domain.Lane]int, len(cfg.Workers))
	for l, n := range cfg.Workers {
		workers[domain.Lane(strings.ToUpper(l.String()))] = n
	}
	cfg.Workers = workers
	return worker.NewPool(q, client, recorder, cfg)
}

func InitLaneSync(etcdClient *eetcd.Component, q *queue.Queue) *lanesync.Sync {
	return lanesync.NewSync(etcdClient, q, econf.GetString("lanes.etcdPrefix"))
}

func InitAdminService(
	q *queue.Queue,
	idem idempotent.Service,
	b *breaker.Breaker,
	pool *worker.Pool,
	recorder *metrics.Recorder,
	r *renderer.Renderer,
	sync *lanesync.Sync,
) *admin.Service {
	return admin.NewService(q, idem, b, pool, recorder, r).WithPublisher(sync)
}

// PoolTask 工作池退出之后记录日志
type PoolTask struct {
	pool *worker.Pool
}

func NewPoolTask(pool *worker.Pool) *PoolTask {
	return &PoolTask{pool: pool}
}

func (t *PoolTask) Start(ctx context.Context) {
	if err := t.pool.Start(ctx); err != nil {
		elog.DefaultLogger.Error("工作池异常退出", elog.FieldErr(err))
	}
}
