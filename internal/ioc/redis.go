package ioc

import (
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/pkg/idempotent"
	"gitee.com/flycash/notification-dispatcher/internal/pkg/redis/metrics"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	dlockRedis "github.com/meoying/dlock-go/redis"
	"github.com/redis/go-redis/v9"
)

func InitRedisClient() *redis.Client {
	type Config struct {
		Addr string
	}
	var cfg Config
	err := econf.UnmarshalKey("redis", &cfg)
	if err != nil {
		panic(err)
	}
	cmd := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	cmd = metrics.WithMetrics(cmd)
	return cmd
}

func InitDistributedLock(rdb *redis.Client) dlock.Client {
	return dlockRedis.NewClient(rdb)
}

// InitIdempotent 追踪ID去重
func InitIdempotent(rdb *redis.Client) idempotent.Service {
	type Config struct {
		Prefix string        `yaml:"prefix"`
		TTL    time.Duration `yaml:"ttl"`
	}
	cfg := Config{
		Prefix: "dispatcher:tracking:",
		TTL:    24 * time.Hour,
	}
	if err := econf.UnmarshalKey("idempotent", &cfg); err != nil {
		panic(err)
	}
	return idempotent.NewRedisService(rdb, cfg.Prefix, cfg.TTL)
}
