package idempotent

import (
	"context"
	"time"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisService 用 SETNX 占位，key 在 ttl 之后过期
type RedisService struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisService(client redis.Cmdable, prefix string, ttl time.Duration) *RedisService {
	return &RedisService{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisService) Reserve(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, s.key(key), 1, s.ttl).Result()
}

func (s *RedisService) MReserve(ctx context.Context, keys ...string) ([]bool, error) {
	if len(keys) == 0 {
		return nil, errors.New("empty keys")
	}
	pipe := s.client.Pipeline()
	cmds := slice.Map(keys, func(_ int, src string) *redis.BoolCmd {
		return pipe.SetNX(ctx, s.key(src), 1, s.ttl)
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "批量占位失败")
	}
	return slice.Map(cmds, func(_ int, src *redis.BoolCmd) bool {
		return src.Val()
	}), nil
}

func (s *RedisService) Release(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, slice.Map(keys, func(_ int, src string) string {
		return s.key(src)
	})...).Err()
}

func (s *RedisService) key(k string) string {
	return s.prefix + k
}
