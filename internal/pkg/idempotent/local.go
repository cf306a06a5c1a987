package idempotent

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// LocalService 单实例部署或者测试使用，进程重启之后失效
type LocalService struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewLocalService(ttl time.Duration) *LocalService {
	return &LocalService{
		cache: cache.New(ttl, ttl),
		ttl:   ttl,
	}
}

func (s *LocalService) Reserve(_ context.Context, key string) (bool, error) {
	// Add 在 key 存在时返回错误
	return s.cache.Add(key, struct{}{}, s.ttl) == nil, nil
}

func (s *LocalService) MReserve(ctx context.Context, keys ...string) ([]bool, error) {
	res := make([]bool, len(keys))
	for i, k := range keys {
		res[i], _ = s.Reserve(ctx, k)
	}
	return res, nil
}

func (s *LocalService) Release(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}
