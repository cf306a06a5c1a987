package idempotent

import "context"

//go:generate mockgen -source=./type.go -package=idempotentmocks -destination=./mocks/idempotent.mock.go -typed Service
type Service interface {
	// Reserve 第一次出现的 key 返回 true，重复的 key 返回 false
	Reserve(ctx context.Context, key string) (bool, error)
	// MReserve 结果和 keys 一一对应
	MReserve(ctx context.Context, keys ...string) ([]bool, error)
	// Release 入队失败之后释放，让调用方可以用同一个 key 重试
	Release(ctx context.Context, keys ...string) error
}
