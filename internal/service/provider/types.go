package provider

import (
	"context"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
)

// Message 渲染完成、发往单个收件人的消息
type Message struct {
	JobID        uint64
	TrackingID   string
	TemplateName domain.TemplateName
	Recipient    string
	Subject      string
	HTML         string
	Text         string
}

// Provider 供应商接口。
// 返回的错误需要能被 errs.Classify 区分：收件人错误和永久拒绝返回 errs.ErrInvalidRecipient 或 *errs.ProviderError(Permanent)，
// 其余错误一律视为可重试
//
//go:generate mockgen -source=./types.go -destination=./mocks/provider.mock.go -package=providermocks -typed Provider
type Provider interface {
	// Name 供应商名称，用于指标和日志
	Name() string
	// Send 发送消息
	Send(ctx context.Context, msg Message) error
}
