package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/textproto"
	"strconv"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/provider"
	"github.com/gotomicro/ego/core/elog"
	"gopkg.in/gomail.v2"
)

var _ provider.Provider = (*Provider)(nil)

type Config struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	SenderAddress      string `yaml:"senderAddress"`
	SenderName         string `yaml:"senderName"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

// Sender 发送一封已经构造好的邮件，*gomail.Dialer 满足这个接口
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Provider 通过 SMTP 发送邮件
type Provider struct {
	sender     Sender
	from       string
	senderName string
	logger     *elog.Component
}

func NewProvider(cfg Config) *Provider {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // 仅用于测试环境
	}
	return newProvider(d, cfg)
}

func newProvider(sender Sender, cfg Config) *Provider {
	from := cfg.SenderAddress
	if from == "" {
		from = "noreply@example.com"
	}
	name := cfg.SenderName
	if name == "" {
		name = "Notification"
	}
	return &Provider{
		sender:     sender,
		from:       from,
		senderName: name,
		logger:     elog.DefaultLogger,
	}
}

func (p *Provider) Name() string {
	return "smtp"
}

// Send gomail 不支持 context，超时由外层控制：ctx 结束时直接返回，后台的发送结果丢弃
func (p *Provider) Send(ctx context.Context, msg provider.Message) error {
	addr, err := mail.ParseAddress(msg.Recipient)
	if err != nil {
		return fmt.Errorf("%w: %s", errs.ErrInvalidRecipient, msg.Recipient)
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", p.from, p.senderName)
	m.SetAddressHeader("To", addr.Address, addr.Name)
	m.SetHeader("Subject", msg.Subject)
	if msg.TrackingID != "" {
		m.SetHeader("X-Tracking-Id", msg.TrackingID)
	}
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() {
		done <- p.sender.DialAndSend(m)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err = <-done:
	}
	if err != nil {
		p.logger.Warn("SMTP 发送失败",
			elog.String("recipient", addr.Address),
			elog.FieldErr(err))
		return classify(err)
	}
	return nil
}

// classify 5xx 是服务器明确拒绝，不再重试；4xx 和网络错误可以重试
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		code := strconv.Itoa(tpErr.Code)
		if tpErr.Code >= 500 {
			return errs.NewPermanentError("smtp", code, err)
		}
		return errs.NewTransientError("smtp", code, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.NewTransientError("smtp", "network", err)
	}
	return errs.NewTransientError("smtp", "unknown", err)
}
