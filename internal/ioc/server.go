package ioc

import (
	httpapi "gitee.com/flycash/notification-dispatcher/internal/api/http"
	"gitee.com/flycash/notification-dispatcher/internal/api/http/middleware"
	"github.com/go-kratos/aegis/ratelimit/bbr"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/server/egin"
)

func InitGinServer(handler *httpapi.Handler) *egin.Component {
	type Config struct {
		Key string `yaml:"key"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("jwt", &cfg); err != nil {
		panic(err)
	}
	server := egin.Load("server.http").Build()
	handler.PrivateRoutes(server.Engine,
		middleware.NewJwtAuth(cfg.Key).Build(),
		middleware.NewLimiterBuilder(bbr.NewLimiter()).Build(),
	)
	return server
}
