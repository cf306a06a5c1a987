package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/aegis/ratelimit"
	"github.com/gotomicro/ego/core/elog"
)

// LimiterBuilder 根据系统负载自适应地拒绝入队请求
type LimiterBuilder struct {
	limiter ratelimit.Limiter
	logger  *elog.Component
}

func NewLimiterBuilder(limiter ratelimit.Limiter) *LimiterBuilder {
	return &LimiterBuilder{
		limiter: limiter,
		logger:  elog.DefaultLogger,
	}
}

func (b *LimiterBuilder) Build() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		done, err := b.limiter.Allow()
		if err != nil {
			b.logger.Warn("入队请求被限流", elog.String("path", ctx.FullPath()), elog.FieldErr(err))
			ctx.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		ctx.Next()
		done(ratelimit.DoneInfo{})
	}
}
