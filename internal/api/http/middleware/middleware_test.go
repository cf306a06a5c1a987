package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/aegis/ratelimit"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJwtAuth_Build(t *testing.T) {
	t.Parallel()
	auth := NewJwtAuth("test-key")
	valid, err := auth.Encode(jwt.MapClaims{"sub": "ops"})
	require.NoError(t, err)
	expired, err := auth.Encode(jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.NoError(t, err)
	other, err := NewJwtAuth("other-key").Encode(nil)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "合法令牌", header: "Bearer " + valid, wantCode: http.StatusOK},
		{name: "没有前缀", header: valid, wantCode: http.StatusOK},
		{name: "缺少令牌", header: "", wantCode: http.StatusUnauthorized},
		{name: "令牌过期", header: "Bearer " + expired, wantCode: http.StatusUnauthorized},
		{name: "签名不匹配", header: "Bearer " + other, wantCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			engine := gin.New()
			engine.GET("/ping", auth.Build(), func(ctx *gin.Context) {
				claims, ok := ctx.Get(ClaimsKey)
				require.True(t, ok)
				assert.Equal(t, "ops", claims.(jwt.MapClaims)["sub"])
				ctx.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()
			engine.ServeHTTP(recorder, req)
			assert.Equal(t, tc.wantCode, recorder.Code)
		})
	}
}

type fakeLimiter struct {
	err  error
	done int
}

func (f *fakeLimiter) Allow() (ratelimit.DoneFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(ratelimit.DoneInfo) {
		f.done++
	}, nil
}

func TestLimiterBuilder(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		limiter  *fakeLimiter
		wantCode int
		wantDone int
	}{
		{name: "放行", limiter: &fakeLimiter{}, wantCode: http.StatusOK, wantDone: 1},
		{name: "限流", limiter: &fakeLimiter{err: errors.New("limit exceed")}, wantCode: http.StatusTooManyRequests},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			engine := gin.New()
			engine.POST("/jobs", NewLimiterBuilder(tc.limiter).Build(), func(ctx *gin.Context) {
				ctx.Status(http.StatusOK)
			})
			recorder := httptest.NewRecorder()
			engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/jobs", nil))
			assert.Equal(t, tc.wantCode, recorder.Code)
			assert.Equal(t, tc.wantDone, tc.limiter.done)
		})
	}
}
