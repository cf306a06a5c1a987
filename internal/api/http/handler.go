package http

import (
	"errors"
	"net/http"
	"strconv"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"gitee.com/flycash/notification-dispatcher/internal/service/admin"
	"gitee.com/flycash/notification-dispatcher/internal/service/metrics"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"
	"github.com/gotomicro/ego/core/elog"
)

// Handler 管理接口
type Handler struct {
	svc    *admin.Service
	logger *elog.Component
}

func NewHandler(svc *admin.Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: elog.DefaultLogger,
	}
}

// PrivateRoutes auth 作用于全部接口，limiter 只作用于入队接口
func (h *Handler) PrivateRoutes(server *gin.Engine, auth, limiter gin.HandlerFunc) {
	g := server.Group("/", auth)

	jobs := g.Group("/jobs")
	jobs.POST("/immediate", limiter, h.EnqueueImmediate)
	jobs.POST("/scheduled", limiter, h.EnqueueScheduled)
	jobs.POST("/bulk", limiter, h.EnqueueBulk)
	jobs.POST("/:id/retry", h.RetryDeadLetter)
	jobs.GET("/dead", h.DeadLetters)

	g.POST("/lanes/:lane/pause", h.PauseLane)
	g.POST("/lanes/:lane/resume", h.ResumeLane)
	g.GET("/health", h.Health)
	g.GET("/stats", h.SystemStats)
	g.GET("/alerts", h.Alerts)
	g.POST("/events", h.RecordEvent)
	g.DELETE("/templates/cache", h.ClearTemplateCache)
}

func (h *Handler) EnqueueImmediate(ctx *gin.Context) {
	var req admin.SendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, errs.ErrInvalidParameter, err)
		return
	}
	er, err := req.EnqueueRequest()
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	job, err := h.svc.EnqueueImmediate(ctx.Request.Context(), er)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[Job]{Msg: "OK", Data: newJob(job)})
}

func (h *Handler) EnqueueScheduled(ctx *gin.Context) {
	var req admin.SendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, errs.ErrInvalidParameter, err)
		return
	}
	er, err := req.EnqueueRequest()
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	job, err := h.svc.EnqueueScheduled(ctx.Request.Context(), er, req.ScheduleOption())
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[Job]{Msg: "OK", Data: newJob(job)})
}

func (h *Handler) EnqueueBulk(ctx *gin.Context) {
	var req admin.SendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.fail(ctx, errs.ErrInvalidParameter, err)
		return
	}
	er, err := req.EnqueueRequest()
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	jobs, err := h.svc.EnqueueBulk(ctx.Request.Context(), er)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[BulkResp]{Msg: "OK", Data: BulkResp{
		TrackingID: jobs[0].TrackingID,
		Jobs: slice.Map(jobs, func(_ int, src domain.Job) Job {
			return newJob(src)
		}),
	}})
}

func (h *Handler) RetryDeadLetter(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		h.fail(ctx, errs.ErrInvalidParameter, err)
		return
	}
	job, err := h.svc.RetryDeadLetter(ctx.Request.Context(), id)
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[Job]{Msg: "OK", Data: newJob(job)})
}

func (h *Handler) DeadLetters(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, Result[[]Job]{Msg: "OK", Data: slice.Map(h.svc.DeadLetters(), func(_ int, src domain.Job) Job {
		return newJob(src)
	})})
}

func (h *Handler) PauseLane(ctx *gin.Context) {
	h.setPaused(ctx, true)
}

func (h *Handler) ResumeLane(ctx *gin.Context) {
	h.setPaused(ctx, false)
}

func (h *Handler) setPaused(ctx *gin.Context, paused bool) {
	lane, err := domain.ParseLane(ctx.Param("lane"))
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	if paused {
		err = h.svc.PauseLane(ctx.Request.Context(), lane)
	} else {
		err = h.svc.ResumeLane(ctx.Request.Context(), lane)
	}
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[any]{Msg: "OK"})
}

// Health 不健康时同样返回 200，由调用方看 status 字段
func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, Result[admin.Health]{Msg: "OK", Data: h.svc.Health()})
}

func (h *Handler) SystemStats(ctx *gin.Context) {
	template := domain.TemplateName(ctx.Query("template"))
	ctx.JSON(http.StatusOK, Result[metrics.SystemStats]{Msg: "OK", Data: h.svc.SystemStats(template)})
}

func (h *Handler) Alerts(ctx *gin.Context) {
	alerts := h.svc.Alerts()
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	ctx.JSON(http.StatusOK, Result[[]domain.Alert]{Msg: "OK", Data: alerts})
}

func (h *Handler) RecordEvent(ctx *gin.Context) {
	var ev metrics.ProviderEvent
	if err := ctx.ShouldBindJSON(&ev); err != nil {
		h.fail(ctx, errs.ErrInvalidParameter, err)
		return
	}
	if err := h.svc.RecordEvent(ev); err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, Result[any]{Msg: "OK"})
}

func (h *Handler) ClearTemplateCache(ctx *gin.Context) {
	h.svc.ClearTemplateCache()
	ctx.JSON(http.StatusOK, Result[any]{Msg: "OK"})
}

// fail 按错误类型转换成 HTTP 状态码，cause 只进日志
func (h *Handler) fail(ctx *gin.Context, err, cause error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("管理接口处理失败",
			elog.String("path", ctx.FullPath()),
			elog.FieldErr(err))
	} else if cause != nil {
		h.logger.Warn("管理接口参数错误",
			elog.String("path", ctx.FullPath()),
			elog.FieldErr(cause))
	}
	msg := err.Error()
	if cause != nil {
		msg += ": " + cause.Error()
	}
	ctx.JSON(code, Result[any]{Code: code, Msg: msg})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter),
		errors.Is(err, errs.ErrUnknownTemplate),
		errors.Is(err, errs.ErrInvalidPayload),
		errors.Is(err, errs.ErrUnknownLane):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrDuplicateTrackingID):
		return http.StatusConflict
	case errors.Is(err, errs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrJobNotDeadLettered):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
