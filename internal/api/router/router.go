package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guardpost/backend/config"
	"guardpost/backend/internal/api/handler"
	"guardpost/backend/internal/api/middleware"
	"guardpost/backend/pkg/jwt"
	"guardpost/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20)) // 1MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限流防爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.List)
				shifts.GET("/export", middleware.RoleAuth("admin", "dispatcher"), h.Shift.ExportRoster)
				shifts.GET("/:id", h.Shift.Get)
				shifts.POST("", middleware.RoleAuth("admin", "dispatcher"), h.Shift.Create)
				shifts.POST("/recurring", middleware.RoleAuth("admin", "dispatcher"), h.Shift.CreateRecurring)
				shifts.DELETE("/:id", middleware.RoleAuth("admin", "dispatcher"), h.Shift.Delete)

				// 指派子资源
				shifts.GET("/:id/assignments", h.Assignment.ListByShift)
				shifts.POST("/:id/assignments", middleware.RoleAuth("admin", "dispatcher"), h.Assignment.Assign)
			}

			// 指派与考勤模块
			assignments := authorized.Group("/assignments")
			{
				assignments.DELETE("/:id", middleware.RoleAuth("admin", "dispatcher"), h.Assignment.Unassign)
				assignments.POST("/:id/check-in", h.Attendance.CheckIn)
				assignments.POST("/:id/check-out", h.Attendance.CheckOut)
				assignments.POST("/:id/no-show", middleware.RoleAuth("admin", "dispatcher"), h.Attendance.MarkNoShow)
			}

			// 队员排班订阅
			authorized.GET("/workers/:id/calendar.ics", h.Shift.WorkerCalendar)

			// 覆盖概览
			coverage := authorized.Group("/coverage")
			{
				coverage.GET("/today", middleware.RoleAuth("admin", "dispatcher"), h.Coverage.Today)
			}
		}
	}

	return r
}
