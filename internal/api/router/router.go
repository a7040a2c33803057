package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dash5s/backend/config"
	"dash5s/backend/internal/api/handler"
	"dash5s/backend/internal/api/middleware"
	"dash5s/backend/internal/model"
	"dash5s/backend/internal/service"
	"dash5s/backend/pkg/jwt"
	"dash5s/backend/pkg/metrics"
	"dash5s/backend/pkg/redis"
)

// 通用接口限流：每 IP 每路由每分钟
const (
	apiRateLimit  = 300
	apiRateWindow = time.Minute
)

// Deps 路由所需的协作者
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	Service *service.Service
	JWT     *jwt.Manager
	Redis   *redis.Client // 可为 nil
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg, h := d.Config, d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	if cfg.Feature.MetricsEnabled && d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	editors := middleware.RoleAuth(model.RoleEditor, model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(d.Redis, apiRateLimit, apiRateWindow))
	{
		// 认证模块（无需认证；登录按 IP 限流在 Service 层完成）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Redis))
		authorized.Use(middleware.VisitLog(d.Service.Admin))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 模块菜单
			authorized.GET("/modules", h.Module.ListActive)

			// 看板模块：区域、评分、检查表
			dashboard := authorized.Group("")
			dashboard.Use(middleware.RequireModule(d.Service.Module, service.ModuleDashboard))
			{
				dashboard.GET("/dashboard", h.Area.Dashboard)

				areas := dashboard.Group("/areas")
				{
					areas.GET("", h.Area.ListAreas)
					areas.GET("/:id", h.Area.GetArea)
					areas.GET("/:id/history", h.Area.GetHistory)
					areas.GET("/:id/chart", h.Area.GetScoreSeries)
					areas.GET("/:id/radar", h.Area.GetRadar)
					areas.POST("", adminOnly, h.Area.CreateArea)
					areas.PUT("/:id", adminOnly, h.Area.UpdateArea)
					areas.DELETE("/:id", adminOnly, h.Area.DeleteArea)
				}

				audits := dashboard.Group("/audits")
				{
					audits.POST("", editors, h.Audit.CreateAudit) // Service 层同样鉴权
					audits.GET("/:id", h.Audit.GetAudit)
					audits.GET("/:id/responses", h.Audit.ListResponses)
					audits.POST("/:id/responses", editors, h.Audit.RecordResponses)
				}

				checklists := dashboard.Group("/checklists")
				{
					checklists.GET("", h.Checklist.ListChecklists)
					checklists.GET("/:id", h.Checklist.GetChecklist)
					checklists.GET("/:id/tree", h.Checklist.GetTree)
					checklists.GET("/:id/assignments", h.Checklist.ListAssignments)
					checklists.POST("", adminOnly, h.Checklist.CreateChecklist)
					checklists.PUT("/:id", adminOnly, h.Checklist.UpdateChecklist)
					checklists.DELETE("/:id", adminOnly, h.Checklist.DeleteChecklist)
					checklists.POST("/:id/sections", adminOnly, h.Checklist.AddSection)
					checklists.POST("/:id/assignments", adminOnly, h.Checklist.Assign)
				}

				sections := dashboard.Group("/sections")
				{
					sections.DELETE("/:id", adminOnly, h.Checklist.DeleteSection)
					sections.POST("/:id/questions", adminOnly, h.Checklist.AddQuestion)
				}

				assignments := dashboard.Group("/assignments")
				{
					assignments.GET("", h.Checklist.GetForEntity)
					assignments.DELETE("/:id", adminOnly, h.Checklist.Unassign)
				}

				export := dashboard.Group("/export")
				{
					export.GET("/areas/:id", editors, h.Export.ExportAreaHistory)
				}
			}

			// 反馈模块
			feedback := authorized.Group("/feedback")
			feedback.Use(middleware.RequireModule(d.Service.Module, service.ModuleFeedback))
			{
				feedback.POST("", h.Feedback.Send)
				feedback.GET("/mine", h.Feedback.ListMine)
				feedback.GET("", adminOnly, h.Feedback.ListAll)
				feedback.PUT("/:id/status", adminOnly, h.Feedback.UpdateStatus)
			}

			// 管理模块
			admin := authorized.Group("/admin")
			admin.Use(adminOnly)
			{
				// 模块开关不受 admin 模块自身状态影响，否则停用后无法恢复
				admin.GET("/modules", h.Module.ListAll)
				admin.PUT("/modules/:id", h.Module.SetActive)

				console := admin.Group("")
				console.Use(middleware.RequireModule(d.Service.Module, service.ModuleAdmin))
				{
					console.GET("/overview", h.Admin.Overview)
					console.GET("/users", h.User.ListUsers)
					console.GET("/users/:id", h.User.GetUser)
					console.PUT("/users/:id/active", h.User.SetActive)
				}
			}
		}
	}

	return r
}
