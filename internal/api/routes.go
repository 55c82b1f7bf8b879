package api

import (
	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/config"
	"github.com/contabhub/onety-sub007/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes 配置路由
func SetupRoutes(
	cfg *config.Config,
	logger *logrus.Logger,
	hub *websocket.Hub,
	validator *auth.TokenValidator,
	db *gorm.DB,
	templateController *TemplateController,
	taskController *TaskController,
) *gin.Engine {
	if cfg != nil && config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware(logger))
	router.Use(SecurityHeadersMiddleware())
	if cfg != nil {
		router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
		if cfg.RateLimit.RPS > 0 {
			router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	router.Use(ErrorHandlerMiddleware())

	// 健康检查
	healthController := NewHealthController(db)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	// WebSocket 任务事件订阅
	if hub != nil && validator != nil {
		router.GET("/ws/tasks", websocket.Handler(hub, validator))
	}

	// API v1 路由组,全部要求认证
	v1 := router.Group("/api/v1")
	if validator != nil {
		v1.Use(auth.Middleware(validator))
	}
	{
		// 模板管理路由
		templates := v1.Group("/templates")
		{
			templates.POST("", templateController.Create)
			templates.GET("", templateController.List)
			templates.GET("/:id", templateController.Get)
			templates.PUT("/:id", templateController.Update)
			templates.DELETE("/:id", templateController.Delete)
			templates.GET("/:id/checklist", templateController.GetChecklist)
			templates.POST("/:id/checklist", templateController.AppendChecklistItem)
			templates.POST("/:id/checklist/reorder", templateController.ReorderChecklist)
			templates.DELETE("/:id/checklist/:item_id", templateController.DeleteChecklistItem)
			templates.GET("/:id/links", templateController.ListLinks)
			templates.POST("/:id/links/:child_id", templateController.AddLink)
			templates.DELETE("/:id/links/:child_id", templateController.RemoveLink)
		}

		// 任务管理路由
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", taskController.Create)
			tasks.GET("", taskController.List)
			tasks.GET("/:id", taskController.Get)
			tasks.GET("/:id/children", taskController.ListChildren)
			tasks.POST("/:id/complete", taskController.Complete)
			tasks.POST("/:id/cancel", taskController.Cancel)
			tasks.POST("/:id/reopen", taskController.Reopen)
			tasks.GET("/:id/checklist", taskController.GetChecklist)
			tasks.POST("/:id/checklist/:item_id/done", taskController.MarkItemDone)
			tasks.DELETE("/:id/checklist/:item_id/done", taskController.UnmarkItemDone)
			tasks.POST("/:id/checklist/:item_id/cancel", taskController.CancelItem)
			tasks.DELETE("/:id/checklist/:item_id/cancel", taskController.UncancelItem)
			tasks.POST("/:id/checklist/:item_id/attachment", taskController.AttachItemFile)
			tasks.DELETE("/:id/checklist/:item_id/attachment", taskController.DetachItemFile)
		}
	}

	return router
}
