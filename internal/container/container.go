package container

import (
	"fmt"
	"time"

	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/config"
	"github.com/contabhub/onety-sub007/internal/database"
	"github.com/contabhub/onety-sub007/internal/dates"
	"github.com/contabhub/onety-sub007/internal/metrics"
	"github.com/contabhub/onety-sub007/internal/notify"
	"github.com/contabhub/onety-sub007/internal/repository"
	"github.com/contabhub/onety-sub007/internal/service"
	"github.com/contabhub/onety-sub007/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库、仓储、服务和通知组件
type Container struct {
	db             *gorm.DB
	hub            *websocket.Hub
	validator      *auth.TokenValidator
	templateSvc    service.TemplateService
	taskSvc        service.TaskService
	auditLogSvc    service.AuditLogService
	departmentRepo repository.DepartmentRepository
	collector      *metrics.Collector
	logger         *logrus.Logger
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化仓储
	templateRepo := repository.NewTemplateRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 3. 初始化 WebSocket hub 和通知链
	hub := websocket.NewHub(logger)
	go hub.Run()
	notifier := notify.MultiNotifier{
		notify.NewLogNotifier(logger),
		notify.NewHubNotifier(hub),
	}
	hooks := notify.NewRunner(logger)

	// 4. 初始化服务
	auditLogSvc := service.NewAuditLogService(auditRepo)
	templateSvc := service.NewTemplateService(templateRepo, departmentRepo, db, auditLogSvc)
	taskSvc := service.NewTaskService(taskRepo, templateRepo, db, dates.SystemClock{}, notifier, hooks, auditLogSvc)

	// 5. 初始化 Token 验证器
	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret)

	// 6. 启动快照指标收集器
	collector := metrics.NewCollector(db, 15*time.Second)
	collector.Start()

	return &Container{
		db:             db,
		hub:            hub,
		validator:      validator,
		templateSvc:    templateSvc,
		taskSvc:        taskSvc,
		auditLogSvc:    auditLogSvc,
		departmentRepo: departmentRepo,
		collector:      collector,
		logger:         logger,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub 获取 WebSocket hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// TokenValidator 获取 Token 验证器
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.validator
}

// TemplateService 获取模板服务
func (c *Container) TemplateService() service.TemplateService {
	return c.templateSvc
}

// TaskService 获取任务服务
func (c *Container) TaskService() service.TaskService {
	return c.taskSvc
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogSvc
}

// DepartmentRepository 获取部门仓储
func (c *Container) DepartmentRepository() repository.DepartmentRepository {
	return c.departmentRepo
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.collector != nil {
		c.collector.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
