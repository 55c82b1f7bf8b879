package database

import (
	"context"
	"fmt"
	"time"

	"github.com/contabhub/onety-sub007/internal/config"
	"github.com/contabhub/onety-sub007/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
// driver 为 sqlite 时使用本地文件(或 :memory:),否则连接 PostgreSQL
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.Driver == "sqlite" {
		path := cfg.Path
		if path == "" {
			path = "onety.db"
		}
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(BuildDSN(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数,如果没有配置则使用默认值
	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试,等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.DepartmentModel{},
		&model.ProcessTemplateModel{},
		&model.ChecklistItemTemplateModel{},
		&model.TemplateLinkModel{},
		&model.TaskModel{},
		&model.TaskChecklistItemModel{},
		&model.AuditLogModel{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// process_templates 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_templates_company_standard ON process_templates(company_id, is_global_standard)").Error; err != nil {
		return fmt.Errorf("failed to create idx_templates_company_standard: %w", err)
	}

	// checklist_item_templates 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_checklist_templates_order ON checklist_item_templates(template_id, order_index)").Error; err != nil {
		return fmt.Errorf("failed to create idx_checklist_templates_order: %w", err)
	}

	// tasks 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_parent_status ON tasks(parent_task_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_parent_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_tasks_company_status ON tasks(company_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_tasks_company_status: %w", err)
	}

	// task_checklist_items 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_task_items_template ON task_checklist_items(item_template_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_task_items_template: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}

	return nil
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
