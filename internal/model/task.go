package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskStatus 任务状态
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// TaskModel 任务数据模型
// template_id 可为空:来源模板被删除后置空,历史任务保持完整
// parent_task_id 非空时为子任务,子任务拥有独立的清单和状态机
type TaskModel struct {
	ID                        string         `gorm:"primaryKey;type:varchar(36)"`
	CompanyID                 *string        `gorm:"type:varchar(36);index"`
	DepartmentID              string         `gorm:"type:varchar(36);not null;index"`
	TemplateID                *string        `gorm:"type:varchar(36);index"`
	ClientID                  string         `gorm:"type:varchar(36);not null;index"`
	Subject                   string         `gorm:"type:varchar(255);not null"`
	Description               string         `gorm:"type:text"`
	ActionDate                *time.Time     `gorm:"index"`
	TargetDate                *time.Time     `gorm:"index"`
	DeadlineDate              *time.Time     `gorm:"index"`
	OwnerID                   string         `gorm:"type:varchar(36);index"`
	Attachments               datatypes.JSON `gorm:"type:json"` // 附件 ID 列表,内容不透明
	AllowFinishBeforeChildren bool           `gorm:"not null;default:false"`
	ParentTaskID              *string        `gorm:"type:varchar(36);index"`
	Status                    string         `gorm:"type:varchar(16);not null;default:open;index"`
	CompletedAt               *time.Time
	CanceledAt                *time.Time
	CreatedAt                 time.Time `gorm:"not null;index"`
	UpdatedAt                 time.Time `gorm:"not null"`
	CreatedBy                 string    `gorm:"type:varchar(64)"`
}

// TableName 指定表名
func (TaskModel) TableName() string {
	return "tasks"
}

// BeforeCreate 生成 UUID
func (m *TaskModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// IsTerminal 判断任务是否处于终态
func (m *TaskModel) IsTerminal() bool {
	return m.Status == StatusCompleted || m.Status == StatusCanceled
}

// VisibleTo 判断任务对指定公司是否可见
// 标准模板派生且无公司覆盖的任务 company_id 为空,对所有公司可见
func (m *TaskModel) VisibleTo(companyID string) bool {
	if m.CompanyID == nil {
		return true
	}
	return *m.CompanyID == companyID
}

// Validate 验证任务模型
func (m *TaskModel) Validate() error {
	if m.DepartmentID == "" {
		return errors.New("task department ID is required")
	}
	if m.ClientID == "" {
		return errors.New("task client ID is required")
	}
	if m.Subject == "" {
		return errors.New("task subject is required")
	}
	if m.Status != StatusOpen && m.Status != StatusCompleted && m.Status != StatusCanceled {
		return errors.New("invalid task status")
	}
	return nil
}
