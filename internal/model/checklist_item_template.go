package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CancelPolicy 清单项的取消策略
const (
	// CancelPolicyWithJustification 取消时要求填写理由
	CancelPolicyWithJustification = "with_justification"
	// CancelPolicyFree 取消无需理由
	CancelPolicyFree = "free"
)

// ChecklistItemTemplateModel 模板清单项数据模型
// 同一模板内按 order_index 排序,顺序保持从 1 开始连续
type ChecklistItemTemplateModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	TemplateID   string    `gorm:"type:varchar(36);not null;index"`
	OrderIndex   int       `gorm:"not null"`
	ItemType     string    `gorm:"type:varchar(32)"`
	Text         string    `gorm:"type:varchar(255);not null"`
	CancelPolicy string    `gorm:"type:varchar(32);not null;default:with_justification"`
	Description  string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ChecklistItemTemplateModel) TableName() string {
	return "checklist_item_templates"
}

// BeforeCreate 生成 UUID
func (m *ChecklistItemTemplateModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Validate 验证模板清单项
func (m *ChecklistItemTemplateModel) Validate() error {
	if m.TemplateID == "" {
		return errors.New("checklist item template ID is required")
	}
	if m.Text == "" {
		return errors.New("checklist item text is required")
	}
	if m.OrderIndex < 1 {
		return errors.New("checklist item order must start at 1")
	}
	return nil
}
