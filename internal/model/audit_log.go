package model

import (
	"errors"
	"time"
)

// AuditLogModel 审计日志数据模型
type AuditLogModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	UserID       string    `gorm:"type:varchar(64);not null;index"`
	Action       string    `gorm:"type:varchar(64);not null;index"` // create/update/delete/complete/cancel/reopen
	ResourceType string    `gorm:"type:varchar(32);not null"`       // template/task/checklist_item
	ResourceID   string    `gorm:"type:varchar(64);not null;index"`
	RequestID    string    `gorm:"type:varchar(64);index"`
	IP           string    `gorm:"type:varchar(45)"`
	Details      []byte    `gorm:"type:json"` // 操作详情
	CreatedAt    time.Time `gorm:"not null;index"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// Validate 验证审计日志模型
func (m *AuditLogModel) Validate() error {
	if m.ID == "" {
		return errors.New("audit log ID is required")
	}
	if m.UserID == "" {
		return errors.New("user ID is required")
	}
	if m.Action == "" {
		return errors.New("action is required")
	}
	if m.ResourceType == "" {
		return errors.New("resource type is required")
	}
	if m.ResourceID == "" {
		return errors.New("resource ID is required")
	}
	return nil
}
