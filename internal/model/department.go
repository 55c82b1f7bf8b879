package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DepartmentModel 部门数据模型
// global_ref 指向跨公司共享的全局部门,标准模板创建时
// 通过它把调用方的本地部门映射到全局引用
type DepartmentModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	CompanyID string    `gorm:"type:varchar(36);not null;index"`
	Name      string    `gorm:"type:varchar(255);not null"`
	GlobalRef *string   `gorm:"type:varchar(36);index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (DepartmentModel) TableName() string {
	return "departments"
}

// BeforeCreate 生成 UUID
func (m *DepartmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Validate 验证部门模型
func (m *DepartmentModel) Validate() error {
	if m.CompanyID == "" {
		return errors.New("department company ID is required")
	}
	if m.Name == "" {
		return errors.New("department name is required")
	}
	return nil
}
