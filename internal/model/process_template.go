package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceDateMode 参考日期模式
const (
	// ReferenceModeCreation 以创建时刻为日期计算基准
	ReferenceModeCreation = "creation"
)

// TemplateScope 模板作用域
type TemplateScope string

const (
	// ScopeLocal 公司本地模板
	ScopeLocal TemplateScope = "local"
	// ScopeStandard 全局标准模板,对所有公司可见
	ScopeStandard TemplateScope = "standard"
)

// ProcessTemplateModel 流程模板数据模型
// 本地模板归属单个公司;标准模板不绑定公司,通过全局部门引用
// 在实例化时解析到调用方公司的对应部门
type ProcessTemplateModel struct {
	ID                        string     `gorm:"primaryKey;type:varchar(36)"`
	Name                      string     `gorm:"type:varchar(255);not null"`
	Description               string     `gorm:"type:text"`
	TargetOffsetDays          *int       `gorm:"not null"`
	DeadlineOffsetDays        *int       `gorm:"not null"`
	CompanyID                 *string    `gorm:"type:varchar(36);index"`
	DepartmentID              *string    `gorm:"type:varchar(36);index"`
	OwnerID                   *string    `gorm:"type:varchar(36)"`
	ReferenceDateMode         string     `gorm:"type:varchar(32);not null;default:creation"`
	NotifyOnOpen              bool       `gorm:"not null;default:false"`
	NotifyOnFinalize          bool       `gorm:"not null;default:false"`
	AllowFinishBeforeChildren bool       `gorm:"not null;default:false"`
	IsGlobalStandard          bool       `gorm:"not null;default:false;index"`
	GlobalDepartmentRef       *string    `gorm:"type:varchar(36);index"`
	CreatedAt                 time.Time  `gorm:"not null"`
	UpdatedAt                 time.Time  `gorm:"not null"`
	CreatedBy                 string     `gorm:"type:varchar(64)"`
}

// TableName 指定表名
func (ProcessTemplateModel) TableName() string {
	return "process_templates"
}

// BeforeCreate 生成 UUID
func (m *ProcessTemplateModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Scope 返回模板的作用域
func (m *ProcessTemplateModel) Scope() TemplateScope {
	if m.IsGlobalStandard {
		return ScopeStandard
	}
	return ScopeLocal
}

// VisibleTo 判断模板对指定公司是否可见
// 标准模板对所有公司可见,本地模板仅对归属公司可见
func (m *ProcessTemplateModel) VisibleTo(companyID string) bool {
	if m.IsGlobalStandard {
		return true
	}
	return m.CompanyID != nil && *m.CompanyID == companyID
}

// Validate 验证模板模型
func (m *ProcessTemplateModel) Validate() error {
	if m.Name == "" {
		return errors.New("template name is required")
	}
	if m.TargetOffsetDays == nil || *m.TargetOffsetDays < 0 {
		return errors.New("target offset is required and must not be negative")
	}
	if m.DeadlineOffsetDays == nil || *m.DeadlineOffsetDays < 0 {
		return errors.New("deadline offset is required and must not be negative")
	}
	if m.IsGlobalStandard {
		if m.GlobalDepartmentRef == nil || *m.GlobalDepartmentRef == "" {
			return errors.New("standard template requires a global department ref")
		}
		if m.CompanyID != nil || m.DepartmentID != nil || m.OwnerID != nil {
			return errors.New("standard template must not carry company-local fields")
		}
		return nil
	}
	if m.CompanyID == nil || *m.CompanyID == "" {
		return errors.New("local template requires a company ID")
	}
	return nil
}
