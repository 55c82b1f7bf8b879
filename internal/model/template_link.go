package model

import (
	"errors"
	"time"
)

// TemplateLinkModel 模板父子关联数据模型
// 关联是可能性目录:声明子模板可以在父模板实例化时被选中派生,
// 不是自动触发。允许自引用和环,派生只展开一层
type TemplateLinkModel struct {
	ParentTemplateID string    `gorm:"primaryKey;type:varchar(36)"`
	ChildTemplateID  string    `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName 指定表名
func (TemplateLinkModel) TableName() string {
	return "template_links"
}

// Validate 验证模板关联
func (m *TemplateLinkModel) Validate() error {
	if m.ParentTemplateID == "" {
		return errors.New("parent template ID is required")
	}
	if m.ChildTemplateID == "" {
		return errors.New("child template ID is required")
	}
	return nil
}
