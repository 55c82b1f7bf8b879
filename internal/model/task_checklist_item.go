package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistItemSource 清单项展示字段的来源
type ChecklistItemSource string

const (
	// SourceLive 展示字段实时来自模板清单项
	SourceLive ChecklistItemSource = "live"
	// SourceFrozen 展示字段来自模板删除时固化的副本
	SourceFrozen ChecklistItemSource = "frozen"
)

// TaskChecklistItemModel 任务清单项数据模型
// 创建任务时按模板清单逐行生成,之后不再与模板同步
// item_template_id 非空时展示字段通过模板解析;模板项被删除前,
// 其 type/text/description/cancel_policy 会先固化到本行再清空引用
type TaskChecklistItemModel struct {
	ID                 string  `gorm:"primaryKey;type:varchar(36)"`
	TaskID             string  `gorm:"type:varchar(36);not null;index"`
	ItemTemplateID     *string `gorm:"type:varchar(36);index"`
	ItemType           string  `gorm:"type:varchar(32)"`
	Text               string  `gorm:"type:varchar(255)"`
	Description        string  `gorm:"type:text"`
	CancelPolicy       string  `gorm:"type:varchar(32)"`
	Done               bool    `gorm:"not null;default:false"`
	Canceled           bool    `gorm:"not null;default:false"`
	Justification      string  `gorm:"type:text"`
	CanceledAt         *time.Time
	CompletedAt        *time.Time
	CompletedBy        string    `gorm:"type:varchar(255)"` // 操作者显示名快照,非外键
	AttachmentPayload  []byte    `gorm:"type:blob"`
	AttachmentFilename string    `gorm:"type:varchar(255)"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName 指定表名
func (TaskChecklistItemModel) TableName() string {
	return "task_checklist_items"
}

// BeforeCreate 生成 UUID
func (m *TaskChecklistItemModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Validate 验证任务清单项
func (m *TaskChecklistItemModel) Validate() error {
	if m.TaskID == "" {
		return errors.New("checklist item task ID is required")
	}
	if m.ItemTemplateID == nil && m.Text == "" {
		return errors.New("detached checklist item requires frozen text")
	}
	return nil
}

// ChecklistItemView 清单项的读取视图
// Live(模板引用) 与 Frozen(固化副本) 在这里收敛为同一个标记结构,
// 调用方不需要关心 COALESCE 式的解析逻辑
type ChecklistItemView struct {
	ID                 string              `json:"id"`
	TaskID             string              `json:"task_id"`
	Source             ChecklistItemSource `json:"source"`
	ItemTemplateID     *string             `json:"item_template_id,omitempty"`
	ItemType           string              `json:"item_type"`
	Text               string              `json:"text"`
	Description        string              `json:"description"`
	CancelPolicy       string              `json:"cancel_policy"`
	Done               bool                `json:"done"`
	Canceled           bool                `json:"canceled"`
	Justification      string              `json:"justification,omitempty"`
	CanceledAt         *time.Time          `json:"canceled_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CompletedBy        string              `json:"completed_by,omitempty"`
	HasAttachment      bool                `json:"has_attachment"`
	AttachmentFilename string              `json:"attachment_filename,omitempty"`
}

// View 解析清单项的展示字段
// 引用仍在且模板项可得时走 Live,否则使用固化副本
func (m *TaskChecklistItemModel) View(tpl *ChecklistItemTemplateModel) ChecklistItemView {
	v := ChecklistItemView{
		ID:                 m.ID,
		TaskID:             m.TaskID,
		ItemTemplateID:     m.ItemTemplateID,
		Done:               m.Done,
		Canceled:           m.Canceled,
		Justification:      m.Justification,
		CanceledAt:         m.CanceledAt,
		CompletedAt:        m.CompletedAt,
		CompletedBy:        m.CompletedBy,
		HasAttachment:      len(m.AttachmentPayload) > 0,
		AttachmentFilename: m.AttachmentFilename,
	}
	if m.ItemTemplateID != nil && tpl != nil {
		v.Source = SourceLive
		v.ItemType = tpl.ItemType
		v.Text = tpl.Text
		v.Description = tpl.Description
		v.CancelPolicy = tpl.CancelPolicy
		return v
	}
	v.Source = SourceFrozen
	v.ItemType = m.ItemType
	v.Text = m.Text
	v.Description = m.Description
	v.CancelPolicy = m.CancelPolicy
	return v
}
