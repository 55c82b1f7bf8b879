package repository

import (
	"github.com/contabhub/onety-sub007/internal/model"
	"gorm.io/gorm"
)

// TemplateRepository 流程模板仓储接口
type TemplateRepository interface {
	Save(tpl *model.ProcessTemplateModel) error
	FindByID(id string) (*model.ProcessTemplateModel, error)
	FindVisible(companyID string) ([]*model.ProcessTemplateModel, error)
	FindChecklist(templateID string) ([]*model.ChecklistItemTemplateModel, error)
	FindChecklistItem(id string) (*model.ChecklistItemTemplateModel, error)
	MaxChecklistOrder(templateID string) (int, error)
	SaveChecklistItem(item *model.ChecklistItemTemplateModel) error
	FindLinks(parentID string) ([]*model.TemplateLinkModel, error)
	SaveLink(link *model.TemplateLinkModel) error
	DeleteLink(parentID, childID string) error
}

// templateRepository 流程模板仓储实现
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建流程模板仓储
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Save 保存模板
func (r *templateRepository) Save(tpl *model.ProcessTemplateModel) error {
	return r.db.Save(tpl).Error
}

// FindByID 根据 ID 查找模板
func (r *templateRepository) FindByID(id string) (*model.ProcessTemplateModel, error) {
	var tpl model.ProcessTemplateModel
	if err := r.db.Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// FindVisible 查找公司可见的模板:公司自有或全局标准
func (r *templateRepository) FindVisible(companyID string) ([]*model.ProcessTemplateModel, error) {
	var tpls []*model.ProcessTemplateModel
	err := r.db.
		Where("company_id = ? OR is_global_standard = ?", companyID, true).
		Order("created_at DESC").
		Find(&tpls).Error
	return tpls, err
}

// FindChecklist 查找模板的清单项,按 order_index 再按 id 排序
func (r *templateRepository) FindChecklist(templateID string) ([]*model.ChecklistItemTemplateModel, error) {
	var items []*model.ChecklistItemTemplateModel
	err := r.db.
		Where("template_id = ?", templateID).
		Order("order_index ASC, id ASC").
		Find(&items).Error
	return items, err
}

// FindChecklistItem 根据 ID 查找清单项模板
func (r *templateRepository) FindChecklistItem(id string) (*model.ChecklistItemTemplateModel, error) {
	var item model.ChecklistItemTemplateModel
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// MaxChecklistOrder 返回模板当前最大的 order_index,无清单项时为 0
func (r *templateRepository) MaxChecklistOrder(templateID string) (int, error) {
	var max *int
	err := r.db.Model(&model.ChecklistItemTemplateModel{}).
		Where("template_id = ?", templateID).
		Select("MAX(order_index)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// SaveChecklistItem 保存清单项模板
func (r *templateRepository) SaveChecklistItem(item *model.ChecklistItemTemplateModel) error {
	return r.db.Save(item).Error
}

// FindLinks 查找以指定模板为父的关联
func (r *templateRepository) FindLinks(parentID string) ([]*model.TemplateLinkModel, error) {
	var links []*model.TemplateLinkModel
	err := r.db.Where("parent_template_id = ?", parentID).Find(&links).Error
	return links, err
}

// SaveLink 保存模板关联
func (r *templateRepository) SaveLink(link *model.TemplateLinkModel) error {
	return r.db.Save(link).Error
}

// DeleteLink 删除模板关联
func (r *templateRepository) DeleteLink(parentID, childID string) error {
	return r.db.
		Where("parent_template_id = ? AND child_template_id = ?", parentID, childID).
		Delete(&model.TemplateLinkModel{}).Error
}
