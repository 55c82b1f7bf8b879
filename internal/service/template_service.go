package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/contabhub/onety-sub007/internal/apperr"
	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/model"
	"github.com/contabhub/onety-sub007/internal/repository"
	"gorm.io/gorm"
)

// TemplateService 流程模板服务接口
type TemplateService interface {
	Create(ctx context.Context, p *auth.Principal, req *CreateTemplateRequest) (*model.ProcessTemplateModel, error)
	Get(p *auth.Principal, id string) (*model.ProcessTemplateModel, error)
	List(p *auth.Principal) ([]*model.ProcessTemplateModel, error)
	Update(ctx context.Context, p *auth.Principal, id string, req *UpdateTemplateRequest) (*model.ProcessTemplateModel, error)
	Delete(ctx context.Context, p *auth.Principal, id string) error
	// 清单项操作
	AppendChecklistItem(ctx context.Context, p *auth.Principal, templateID string, req *AppendChecklistItemRequest) (*model.ChecklistItemTemplateModel, error)
	ReorderChecklistItems(ctx context.Context, p *auth.Principal, templateID string, req *ReorderChecklistRequest) ([]*model.ChecklistItemTemplateModel, error)
	DeleteChecklistItem(ctx context.Context, p *auth.Principal, templateID string, itemID string) error
	GetChecklist(p *auth.Principal, templateID string) ([]*model.ChecklistItemTemplateModel, error)
	// 子模板关联操作
	AddLink(ctx context.Context, p *auth.Principal, parentID string, childID string) error
	RemoveLink(ctx context.Context, p *auth.Principal, parentID string, childID string) error
	ListLinks(p *auth.Principal, parentID string) ([]*model.TemplateLinkModel, error)
}

// CreateTemplateRequest 创建模板请求
// @Description 创建流程模板的请求参数
type CreateTemplateRequest struct {
	Name                      string `json:"name" example:"Onboarding de cliente" binding:"required"` // 模板名称
	Description               string `json:"description"`                                             // 模板描述
	TargetOffsetDays          *int   `json:"target_offset_days" example:"5"`                          // action 到 target 的天数
	DeadlineOffsetDays        *int   `json:"deadline_offset_days" example:"3"`                        // target 之上累加的天数
	DepartmentID              string `json:"department_id"`                                           // 部门 ID
	OwnerID                   string `json:"owner_id"`                                                // 默认负责人 ID
	ReferenceDateMode         string `json:"reference_date_mode" example:"creation"`                  // 参考日期模式
	NotifyOnOpen              bool   `json:"notify_on_open"`                                          // 创建时通知
	NotifyOnFinalize          bool   `json:"notify_on_finalize"`                                      // 完成时通知
	AllowFinishBeforeChildren bool   `json:"allow_finish_before_children"`                            // 允许在子任务完结前完结
	IsGlobalStandard          bool   `json:"is_global_standard"`                                      // 是否全局标准模板
}

// UpdateTemplateRequest 更新模板请求
// @Description 更新流程模板的请求参数,仅覆盖可编辑字段
type UpdateTemplateRequest struct {
	Name                      *string `json:"name"`
	Description               *string `json:"description"`
	TargetOffsetDays          *int    `json:"target_offset_days"`
	DeadlineOffsetDays        *int    `json:"deadline_offset_days"`
	OwnerID                   *string `json:"owner_id"`
	ReferenceDateMode         *string `json:"reference_date_mode"`
	NotifyOnOpen              *bool   `json:"notify_on_open"`
	NotifyOnFinalize          *bool   `json:"notify_on_finalize"`
	AllowFinishBeforeChildren *bool   `json:"allow_finish_before_children"`
}

// AppendChecklistItemRequest 追加清单项请求
// @Description 向模板清单末尾追加一项
type AppendChecklistItemRequest struct {
	ItemType     string `json:"item_type"`
	Text         string `json:"text" binding:"required"`
	CancelPolicy string `json:"cancel_policy"` // 省略时默认 with_justification
	Description  string `json:"description"`
}

// ReorderChecklistRequest 清单重排请求
// @Description 按给定顺序重排模板清单项
type ReorderChecklistRequest struct {
	OrderedIDs []string `json:"ordered_ids" binding:"required"` // 清单项 ID,按新顺序排列
}

// templateService 流程模板服务实现
type templateService struct {
	templateRepo repository.TemplateRepository
	deptRepo     repository.DepartmentRepository
	db           *gorm.DB
	auditLogSvc  AuditLogService
}

// NewTemplateService 创建流程模板服务
func NewTemplateService(templateRepo repository.TemplateRepository, deptRepo repository.DepartmentRepository, db *gorm.DB, auditLogSvc AuditLogService) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		deptRepo:     deptRepo,
		db:           db,
		auditLogSvc:  auditLogSvc,
	}
}

// Create 创建模板
// 标准模板只有管理员可以创建,且调用方部门必须映射到全局部门引用
func (s *templateService) Create(ctx context.Context, p *auth.Principal, req *CreateTemplateRequest) (*model.ProcessTemplateModel, error) {
	// 1. 校验必填字段
	if req.Name == "" {
		return nil, apperr.Validation("template name is required")
	}
	if req.TargetOffsetDays == nil || *req.TargetOffsetDays < 0 {
		return nil, apperr.Validation("target offset is required and must not be negative")
	}
	if req.DeadlineOffsetDays == nil || *req.DeadlineOffsetDays < 0 {
		return nil, apperr.Validation("deadline offset is required and must not be negative")
	}

	tpl := &model.ProcessTemplateModel{
		Name:                      req.Name,
		Description:               req.Description,
		TargetOffsetDays:          req.TargetOffsetDays,
		DeadlineOffsetDays:        req.DeadlineOffsetDays,
		ReferenceDateMode:         req.ReferenceDateMode,
		NotifyOnOpen:              req.NotifyOnOpen,
		NotifyOnFinalize:          req.NotifyOnFinalize,
		AllowFinishBeforeChildren: req.AllowFinishBeforeChildren,
		IsGlobalStandard:          req.IsGlobalStandard,
		CreatedBy:                 p.UserID,
	}
	if tpl.ReferenceDateMode == "" {
		tpl.ReferenceDateMode = model.ReferenceModeCreation
	}

	if req.IsGlobalStandard {
		// 2. 标准模板:仅管理员,部门解析为全局部门引用
		if !p.IsAdmin() {
			return nil, apperr.Forbidden("only admins may create standard templates")
		}
		if req.DepartmentID == "" {
			return nil, apperr.Validation("department is required to resolve the global department ref")
		}
		dept, err := s.deptRepo.FindByID(req.DepartmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation("department not found").With("department_id", req.DepartmentID)
			}
			return nil, apperr.Internal("failed to resolve department", err)
		}
		if dept.GlobalRef == nil || *dept.GlobalRef == "" {
			return nil, apperr.Validation("department has no global department mapping").With("department_id", req.DepartmentID)
		}
		tpl.GlobalDepartmentRef = dept.GlobalRef
	} else {
		// 3. 本地模板:归属调用方公司
		companyID := p.CompanyID
		tpl.CompanyID = &companyID
		if req.DepartmentID != "" {
			deptID := req.DepartmentID
			tpl.DepartmentID = &deptID
		}
		if req.OwnerID != "" {
			ownerID := req.OwnerID
			tpl.OwnerID = &ownerID
		}
	}

	if err := tpl.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	// 4. 保存
	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, apperr.Internal("failed to create template", err)
	}

	// 5. 记录审计日志
	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "create", "template", tpl.ID, map[string]interface{}{
			"name":  tpl.Name,
			"scope": string(tpl.Scope()),
		})
	}

	return tpl, nil
}

// Get 获取模板
func (s *templateService) Get(p *auth.Principal, id string) (*model.ProcessTemplateModel, error) {
	return s.findVisible(p, id)
}

// List 查找公司可见的模板:公司自有或全局标准
func (s *templateService) List(p *auth.Principal) ([]*model.ProcessTemplateModel, error) {
	tpls, err := s.templateRepo.FindVisible(p.CompanyID)
	if err != nil {
		return nil, apperr.Internal("failed to list templates", err)
	}
	return tpls, nil
}

// Update 更新模板的可编辑字段
func (s *templateService) Update(ctx context.Context, p *auth.Principal, id string, req *UpdateTemplateRequest) (*model.ProcessTemplateModel, error) {
	tpl, err := s.findVisible(p, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("template name cannot be empty")
		}
		tpl.Name = *req.Name
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.TargetOffsetDays != nil {
		if *req.TargetOffsetDays < 0 {
			return nil, apperr.Validation("target offset must not be negative")
		}
		tpl.TargetOffsetDays = req.TargetOffsetDays
	}
	if req.DeadlineOffsetDays != nil {
		if *req.DeadlineOffsetDays < 0 {
			return nil, apperr.Validation("deadline offset must not be negative")
		}
		tpl.DeadlineOffsetDays = req.DeadlineOffsetDays
	}
	if req.OwnerID != nil && !tpl.IsGlobalStandard {
		tpl.OwnerID = req.OwnerID
	}
	if req.ReferenceDateMode != nil {
		tpl.ReferenceDateMode = *req.ReferenceDateMode
	}
	if req.NotifyOnOpen != nil {
		tpl.NotifyOnOpen = *req.NotifyOnOpen
	}
	if req.NotifyOnFinalize != nil {
		tpl.NotifyOnFinalize = *req.NotifyOnFinalize
	}
	if req.AllowFinishBeforeChildren != nil {
		tpl.AllowFinishBeforeChildren = *req.AllowFinishBeforeChildren
	}

	if err := tpl.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.templateRepo.Save(tpl); err != nil {
		return nil, apperr.Internal("failed to update template", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "update", "template", tpl.ID, map[string]interface{}{
			"name": tpl.Name,
		})
	}

	return tpl, nil
}

// Delete 删除模板
// 级联顺序:关联 → 清单项固化解绑 → 清单项删除 → 任务引用置空 → 模板
// 历史任务的清单文案在固化一步被原样保留
func (s *templateService) Delete(ctx context.Context, p *auth.Principal, id string) error {
	tpl, err := s.findVisible(p, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// 1. 删除以该模板为父或子的关联
		if err := tx.Where("parent_template_id = ? OR child_template_id = ?", id, id).
			Delete(&model.TemplateLinkModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete template links: %w", err)
		}

		// 2. 逐个清单项:先把展示字段固化到引用它的任务清单行并清空引用
		var items []*model.ChecklistItemTemplateModel
		if err := tx.Where("template_id = ?", id).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load checklist items: %w", err)
		}
		for _, item := range items {
			if err := materializeChecklistItem(tx, item); err != nil {
				return err
			}
		}

		// 3. 删除清单项模板
		if err := tx.Where("template_id = ?", id).
			Delete(&model.ChecklistItemTemplateModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete checklist items: %w", err)
		}

		// 4. 仍指向该模板的任务引用置空
		if err := tx.Model(&model.TaskModel{}).Where("template_id = ?", id).
			Update("template_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach tasks: %w", err)
		}

		// 5. 删除模板行
		if err := tx.Where("id = ?", id).Delete(&model.ProcessTemplateModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete template: %w", err)
		}

		return nil
	})
	if err != nil {
		return apperr.Internal("failed to delete template", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "delete", "template", tpl.ID, map[string]interface{}{
			"name": tpl.Name,
		})
	}

	return nil
}

// AppendChecklistItem 追加清单项,顺序为当前最大值 +1
func (s *templateService) AppendChecklistItem(ctx context.Context, p *auth.Principal, templateID string, req *AppendChecklistItemRequest) (*model.ChecklistItemTemplateModel, error) {
	if _, err := s.findVisible(p, templateID); err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, apperr.Validation("checklist item text is required")
	}

	maxOrder, err := s.templateRepo.MaxChecklistOrder(templateID)
	if err != nil {
		return nil, apperr.Internal("failed to read checklist order", err)
	}

	item := &model.ChecklistItemTemplateModel{
		TemplateID:   templateID,
		OrderIndex:   maxOrder + 1,
		ItemType:     req.ItemType,
		Text:         req.Text,
		CancelPolicy: req.CancelPolicy,
		Description:  req.Description,
	}
	if item.CancelPolicy == "" {
		item.CancelPolicy = model.CancelPolicyWithJustification
	}
	if err := item.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.templateRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to append checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "append_item", "template", templateID, map[string]interface{}{
			"item_id": item.ID,
			"order":   item.OrderIndex,
		})
	}

	return item, nil
}

// ReorderChecklistItems 重排清单项
// 先按请求顺序赋临时序号,再把全部项按 (order, id) 归一为连续的 1..N
func (s *templateService) ReorderChecklistItems(ctx context.Context, p *auth.Principal, templateID string, req *ReorderChecklistRequest) ([]*model.ChecklistItemTemplateModel, error) {
	if _, err := s.findVisible(p, templateID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. 按请求顺序赋序号
		for i, itemID := range req.OrderedIDs {
			if err := tx.Model(&model.ChecklistItemTemplateModel{}).
				Where("id = ? AND template_id = ?", itemID, templateID).
				Update("order_index", i+1).Error; err != nil {
				return fmt.Errorf("failed to assign order: %w", err)
			}
		}

		// 2. 归一:按当前 order 再按 id 读取,重赋 1..N
		var items []*model.ChecklistItemTemplateModel
		if err := tx.Where("template_id = ?", templateID).
			Order("order_index ASC, id ASC").
			Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load checklist items: %w", err)
		}
		for i, item := range items {
			if item.OrderIndex != i+1 {
				if err := tx.Model(&model.ChecklistItemTemplateModel{}).
					Where("id = ?", item.ID).
					Update("order_index", i+1).Error; err != nil {
					return fmt.Errorf("failed to normalize order: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("failed to reorder checklist", err)
	}

	items, err := s.templateRepo.FindChecklist(templateID)
	if err != nil {
		return nil, apperr.Internal("failed to load checklist", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "reorder_items", "template", templateID, map[string]interface{}{
			"count": len(items),
		})
	}

	return items, nil
}

// DeleteChecklistItem 删除单个清单项,先固化解绑再删除
func (s *templateService) DeleteChecklistItem(ctx context.Context, p *auth.Principal, templateID string, itemID string) error {
	if _, err := s.findVisible(p, templateID); err != nil {
		return err
	}

	item, err := s.templateRepo.FindChecklistItem(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("checklist item not found").With("item_id", itemID)
		}
		return apperr.Internal("failed to load checklist item", err)
	}
	if item.TemplateID != templateID {
		return apperr.NotFound("checklist item not found").With("item_id", itemID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := materializeChecklistItem(tx, item); err != nil {
			return err
		}
		if err := tx.Where("id = ?", item.ID).
			Delete(&model.ChecklistItemTemplateModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete checklist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Internal("failed to delete checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "delete_item", "template", templateID, map[string]interface{}{
			"item_id": itemID,
		})
	}

	return nil
}

// GetChecklist 获取模板清单
func (s *templateService) GetChecklist(p *auth.Principal, templateID string) ([]*model.ChecklistItemTemplateModel, error) {
	if _, err := s.findVisible(p, templateID); err != nil {
		return nil, err
	}
	items, err := s.templateRepo.FindChecklist(templateID)
	if err != nil {
		return nil, apperr.Internal("failed to load checklist", err)
	}
	return items, nil
}

// AddLink 声明子模板可在父模板实例化时派生
func (s *templateService) AddLink(ctx context.Context, p *auth.Principal, parentID string, childID string) error {
	if _, err := s.findVisible(p, parentID); err != nil {
		return err
	}
	if _, err := s.findVisible(p, childID); err != nil {
		return err
	}

	link := &model.TemplateLinkModel{
		ParentTemplateID: parentID,
		ChildTemplateID:  childID,
	}
	if err := link.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}
	if err := s.templateRepo.SaveLink(link); err != nil {
		return apperr.Internal("failed to add template link", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "add_link", "template", parentID, map[string]interface{}{
			"child_id": childID,
		})
	}

	return nil
}

// RemoveLink 删除子模板关联
func (s *templateService) RemoveLink(ctx context.Context, p *auth.Principal, parentID string, childID string) error {
	if _, err := s.findVisible(p, parentID); err != nil {
		return err
	}
	if err := s.templateRepo.DeleteLink(parentID, childID); err != nil {
		return apperr.Internal("failed to remove template link", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "remove_link", "template", parentID, map[string]interface{}{
			"child_id": childID,
		})
	}

	return nil
}

// ListLinks 列出父模板声明的子模板关联
func (s *templateService) ListLinks(p *auth.Principal, parentID string) ([]*model.TemplateLinkModel, error) {
	if _, err := s.findVisible(p, parentID); err != nil {
		return nil, err
	}
	links, err := s.templateRepo.FindLinks(parentID)
	if err != nil {
		return nil, apperr.Internal("failed to list template links", err)
	}
	return links, nil
}

// findVisible 获取调用方可见的模板,不可见视为不存在
func (s *templateService) findVisible(p *auth.Principal, id string) (*model.ProcessTemplateModel, error) {
	tpl, err := s.templateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("template not found").With("template_id", id)
		}
		return nil, apperr.Internal("failed to load template", err)
	}
	if !tpl.VisibleTo(p.CompanyID) {
		return nil, apperr.NotFound("template not found").With("template_id", id)
	}
	return tpl, nil
}

// materializeChecklistItem 固化解绑
// 把模板清单项的展示字段原样拷贝进仍引用它的任务清单行并清空引用,
// 这一步必须发生在模板项删除之前
func materializeChecklistItem(tx *gorm.DB, item *model.ChecklistItemTemplateModel) error {
	if err := tx.Model(&model.TaskChecklistItemModel{}).
		Where("item_template_id = ?", item.ID).
		Updates(map[string]interface{}{
			"item_type":        item.ItemType,
			"text":             item.Text,
			"description":      item.Description,
			"cancel_policy":    item.CancelPolicy,
			"item_template_id": nil,
		}).Error; err != nil {
		return fmt.Errorf("failed to materialize checklist item %s: %w", item.ID, err)
	}
	return nil
}
