package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/contabhub/onety-sub007/internal/apperr"
	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/dates"
	"github.com/contabhub/onety-sub007/internal/metrics"
	"github.com/contabhub/onety-sub007/internal/model"
	"github.com/contabhub/onety-sub007/internal/notify"
	"github.com/contabhub/onety-sub007/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskService 任务服务接口
type TaskService interface {
	Create(ctx context.Context, p *auth.Principal, req *CreateTaskRequest) (*TaskTree, error)
	Get(p *auth.Principal, id string) (*model.TaskModel, error)
	List(p *auth.Principal, filter *repository.TaskFilter) ([]*model.TaskModel, error)
	ListChildren(p *auth.Principal, parentID string) ([]*model.TaskModel, error)
	// 状态机
	Complete(ctx context.Context, p *auth.Principal, id string, at *time.Time) (*model.TaskModel, error)
	Cancel(ctx context.Context, p *auth.Principal, id string, at *time.Time) (*model.TaskModel, error)
	Reopen(ctx context.Context, p *auth.Principal, id string) (*model.TaskModel, error)
	// 清单跟踪
	ChecklistViews(p *auth.Principal, taskID string) ([]model.ChecklistItemView, error)
	MarkItemDone(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error)
	UnmarkItemDone(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error)
	CancelItem(ctx context.Context, p *auth.Principal, taskID, itemID string, justification string) (*model.TaskChecklistItemModel, error)
	UncancelItem(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error)
	AttachItemFile(ctx context.Context, p *auth.Principal, taskID, itemID string, payload []byte, filename string) (*model.TaskChecklistItemModel, error)
	DetachItemFile(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error)
}

// CreateTaskRequest 创建任务请求
// @Description 按模板实例化任务,可选择派生已关联的子模板
type CreateTaskRequest struct {
	TemplateID   string     `json:"template_id" binding:"required"` // 来源模板 ID
	DepartmentID string     `json:"department_id"`                  // 省略时回落到模板部门
	ClientID     string     `json:"client_id" binding:"required"`   // 客户 ID
	Subject      string     `json:"subject" binding:"required"`     // 任务主题
	Description  string     `json:"description"`
	ActionDate   *time.Time `json:"action_date"`   // 三个日期全部省略时按模板偏移计算
	TargetDate   *time.Time `json:"target_date"`
	DeadlineDate *time.Time `json:"deadline_date"`
	OwnerID      string     `json:"owner_id"`      // 省略时回落到模板默认负责人
	Attachments  []string   `json:"attachments"`   // 附件 ID 列表
	CompanyID    string     `json:"company_id"`    // 标准模板实例化时的公司覆盖,可省略
	// 选择派生的子模板 ID,与模板关联目录求交集,目录外的 ID 静默忽略
	SelectedChildTemplateIDs []string `json:"selected_child_template_ids"`
}

// TaskTree 创建结果:主任务和同事务派生的子任务
type TaskTree struct {
	Task     *model.TaskModel   `json:"task"`
	Subtasks []*model.TaskModel `json:"subtasks"`
}

// taskService 任务服务实现
type taskService struct {
	taskRepo     repository.TaskRepository
	templateRepo repository.TemplateRepository
	db           *gorm.DB
	clock        dates.Clock
	notifier     notify.Notifier
	hooks        *notify.Runner
	auditLogSvc  AuditLogService
}

// NewTaskService 创建任务服务
func NewTaskService(
	taskRepo repository.TaskRepository,
	templateRepo repository.TemplateRepository,
	db *gorm.DB,
	clock dates.Clock,
	notifier notify.Notifier,
	hooks *notify.Runner,
	auditLogSvc AuditLogService,
) TaskService {
	return &taskService{
		taskRepo:     taskRepo,
		templateRepo: templateRepo,
		db:           db,
		clock:        clock,
		notifier:     notifier,
		hooks:        hooks,
		auditLogSvc:  auditLogSvc,
	}
}

// Create 按模板实例化任务
// 主任务、清单快照、选中的子任务及其清单在同一个事务内落库,
// 任一失败整体回滚;通知钩子在提交之后异步执行
func (s *taskService) Create(ctx context.Context, p *auth.Principal, req *CreateTaskRequest) (*TaskTree, error) {
	// 1. 校验必填字段
	if req.TemplateID == "" {
		return nil, apperr.Validation("template ID is required")
	}
	if req.ClientID == "" {
		return nil, apperr.Validation("client ID is required")
	}
	if req.Subject == "" {
		return nil, apperr.Validation("task subject is required")
	}

	tpl, err := s.findVisibleTemplate(p, req.TemplateID)
	if err != nil {
		return nil, err
	}

	departmentID := req.DepartmentID
	if departmentID == "" && tpl.DepartmentID != nil {
		departmentID = *tpl.DepartmentID
	}
	if departmentID == "" {
		return nil, apperr.Validation("department ID is required")
	}

	ownerID := req.OwnerID
	if ownerID == "" && tpl.OwnerID != nil {
		ownerID = *tpl.OwnerID
	}

	// 标准模板派生的任务可以不归属任何公司,除非调用方显式覆盖
	var companyID *string
	if tpl.IsGlobalStandard {
		if req.CompanyID != "" {
			c := req.CompanyID
			companyID = &c
		}
	} else {
		c := p.CompanyID
		companyID = &c
	}

	task := &model.TaskModel{
		CompanyID:                 companyID,
		DepartmentID:              departmentID,
		TemplateID:                &tpl.ID,
		ClientID:                  req.ClientID,
		Subject:                   req.Subject,
		Description:               req.Description,
		ActionDate:                req.ActionDate,
		TargetDate:                req.TargetDate,
		DeadlineDate:              req.DeadlineDate,
		OwnerID:                   ownerID,
		AllowFinishBeforeChildren: tpl.AllowFinishBeforeChildren,
		Status:                    model.StatusOpen,
		CreatedBy:                 p.UserID,
	}

	// 2. 三个日期全部省略时才按模板偏移计算,任一显式给出则原样使用
	if req.ActionDate == nil && req.TargetDate == nil && req.DeadlineDate == nil {
		action, target, deadline := dates.Compute(s.clock.Now(), *tpl.TargetOffsetDays, *tpl.DeadlineOffsetDays)
		task.ActionDate = &action
		task.TargetDate = &target
		task.DeadlineDate = &deadline
	}

	if len(req.Attachments) > 0 {
		raw, err := json.Marshal(req.Attachments)
		if err != nil {
			return nil, apperr.Validation("invalid attachments")
		}
		task.Attachments = datatypes.JSON(raw)
	}

	if err := task.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	// 3. 预读模板清单和子模板关联,写入全部发生在事务内
	checklist, err := s.templateRepo.FindChecklist(tpl.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load template checklist", err)
	}

	childTemplates, err := s.resolveSelection(p, tpl.ID, req.SelectedChildTemplateIDs)
	if err != nil {
		return nil, err
	}

	var subtasks []*model.TaskModel
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := snapshotChecklist(tx, task.ID, checklist); err != nil {
			return err
		}

		// 4. 派生选中的子任务,只展开一层
		for _, child := range childTemplates {
			sub, err := s.buildSubtask(task, child)
			if err != nil {
				return err
			}
			if err := tx.Create(sub).Error; err != nil {
				return fmt.Errorf("failed to create subtask: %w", err)
			}
			childChecklist, err := findChecklistTx(tx, child.ID)
			if err != nil {
				return err
			}
			if err := snapshotChecklist(tx, sub.ID, childChecklist); err != nil {
				return err
			}
			subtasks = append(subtasks, sub)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("failed to instantiate task", err)
	}

	metrics.RecordTaskCreated()
	if len(subtasks) > 0 {
		metrics.RecordSubtasksCreated(len(subtasks))
	}

	// 5. 提交后通知,失败只记日志
	if s.hooks != nil && s.notifier != nil {
		var hooksToRun []notify.Hook
		if tpl.NotifyOnOpen {
			hooksToRun = append(hooksToRun, func() error { return s.notifier.TaskCreated(task) })
		}
		if len(subtasks) > 0 {
			hooksToRun = append(hooksToRun, func() error { return s.notifier.SubtasksCreated(task, subtasks) })
		}
		if len(hooksToRun) > 0 {
			s.hooks.Dispatch(hooksToRun...)
		}
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "create", "task", task.ID, map[string]interface{}{
			"template_id": tpl.ID,
			"subtasks":    len(subtasks),
		})
	}

	return &TaskTree{Task: task, Subtasks: subtasks}, nil
}

// Get 获取任务
func (s *taskService) Get(p *auth.Principal, id string) (*model.TaskModel, error) {
	return s.findVisibleTask(p, id)
}

// List 按过滤器查找调用方公司可见的任务
func (s *taskService) List(p *auth.Principal, filter *repository.TaskFilter) ([]*model.TaskModel, error) {
	if filter == nil {
		filter = &repository.TaskFilter{}
	}
	companyID := p.CompanyID
	filter.CompanyID = &companyID
	tasks, err := s.taskRepo.FindByFilter(filter)
	if err != nil {
		return nil, apperr.Internal("failed to list tasks", err)
	}
	return tasks, nil
}

// ListChildren 查找任务的子任务
func (s *taskService) ListChildren(p *auth.Principal, parentID string) ([]*model.TaskModel, error) {
	if _, err := s.findVisibleTask(p, parentID); err != nil {
		return nil, err
	}
	children, err := s.taskRepo.FindChildren(parentID)
	if err != nil {
		return nil, apperr.Internal("failed to list subtasks", err)
	}
	return children, nil
}

// Complete 完结任务 (open → completed)
func (s *taskService) Complete(ctx context.Context, p *auth.Principal, id string, at *time.Time) (*model.TaskModel, error) {
	task, err := s.finalize(p, id, model.StatusCompleted, at)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("complete")

	// notify_on_finalize 跟随来源模板;模板已删除时跳过
	if s.hooks != nil && s.notifier != nil && task.TemplateID != nil {
		if tpl, tplErr := s.templateRepo.FindByID(*task.TemplateID); tplErr == nil && tpl.NotifyOnFinalize {
			actor := p.Name
			s.hooks.Dispatch(func() error { return s.notifier.TaskCompleted(task, actor) })
		}
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "complete", "task", task.ID, nil)
	}
	return task, nil
}

// Cancel 取消任务 (open → canceled)
func (s *taskService) Cancel(ctx context.Context, p *auth.Principal, id string, at *time.Time) (*model.TaskModel, error) {
	task, err := s.finalize(p, id, model.StatusCanceled, at)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("cancel")

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "cancel", "task", task.ID, nil)
	}
	return task, nil
}

// finalize 终态迁移的公共路径
// 守卫和写入在同一事务内:来源模板仍在且未放行提前完结时,
// 存在任何未完结子任务则整体拒绝 (Conflict)
func (s *taskService) finalize(p *auth.Principal, id string, status string, at *time.Time) (*model.TaskModel, error) {
	var task *model.TaskModel
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t model.TaskModel
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			return err
		}
		if !t.VisibleTo(p.CompanyID) {
			return gorm.ErrRecordNotFound
		}
		if t.Status != model.StatusOpen {
			return apperr.Conflict("task is not open").With("status", t.Status)
		}

		if t.TemplateID != nil && !t.AllowFinishBeforeChildren {
			open, err := s.taskRepo.WithTx(tx).CountOpenChildren(t.ID)
			if err != nil {
				return fmt.Errorf("failed to count open subtasks: %w", err)
			}
			if open > 0 {
				metrics.RecordGateConflict()
				return apperr.Conflict("open children exist").With("open_children", fmt.Sprintf("%d", open))
			}
		}

		instant := s.clock.Now()
		if at != nil {
			instant = *at
		}
		ts := dates.Normalize(instant)

		t.Status = status
		if status == model.StatusCompleted {
			t.CompletedAt = &ts
		} else {
			t.CanceledAt = &ts
		}
		if err := tx.Save(&t).Error; err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}
		task = &t
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found").With("task_id", id)
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Internal("failed to finalize task", err)
	}
	return task, nil
}

// Reopen 重新打开任务 (terminal → open)
// 无子任务守卫,两个终态时间戳一并清空
func (s *taskService) Reopen(ctx context.Context, p *auth.Principal, id string) (*model.TaskModel, error) {
	task, err := s.findVisibleTask(p, id)
	if err != nil {
		return nil, err
	}
	if !task.IsTerminal() {
		return nil, apperr.Conflict("task is not in a terminal state").With("status", task.Status)
	}

	task.Status = model.StatusOpen
	task.CompletedAt = nil
	task.CanceledAt = nil
	err = s.db.Model(task).Updates(map[string]interface{}{
		"status":       model.StatusOpen,
		"completed_at": nil,
		"canceled_at":  nil,
	}).Error
	if err != nil {
		return nil, apperr.Internal("failed to reopen task", err)
	}

	metrics.RecordTransition("reopen")

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "reopen", "task", task.ID, nil)
	}
	return task, nil
}

// ChecklistViews 获取任务清单的读取视图
// 仍引用模板项的行实时解析模板文案 (Live),其余使用固化副本 (Frozen)
func (s *taskService) ChecklistViews(p *auth.Principal, taskID string) ([]model.ChecklistItemView, error) {
	if _, err := s.findVisibleTask(p, taskID); err != nil {
		return nil, err
	}
	items, err := s.taskRepo.FindChecklist(taskID)
	if err != nil {
		return nil, apperr.Internal("failed to load task checklist", err)
	}

	views := make([]model.ChecklistItemView, 0, len(items))
	for _, item := range items {
		var tpl *model.ChecklistItemTemplateModel
		if item.ItemTemplateID != nil {
			if found, err := s.templateRepo.FindChecklistItem(*item.ItemTemplateID); err == nil {
				tpl = found
			}
		}
		views = append(views, item.View(tpl))
	}
	return views, nil
}

// MarkItemDone 勾选清单项
// 记录操作者的显示名快照,不影响所属任务的状态
func (s *taskService) MarkItemDone(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error) {
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	ts := dates.Normalize(s.clock.Now())
	item.Done = true
	item.CompletedAt = &ts
	item.CompletedBy = p.Name
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to mark checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_done", "task", taskID, map[string]interface{}{"item_id": itemID})
	}
	return item, nil
}

// UnmarkItemDone 取消勾选清单项
func (s *taskService) UnmarkItemDone(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error) {
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	item.Done = false
	item.CompletedAt = nil
	item.CompletedBy = ""
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to unmark checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_undone", "task", taskID, map[string]interface{}{"item_id": itemID})
	}
	return item, nil
}

// CancelItem 取消清单项
// 取消策略为 with_justification 时必须给出理由
func (s *taskService) CancelItem(ctx context.Context, p *auth.Principal, taskID, itemID string, justification string) (*model.TaskChecklistItemModel, error) {
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	policy := s.resolveCancelPolicy(item)
	if policy == model.CancelPolicyWithJustification && justification == "" {
		return nil, apperr.Validation("cancellation requires a justification").With("item_id", itemID)
	}

	now := dates.Normalize(s.clock.Now())
	item.Canceled = true
	item.Justification = justification
	item.CanceledAt = &now
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to cancel checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_canceled", "task", taskID, map[string]interface{}{"item_id": itemID})
	}
	return item, nil
}

// UncancelItem 恢复已取消的清单项
func (s *taskService) UncancelItem(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error) {
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	item.Canceled = false
	item.Justification = ""
	item.CanceledAt = nil
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to uncancel checklist item", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_uncanceled", "task", taskID, map[string]interface{}{"item_id": itemID})
	}
	return item, nil
}

// AttachItemFile 给清单项挂附件
func (s *taskService) AttachItemFile(ctx context.Context, p *auth.Principal, taskID, itemID string, payload []byte, filename string) (*model.TaskChecklistItemModel, error) {
	if len(payload) == 0 {
		return nil, apperr.Validation("attachment payload is empty")
	}
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	item.AttachmentPayload = payload
	item.AttachmentFilename = filename
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to attach file", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_attach", "task", taskID, map[string]interface{}{
			"item_id":  itemID,
			"filename": filename,
		})
	}
	return item, nil
}

// DetachItemFile 摘除清单项附件
// 附件常常是勾选的依据,摘除时一并复位勾选状态
func (s *taskService) DetachItemFile(ctx context.Context, p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error) {
	item, err := s.findChecklistItem(p, taskID, itemID)
	if err != nil {
		return nil, err
	}

	item.AttachmentPayload = nil
	item.AttachmentFilename = ""
	item.Done = false
	item.CompletedAt = nil
	item.CompletedBy = ""
	if err := s.taskRepo.SaveChecklistItem(item); err != nil {
		return nil, apperr.Internal("failed to detach file", err)
	}

	if s.auditLogSvc != nil {
		_ = s.auditLogSvc.RecordAction(ctx, p.UserID, "item_detach", "task", taskID, map[string]interface{}{"item_id": itemID})
	}
	return item, nil
}

// resolveSelection 求选中 ID 与模板关联目录的交集
// 目录外的 ID 静默忽略,重复 ID 只派生一次,关联是可能性不是义务
func (s *taskService) resolveSelection(p *auth.Principal, templateID string, selected []string) ([]*model.ProcessTemplateModel, error) {
	if len(selected) == 0 {
		return nil, nil
	}

	links, err := s.templateRepo.FindLinks(templateID)
	if err != nil {
		return nil, apperr.Internal("failed to load template links", err)
	}
	linked := make(map[string]bool, len(links))
	for _, link := range links {
		linked[link.ChildTemplateID] = true
	}

	var children []*model.ProcessTemplateModel
	seen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if !linked[id] || seen[id] {
			continue
		}
		seen[id] = true
		child, err := s.templateRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, apperr.Internal("failed to load child template", err)
		}
		if !child.VisibleTo(p.CompanyID) {
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

// buildSubtask 构造子任务输入
// 公司/客户/附件沿用父任务,子模板自带的部门/负责人优先,
// 日期按子任务规则直接相对父任务的 action 偏移
func (s *taskService) buildSubtask(parent *model.TaskModel, child *model.ProcessTemplateModel) (*model.TaskModel, error) {
	base := s.clock.Now()
	if parent.ActionDate != nil {
		base = *parent.ActionDate
	}
	action, target, deadline := dates.ComputeSub(base, child.TargetOffsetDays, child.DeadlineOffsetDays)

	departmentID := parent.DepartmentID
	if child.DepartmentID != nil && *child.DepartmentID != "" {
		departmentID = *child.DepartmentID
	}
	ownerID := parent.OwnerID
	if child.OwnerID != nil && *child.OwnerID != "" {
		ownerID = *child.OwnerID
	}

	sub := &model.TaskModel{
		CompanyID:                 parent.CompanyID,
		DepartmentID:              departmentID,
		TemplateID:                &child.ID,
		ClientID:                  parent.ClientID,
		Subject:                   child.Name,
		Description:               child.Description,
		ActionDate:                &action,
		TargetDate:                target,
		DeadlineDate:              deadline,
		OwnerID:                   ownerID,
		Attachments:               parent.Attachments,
		AllowFinishBeforeChildren: child.AllowFinishBeforeChildren,
		ParentTaskID:              &parent.ID,
		Status:                    model.StatusOpen,
		CreatedBy:                 parent.CreatedBy,
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subtask for template %s: %w", child.ID, err)
	}
	return sub, nil
}

// resolveCancelPolicy 解析清单项的生效取消策略
func (s *taskService) resolveCancelPolicy(item *model.TaskChecklistItemModel) string {
	if item.ItemTemplateID != nil {
		if tpl, err := s.templateRepo.FindChecklistItem(*item.ItemTemplateID); err == nil {
			return tpl.CancelPolicy
		}
	}
	if item.CancelPolicy != "" {
		return item.CancelPolicy
	}
	return model.CancelPolicyWithJustification
}

// findVisibleTask 获取调用方可见的任务,不可见视为不存在
func (s *taskService) findVisibleTask(p *auth.Principal, id string) (*model.TaskModel, error) {
	task, err := s.taskRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found").With("task_id", id)
		}
		return nil, apperr.Internal("failed to load task", err)
	}
	if !task.VisibleTo(p.CompanyID) {
		return nil, apperr.NotFound("task not found").With("task_id", id)
	}
	return task, nil
}

// findVisibleTemplate 获取调用方可见的模板
func (s *taskService) findVisibleTemplate(p *auth.Principal, id string) (*model.ProcessTemplateModel, error) {
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

// findChecklistItem 获取任务清单项并校验归属
func (s *taskService) findChecklistItem(p *auth.Principal, taskID, itemID string) (*model.TaskChecklistItemModel, error) {
	if _, err := s.findVisibleTask(p, taskID); err != nil {
		return nil, err
	}
	item, err := s.taskRepo.FindChecklistItem(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("checklist item not found").With("item_id", itemID)
		}
		return nil, apperr.Internal("failed to load checklist item", err)
	}
	if item.TaskID != taskID {
		return nil, apperr.NotFound("checklist item not found").With("item_id", itemID)
	}
	return item, nil
}

// snapshotChecklist 按模板清单逐行生成任务清单项
// 快照行引用模板项 (Live),固化字段留空,之后不再与模板同步
func snapshotChecklist(tx *gorm.DB, taskID string, checklist []*model.ChecklistItemTemplateModel) error {
	for _, tplItem := range checklist {
		itemTemplateID := tplItem.ID
		item := &model.TaskChecklistItemModel{
			TaskID:         taskID,
			ItemTemplateID: &itemTemplateID,
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to snapshot checklist item: %w", err)
		}
	}
	return nil
}

// findChecklistTx 在事务内读取模板清单
func findChecklistTx(tx *gorm.DB, templateID string) ([]*model.ChecklistItemTemplateModel, error) {
	var items []*model.ChecklistItemTemplateModel
	if err := tx.Where("template_id = ?", templateID).
		Order("order_index ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load child checklist: %w", err)
	}
	return items, nil
}
