package repository

import (
	"github.com/contabhub/onety-sub007/internal/model"
	"gorm.io/gorm"
)

// TaskRepository 任务仓储接口
type TaskRepository interface {
	// WithTx 返回绑定到事务的仓储,守卫查询与写入共享同一事务
	WithTx(tx *gorm.DB) TaskRepository
	Save(task *model.TaskModel) error
	FindByID(id string) (*model.TaskModel, error)
	FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error)
	FindChildren(parentID string) ([]*model.TaskModel, error)
	CountOpenChildren(parentID string) (int64, error)
	FindChecklist(taskID string) ([]*model.TaskChecklistItemModel, error)
	FindChecklistItem(id string) (*model.TaskChecklistItemModel, error)
	SaveChecklistItem(item *model.TaskChecklistItemModel) error
}

// TaskFilter 任务查询过滤器
type TaskFilter struct {
	CompanyID    *string
	Status       *string
	TemplateID   *string
	ParentTaskID *string
	ClientID     *string
	OwnerID      *string
	DepartmentID *string
}

// taskRepository 任务仓储实现
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *taskRepository) WithTx(tx *gorm.DB) TaskRepository {
	return &taskRepository{db: tx}
}

// Save 保存任务
func (r *taskRepository) Save(task *model.TaskModel) error {
	return r.db.Save(task).Error
}

// FindByID 根据 ID 查找任务
func (r *taskRepository) FindByID(id string) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := r.db.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindByFilter 根据过滤器查找任务
func (r *taskRepository) FindByFilter(filter *TaskFilter) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	query := r.db.Model(&model.TaskModel{})

	if filter != nil {
		if filter.CompanyID != nil {
			// 标准模板派生的无公司任务对所有公司可见
			query = query.Where("company_id = ? OR company_id IS NULL", *filter.CompanyID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.TemplateID != nil {
			query = query.Where("template_id = ?", *filter.TemplateID)
		}
		if filter.ParentTaskID != nil {
			query = query.Where("parent_task_id = ?", *filter.ParentTaskID)
		}
		if filter.ClientID != nil {
			query = query.Where("client_id = ?", *filter.ClientID)
		}
		if filter.OwnerID != nil {
			query = query.Where("owner_id = ?", *filter.OwnerID)
		}
		if filter.DepartmentID != nil {
			query = query.Where("department_id = ?", *filter.DepartmentID)
		}
	}

	err := query.Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// FindChildren 查找任务的全部子任务
func (r *taskRepository) FindChildren(parentID string) ([]*model.TaskModel, error) {
	var tasks []*model.TaskModel
	err := r.db.Where("parent_task_id = ?", parentID).Find(&tasks).Error
	return tasks, err
}

// CountOpenChildren 统计未完结的子任务数
func (r *taskRepository) CountOpenChildren(parentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.TaskModel{}).
		Where("parent_task_id = ? AND status NOT IN ?", parentID, []string{model.StatusCompleted, model.StatusCanceled}).
		Count(&count).Error
	return count, err
}

// FindChecklist 查找任务的清单项
func (r *taskRepository) FindChecklist(taskID string) ([]*model.TaskChecklistItemModel, error) {
	var items []*model.TaskChecklistItemModel
	err := r.db.Where("task_id = ?", taskID).Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

// FindChecklistItem 根据 ID 查找任务清单项
func (r *taskRepository) FindChecklistItem(id string) (*model.TaskChecklistItemModel, error) {
	var item model.TaskChecklistItemModel
	if err := r.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveChecklistItem 保存任务清单项
func (r *taskRepository) SaveChecklistItem(item *model.TaskChecklistItemModel) error {
	return r.db.Save(item).Error
}
