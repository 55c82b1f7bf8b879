package repository

import (
	"github.com/contabhub/onety-sub007/internal/model"
	"gorm.io/gorm"
)

// DepartmentRepository 部门仓储接口
type DepartmentRepository interface {
	Save(dept *model.DepartmentModel) error
	FindByID(id string) (*model.DepartmentModel, error)
	FindByCompany(companyID string) ([]*model.DepartmentModel, error)
}

// departmentRepository 部门仓储实现
type departmentRepository struct {
	db *gorm.DB
}

// NewDepartmentRepository 创建部门仓储
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

// Save 保存部门
func (r *departmentRepository) Save(dept *model.DepartmentModel) error {
	return r.db.Save(dept).Error
}

// FindByID 根据 ID 查找部门
func (r *departmentRepository) FindByID(id string) (*model.DepartmentModel, error) {
	var dept model.DepartmentModel
	if err := r.db.Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

// FindByCompany 查找公司的全部部门
func (r *departmentRepository) FindByCompany(companyID string) ([]*model.DepartmentModel, error) {
	var depts []*model.DepartmentModel
	err := r.db.Where("company_id = ?", companyID).Order("name ASC").Find(&depts).Error
	return depts, err
}
