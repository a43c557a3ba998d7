package repository

import (
	"context"

	"garage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmployeeRepository answers the role lookups the workflow depends on
type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	List(ctx context.Context, page, limit int) ([]model.Employee, int64, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository returns a new instance of EmployeeRepository
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	return GetDB(ctx, r.db).Create(employee).Error
}

func (r *employeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var employee model.Employee
	if err := GetDB(ctx, r.db).First(&employee, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context, page, limit int) ([]model.Employee, int64, error) {
	var employees []model.Employee
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Employee{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("name asc").Offset(offset(page, limit)).Limit(limit).Find(&employees).Error; err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}
