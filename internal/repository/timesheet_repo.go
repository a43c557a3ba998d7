package repository

import (
	"context"

	"garage/internal/model"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimesheetRepository interface {
	Create(ctx context.Context, ts *model.Timesheet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Timesheet, error)
	HasOpen(ctx context.Context, jobCardID, employeeID uuid.UUID) (bool, error)
	ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.Timesheet, error)
	Update(ctx context.Context, ts *model.Timesheet) error
}

type timesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) TimesheetRepository {
	return &timesheetRepository{db: db}
}

func (r *timesheetRepository) Create(ctx context.Context, ts *model.Timesheet) error {
	return duplicate(GetDB(ctx, r.db).Create(ts).Error, workflow.ErrAlreadyClockedIn)
}

func (r *timesheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Timesheet, error) {
	var ts model.Timesheet
	if err := GetDB(ctx, r.db).First(&ts, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ts, nil
}

func (r *timesheetRepository) HasOpen(ctx context.Context, jobCardID, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Timesheet{}).
		Where("job_card_id = ? AND employee_id = ? AND clock_out IS NULL", jobCardID, employeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *timesheetRepository) ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.Timesheet, error) {
	var sheets []model.Timesheet
	if err := GetDB(ctx, r.db).Where("job_card_id = ?", jobCardID).Order("clock_in asc").Find(&sheets).Error; err != nil {
		return nil, err
	}
	return sheets, nil
}

func (r *timesheetRepository) Update(ctx context.Context, ts *model.Timesheet) error {
	return saveVersioned(GetDB(ctx, r.db), ts, &ts.Version)
}
