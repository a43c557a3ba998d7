package repository

import (
	"context"

	"garage/internal/model"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobCardRepository interface {
	Create(ctx context.Context, card *model.JobCard) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JobCard, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.JobCard, error)
	List(ctx context.Context, page, limit int) ([]model.JobCard, int64, error)
	Update(ctx context.Context, card *model.JobCard) error
	AddTechnician(ctx context.Context, entry *model.JobCardTechnician) error
	RemoveTechnician(ctx context.Context, jobCardID, employeeID uuid.UUID) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type jobCardRepository struct {
	db *gorm.DB
}

func NewJobCardRepository(db *gorm.DB) JobCardRepository {
	return &jobCardRepository{db: db}
}

func (r *jobCardRepository) Create(ctx context.Context, card *model.JobCard) error {
	return duplicate(GetDB(ctx, r.db).Create(card).Error, workflow.ErrConflict)
}

func (r *jobCardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JobCard, error) {
	var card model.JobCard
	err := GetDB(ctx, r.db).
		Preload("Technicians", func(db *gorm.DB) *gorm.DB { return db.Order("assigned_at asc") }).
		First(&card, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

// FindByIDForUpdate locks the card row until the transaction ends, so state
// changes to the card wait for commands that depend on its state.
func (r *jobCardRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.JobCard, error) {
	var card model.JobCard
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Technicians", func(db *gorm.DB) *gorm.DB { return db.Order("assigned_at asc") }).
		First(&card, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

func (r *jobCardRepository) List(ctx context.Context, page, limit int) ([]model.JobCard, int64, error) {
	var cards []model.JobCard
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.JobCard{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Technicians").
		Order("priority desc, date_in asc").
		Offset(offset(page, limit)).Limit(limit).
		Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Update persists the card row only; roster rows go through Add/RemoveTechnician.
func (r *jobCardRepository) Update(ctx context.Context, card *model.JobCard) error {
	return saveVersioned(GetDB(ctx, r.db), card, &card.Version)
}

func (r *jobCardRepository) AddTechnician(ctx context.Context, entry *model.JobCardTechnician) error {
	return duplicate(GetDB(ctx, r.db).Create(entry).Error, workflow.ErrAlreadyAssigned)
}

func (r *jobCardRepository) RemoveTechnician(ctx context.Context, jobCardID, employeeID uuid.UUID) error {
	res := GetDB(ctx, r.db).
		Where("job_card_id = ? AND employee_id = ?", jobCardID, employeeID).
		Delete(&model.JobCardTechnician{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return workflow.ErrNotAssigned
	}
	return nil
}

func (r *jobCardRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.JobCard{}).Where("number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
