package repository

import (
	"context"

	"garage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequisitionRepository interface {
	Create(ctx context.Context, r *model.PartRequisition) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PartRequisition, error)
	ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.PartRequisition, error)
	Update(ctx context.Context, r *model.PartRequisition) error
}

type requisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) RequisitionRepository {
	return &requisitionRepository{db: db}
}

func (r *requisitionRepository) Create(ctx context.Context, req *model.PartRequisition) error {
	return GetDB(ctx, r.db).Omit("Product").Create(req).Error
}

func (r *requisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PartRequisition, error) {
	var req model.PartRequisition
	if err := GetDB(ctx, r.db).Preload("Product").First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *requisitionRepository) ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.PartRequisition, error) {
	var reqs []model.PartRequisition
	if err := GetDB(ctx, r.db).Preload("Product").
		Where("job_card_id = ?", jobCardID).
		Order("created_at asc").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requisitionRepository) Update(ctx context.Context, req *model.PartRequisition) error {
	return saveVersioned(GetDB(ctx, r.db), req, &req.Version)
}
