package service

import (
	"context"
	"fmt"
	"time"

	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
)

type CreateRequisitionRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required" swaggertype:"string"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes"`
}

// QuantityRequest drives approve, disburse and mark-used
type QuantityRequest struct {
	Quantity        int    `json:"quantity"`
	Notes           string `json:"notes"`
	ExpectedVersion int64  `json:"expected_version"`
}

// ReasonRequest drives reject and not-available
type ReasonRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

type RequisitionService interface {
	Create(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req CreateRequisitionRequest) (*model.PartRequisition, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PartRequisition, error)
	ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.PartRequisition, error)

	Approve(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error)
	Disburse(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error)
	MarkUsed(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error)
	Reject(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReasonRequest) (*model.PartRequisition, error)
	MarkNotAvailable(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReasonRequest) (*model.PartRequisition, error)
}

type requisitionService struct {
	requisitionRepo repository.RequisitionRepository
	jobCardRepo     repository.JobCardRepository
	inventory       InventoryService
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	notifier        Notifier
	now             func() time.Time
}

func NewRequisitionService(
	requisitionRepo repository.RequisitionRepository,
	jobCardRepo repository.JobCardRepository,
	inventory InventoryService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) RequisitionService {
	return &requisitionService{
		requisitionRepo: requisitionRepo,
		jobCardRepo:     jobCardRepo,
		inventory:       inventory,
		auditRepo:       auditRepo,
		txManager:       txManager,
		notifier:        notifierOrNop(notifier),
		now:             utcNow,
	}
}

// Create snapshots the product price as the unit cost of the line.
func (s *requisitionService) Create(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req CreateRequisitionRequest) (*model.PartRequisition, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionCreateRequisition); err != nil {
		return nil, err
	}
	product, err := s.inventory.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", req.ProductID, err)
	}

	var r *model.PartRequisition
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		card, err := s.jobCardRepo.FindByIDForUpdate(txCtx, jobCardID)
		if err != nil {
			return err
		}
		r, err = workflow.NewRequisition(actor, card, product.ID, req.Quantity, product.Price, req.Notes)
		if err != nil {
			return err
		}
		if err := s.requisitionRepo.Create(txCtx, r); err != nil {
			return fmt.Errorf("failed to create requisition: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateRequisition, r.ID.String(), product.Name, map[string]interface{}{
			"job_card_id": card.ID,
			"job_card":    card.Number,
			"product_id":  product.ID,
			"quantity":    req.Quantity,
			"unit_cost":   product.Price,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventRequisitionUpdated, r)
	return r, nil
}

func (s *requisitionService) Get(ctx context.Context, id uuid.UUID) (*model.PartRequisition, error) {
	return s.requisitionRepo.FindByID(ctx, id)
}

func (s *requisitionService) ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.PartRequisition, error) {
	if _, err := s.jobCardRepo.FindByID(ctx, jobCardID); err != nil {
		return nil, err
	}
	return s.requisitionRepo.ListByJobCard(ctx, jobCardID)
}

// progress runs one requisition transition. The role gate comes before any
// read so a caller without the role learns nothing about the entity.
func (s *requisitionService) progress(
	ctx context.Context,
	actor workflow.Actor,
	action workflow.Action,
	id uuid.UUID,
	expectedVersion int64,
	auditAction string,
	details interface{},
	apply func(txCtx context.Context, card *model.JobCard, r *model.PartRequisition) error,
) (*model.PartRequisition, error) {
	if err := workflow.Authorize(actor.Role, action); err != nil {
		return nil, err
	}

	var r *model.PartRequisition
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		r, err = s.requisitionRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(r.Version, expectedVersion); err != nil {
			return err
		}
		card, err := s.jobCardRepo.FindByIDForUpdate(txCtx, r.JobCardID)
		if err != nil {
			return fmt.Errorf("owning job card: %w", err)
		}
		from := r.Status
		if err := apply(txCtx, card, r); err != nil {
			return err
		}
		if err := workflow.CheckLedger(r); err != nil {
			return err
		}
		if err := s.requisitionRepo.Update(txCtx, r); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, auditAction, r.ID.String(), card.Number, map[string]interface{}{
			"from":    from,
			"to":      r.Status,
			"details": details,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventRequisitionUpdated, r)
	return r, nil
}

func (s *requisitionService) Approve(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error) {
	return s.progress(ctx, actor, workflow.ActionApproveRequisition, id, req.ExpectedVersion, model.ActionApproveRequisition, req,
		func(_ context.Context, card *model.JobCard, r *model.PartRequisition) error {
			return workflow.Approve(actor, card, r, req.Quantity, req.Notes, s.now())
		})
}

// Disburse moves stock out of the stores in the same transaction as the
// status change; either both commit or neither does.
func (s *requisitionService) Disburse(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error) {
	var productID uuid.UUID
	r, err := s.progress(ctx, actor, workflow.ActionDisburse, id, req.ExpectedVersion, model.ActionDisburseRequisition, req,
		func(txCtx context.Context, card *model.JobCard, r *model.PartRequisition) error {
			if err := workflow.Disburse(actor, card, r, req.Quantity, req.Notes, s.now()); err != nil {
				return err
			}
			productID = r.ProductID
			_, err := s.inventory.DecrementStock(txCtx, r.ProductID, req.Quantity, r.ID)
			return err
		})
	if err != nil {
		return nil, err
	}

	s.inventory.InvalidateProduct(ctx, productID)
	s.notifier.Publish(EventStockChanged, map[string]interface{}{"product_id": productID})
	return r, nil
}

func (s *requisitionService) MarkUsed(ctx context.Context, actor workflow.Actor, id uuid.UUID, req QuantityRequest) (*model.PartRequisition, error) {
	return s.progress(ctx, actor, workflow.ActionMarkUsed, id, req.ExpectedVersion, model.ActionUseRequisition, req,
		func(_ context.Context, card *model.JobCard, r *model.PartRequisition) error {
			return workflow.MarkUsed(actor, card, r, req.Quantity, req.Notes, s.now())
		})
}

func (s *requisitionService) Reject(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReasonRequest) (*model.PartRequisition, error) {
	return s.progress(ctx, actor, workflow.ActionRejectRequisition, id, req.ExpectedVersion, model.ActionRejectRequisition, req,
		func(_ context.Context, card *model.JobCard, r *model.PartRequisition) error {
			return workflow.Reject(actor, card, r, req.Reason)
		})
}

func (s *requisitionService) MarkNotAvailable(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReasonRequest) (*model.PartRequisition, error) {
	return s.progress(ctx, actor, workflow.ActionMarkNotAvailable, id, req.ExpectedVersion, model.ActionMarkNotAvailable, req,
		func(_ context.Context, card *model.JobCard, r *model.PartRequisition) error {
			return workflow.MarkNotAvailable(actor, card, r, req.Reason)
		})
}
