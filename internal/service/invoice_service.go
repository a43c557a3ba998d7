package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
	ItemType    model.ItemType  `json:"item_type" binding:"required"`
}

type CreateInvoiceRequest struct {
	JobCardID          *uuid.UUID           `json:"job_card_id" swaggertype:"string"`
	ClientID           uuid.UUID            `json:"client_id" binding:"required" swaggertype:"string"`
	VehicleID          uuid.UUID            `json:"vehicle_id" binding:"required" swaggertype:"string"`
	TaxRate            decimal.Decimal      `json:"tax_rate" swaggertype:"string"`
	DiscountPercentage decimal.Decimal      `json:"discount_percentage" swaggertype:"string"`
	DueDate            *time.Time           `json:"due_date"`
	Notes              string               `json:"notes"`
	Items              []InvoiceItemRequest `json:"items" binding:"dive"`
}

type InvoiceFromJobCardRequest struct {
	TaxRate            decimal.Decimal `json:"tax_rate" swaggertype:"string"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" swaggertype:"string"`
	DueDate            *time.Time      `json:"due_date"`
	Notes              string          `json:"notes"`
}

type ReplaceItemsRequest struct {
	Items           []InvoiceItemRequest `json:"items" binding:"dive"`
	ExpectedVersion int64                `json:"expected_version"`
}

type InvoiceStatusRequest struct {
	Status          model.InvoiceStatus `json:"status" binding:"required"`
	ExpectedVersion int64               `json:"expected_version"`
}

type AddPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" swaggertype:"string"`
	Method          string          `json:"method" binding:"required"`
	PaidAt          *time.Time      `json:"paid_at"`
	Notes           string          `json:"notes"`
	ExpectedVersion int64           `json:"expected_version"`
}

// InvoiceResponse carries the stored invoice plus its derived amounts
type InvoiceResponse struct {
	model.Invoice
	Summary workflow.Summary `json:"summary"`
}

func toInvoiceResponse(inv *model.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: *inv, Summary: workflow.SummarizeInvoice(inv)}
}

type InvoiceService interface {
	Create(ctx context.Context, actor workflow.Actor, req CreateInvoiceRequest) (*InvoiceResponse, error)
	CreateFromJobCard(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req InvoiceFromJobCardRequest) (*InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error)
	List(ctx context.Context, status string, page, limit int) ([]InvoiceResponse, int64, error)

	ReplaceItems(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReplaceItemsRequest) (*InvoiceResponse, error)
	UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, req InvoiceStatusRequest) (*InvoiceResponse, error)
	AddPayment(ctx context.Context, actor workflow.Actor, id uuid.UUID, req AddPaymentRequest) (*InvoiceResponse, error)
	SweepOverdue(ctx context.Context) (int, error)
}

type invoiceService struct {
	invoiceRepo     repository.InvoiceRepository
	jobCardRepo     repository.JobCardRepository
	requisitionRepo repository.RequisitionRepository
	timesheetRepo   repository.TimesheetRepository
	productRepo     repository.ProductRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	notifier        Notifier
	policy          workflow.PaymentPolicy
	laborRate       decimal.Decimal
	now             func() time.Time
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	jobCardRepo repository.JobCardRepository,
	requisitionRepo repository.RequisitionRepository,
	timesheetRepo repository.TimesheetRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	policy workflow.PaymentPolicy,
	laborRate decimal.Decimal,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:     invoiceRepo,
		jobCardRepo:     jobCardRepo,
		requisitionRepo: requisitionRepo,
		timesheetRepo:   timesheetRepo,
		productRepo:     productRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		notifier:        notifierOrNop(notifier),
		policy:          policy,
		laborRate:       laborRate,
		now:             utcNow,
	}
}

func toItems(reqs []InvoiceItemRequest) []model.InvoiceItem {
	items := make([]model.InvoiceItem, 0, len(reqs))
	for i, r := range reqs {
		items = append(items, model.InvoiceItem{
			Position:    i,
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			ItemType:    r.ItemType,
		})
	}
	return items
}

func (s *invoiceService) Create(ctx context.Context, actor workflow.Actor, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionManageInvoice); err != nil {
		return nil, err
	}
	items := toItems(req.Items)
	if err := workflow.ValidateInvoiceInput(items, req.TaxRate, req.DiscountPercentage); err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		JobCardID:          req.JobCardID,
		ClientID:           req.ClientID,
		VehicleID:          req.VehicleID,
		TaxRate:            req.TaxRate,
		DiscountPercentage: req.DiscountPercentage,
		Status:             model.InvoiceDraft,
		DueDate:            req.DueDate,
		Notes:              req.Notes,
		Items:              items,
	}
	if err := s.insert(ctx, actor, inv); err != nil {
		return nil, err
	}
	res := toInvoiceResponse(inv)
	s.notifier.Publish(EventInvoiceUpdated, res)
	return res, nil
}

// CreateFromJobCard seeds a draft from the parts fitted and the hours worked.
func (s *invoiceService) CreateFromJobCard(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req InvoiceFromJobCardRequest) (*InvoiceResponse, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionManageInvoice); err != nil {
		return nil, err
	}

	var inv *model.Invoice
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		card, err := s.jobCardRepo.FindByID(txCtx, jobCardID)
		if err != nil {
			return err
		}
		reqs, err := s.requisitionRepo.ListByJobCard(txCtx, card.ID)
		if err != nil {
			return err
		}
		sheets, err := s.timesheetRepo.ListByJobCard(txCtx, card.ID)
		if err != nil {
			return err
		}
		names := make(map[uuid.UUID]string, len(reqs))
		for _, r := range reqs {
			if r.Product != nil {
				names[r.ProductID] = r.Product.Name
			}
		}

		items, err := workflow.SeedFromJobCard(card, reqs, sheets, s.laborRate, names)
		if err != nil {
			return err
		}
		if err := workflow.ValidateInvoiceInput(items, req.TaxRate, req.DiscountPercentage); err != nil {
			return err
		}

		cardID := card.ID
		inv = &model.Invoice{
			JobCardID:          &cardID,
			ClientID:           card.ClientID,
			VehicleID:          card.VehicleID,
			TaxRate:            req.TaxRate,
			DiscountPercentage: req.DiscountPercentage,
			Status:             model.InvoiceDraft,
			DueDate:            req.DueDate,
			Notes:              req.Notes,
			Items:              items,
		}
		return s.insert(txCtx, actor, inv)
	})
	if err != nil {
		return nil, err
	}
	res := toInvoiceResponse(inv)
	s.notifier.Publish(EventInvoiceUpdated, res)
	return res, nil
}

func (s *invoiceService) insert(ctx context.Context, actor workflow.Actor, inv *model.Invoice) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := nextNumber(txCtx, "INV", s.now(), s.invoiceRepo.CountByPrefix)
		if err != nil {
			return fmt.Errorf("failed to generate invoice number: %w", err)
		}
		inv.InvoiceNo = number
		if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateInvoice, inv.ID.String(), inv.InvoiceNo, map[string]interface{}{
			"job_card_id": inv.JobCardID,
			"items":       len(inv.Items),
			"summary":     workflow.SummarizeInvoice(inv),
		})
	})
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, status string, page, limit int) ([]InvoiceResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	invoices, total, err := s.invoiceRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, *toInvoiceResponse(&invoices[i]))
	}
	return res, total, nil
}

func (s *invoiceService) mutate(
	ctx context.Context,
	actor workflow.Actor,
	action workflow.Action,
	id uuid.UUID,
	expectedVersion int64,
	auditAction string,
	apply func(txCtx context.Context, inv *model.Invoice) (interface{}, error),
) (*InvoiceResponse, error) {
	if err := workflow.Authorize(actor.Role, action); err != nil {
		return nil, err
	}

	var inv *model.Invoice
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		inv, err = s.invoiceRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(inv.Version, expectedVersion); err != nil {
			return err
		}
		from := inv.Status
		details, err := apply(txCtx, inv)
		if err != nil {
			return err
		}
		if err := s.invoiceRepo.Update(txCtx, inv); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, auditAction, inv.ID.String(), inv.InvoiceNo, map[string]interface{}{
			"from":    from,
			"to":      inv.Status,
			"details": details,
			"summary": workflow.SummarizeInvoice(inv),
		})
	})
	if err != nil {
		return nil, err
	}

	res := toInvoiceResponse(inv)
	s.notifier.Publish(EventInvoiceUpdated, res)
	return res, nil
}

func (s *invoiceService) ReplaceItems(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ReplaceItemsRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, actor, workflow.ActionManageInvoice, id, req.ExpectedVersion, model.ActionReplaceInvoiceItems,
		func(txCtx context.Context, inv *model.Invoice) (interface{}, error) {
			if err := workflow.ReplaceItems(actor, inv, toItems(req.Items)); err != nil {
				return nil, err
			}
			if err := s.invoiceRepo.ReplaceItems(txCtx, inv.ID, inv.Items); err != nil {
				return nil, fmt.Errorf("failed to replace invoice items: %w", err)
			}
			return map[string]int{"items": len(inv.Items)}, nil
		})
}

func (s *invoiceService) UpdateStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, req InvoiceStatusRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, actor, workflow.ActionUpdateInvoiceStatus, id, req.ExpectedVersion, model.ActionUpdateInvoiceStatus,
		func(_ context.Context, inv *model.Invoice) (interface{}, error) {
			return nil, workflow.ChangeInvoiceStatus(actor, inv, req.Status, s.now())
		})
}

// AddPayment bumps the invoice version even when the status stays put, so two
// concurrent payments cannot both pass the balance check.
func (s *invoiceService) AddPayment(ctx context.Context, actor workflow.Actor, id uuid.UUID, req AddPaymentRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, actor, workflow.ActionAddPayment, id, req.ExpectedVersion, model.ActionAddPayment,
		func(txCtx context.Context, inv *model.Invoice) (interface{}, error) {
			var paidAt time.Time
			if req.PaidAt != nil {
				paidAt = req.PaidAt.UTC()
			}
			payment, err := workflow.ApplyPayment(actor, inv, req.Amount, req.Method, paidAt, req.Notes, s.policy, s.now())
			if err != nil {
				return nil, err
			}
			if err := s.invoiceRepo.AddPayment(txCtx, payment); err != nil {
				return nil, fmt.Errorf("failed to record payment: %w", err)
			}
			return map[string]interface{}{"amount": payment.Amount, "method": payment.Method}, nil
		})
}

// SweepOverdue flips every Sent invoice that is past due and still owed.
// Each invoice commits on its own; a conflict skips it until the next run.
func (s *invoiceService) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.invoiceRepo.ListOverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	flipped := 0
	for i := range candidates {
		inv := &candidates[i]
		if !workflow.MarkOverdue(inv, now, s.policy) {
			continue
		}
		err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.invoiceRepo.Update(txCtx, inv); err != nil {
				return err
			}
			return writeAudit(txCtx, s.auditRepo, SystemActor, model.ActionMarkOverdue, inv.ID.String(), inv.InvoiceNo, map[string]interface{}{
				"due_date": inv.DueDate,
				"summary":  workflow.SummarizeInvoice(inv),
			})
		})
		if errors.Is(err, workflow.ErrConflict) {
			log.Printf("overdue sweep: %s changed concurrently, skipping", inv.InvoiceNo)
			continue
		}
		if err != nil {
			return flipped, fmt.Errorf("failed to mark %s overdue: %w", inv.InvoiceNo, err)
		}
		flipped++
		s.notifier.Publish(EventInvoiceUpdated, toInvoiceResponse(inv))
	}
	return flipped, nil
}
