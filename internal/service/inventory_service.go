package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"garage/internal/cache"
	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type CreateProductRequest struct {
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	InitialStock int             `json:"initial_stock" binding:"min=0"`
}

type ReceiveStockRequest struct {
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	Note     string `json:"note"`
}

// InventoryService is the stores collaborator the requisition workflow
// draws stock from.
type InventoryService interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetStock(ctx context.Context, id uuid.UUID) (int, error)
	// DecrementStock must run inside the caller's transaction
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int, requisitionID uuid.UUID) (int, error)
	InvalidateProduct(ctx context.Context, id uuid.UUID)

	ListProducts(ctx context.Context, page, limit int) ([]model.Product, int64, error)
	CreateProduct(ctx context.Context, actor workflow.Actor, req CreateProductRequest) (*model.Product, error)
	ReceiveStock(ctx context.Context, actor workflow.Actor, productID uuid.UUID, req ReceiveStockRequest) (*model.Product, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]model.InventoryTransaction, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	invTxRepo   repository.InventoryTxRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	cache       cache.Cache
	notifier    Notifier
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	invTxRepo repository.InventoryTxRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	c cache.Cache,
	notifier Notifier,
) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		invTxRepo:   invTxRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		cache:       c,
		notifier:    notifierOrNop(notifier),
	}
}

func productKey(id uuid.UUID) string { return "product:" + id.String() }

// GetProduct reads through the cache. Stock figures from here are advisory;
// disbursement re-reads the row under lock.
func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var cached model.Product
	if s.cache != nil {
		err := s.cache.Get(ctx, productKey(id), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("product cache read failed for %s: %v", id, err)
		}
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, productKey(id), product); err != nil {
			log.Printf("product cache write failed for %s: %v", id, err)
		}
	}
	return product, nil
}

func (s *inventoryService) GetStock(ctx context.Context, id uuid.UUID) (int, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.CurrentStock, nil
}

func (s *inventoryService) DecrementStock(ctx context.Context, productID uuid.UUID, qty int, requisitionID uuid.UUID) (int, error) {
	if qty <= 0 {
		return 0, workflow.ErrInvalidQuantity
	}
	product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return 0, err
	}
	if product.CurrentStock < qty {
		return 0, fmt.Errorf("%w: %s has %d, need %d", workflow.ErrInsufficientStock, product.SKU, product.CurrentStock, qty)
	}
	if err := s.productRepo.DecrementStock(ctx, productID, qty); err != nil {
		return 0, err
	}

	stockAfter := product.CurrentStock - qty
	reqID := requisitionID
	movement := &model.InventoryTransaction{
		ProductID:       productID,
		RequisitionID:   &reqID,
		TransactionType: model.TxTypeOut,
		QuantityChanged: -qty,
		StockAfter:      stockAfter,
		Note:            "requisition disbursement",
	}
	if err := s.invTxRepo.Create(ctx, movement); err != nil {
		return 0, fmt.Errorf("failed to record inventory transaction: %w", err)
	}
	return stockAfter, nil
}

func (s *inventoryService) InvalidateProduct(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productKey(id)); err != nil {
		log.Printf("product cache invalidation failed for %s: %v", id, err)
	}
}

func (s *inventoryService) ListProducts(ctx context.Context, page, limit int) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, page, limit)
}

func (s *inventoryService) CreateProduct(ctx context.Context, actor workflow.Actor, req CreateProductRequest) (*model.Product, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionManageInventory); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() || req.InitialStock < 0 {
		return nil, workflow.ErrInvalidQuantity
	}

	product := &model.Product{
		SKU:          strings.TrimSpace(req.SKU),
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		CurrentStock: req.InitialStock,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if req.InitialStock > 0 {
			movement := &model.InventoryTransaction{
				ProductID:       product.ID,
				TransactionType: model.TxTypeIn,
				QuantityChanged: req.InitialStock,
				StockAfter:      req.InitialStock,
				Note:            "initial stock",
			}
			if err := s.invTxRepo.Create(txCtx, movement); err != nil {
				return fmt.Errorf("failed to record inventory transaction: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) ReceiveStock(ctx context.Context, actor workflow.Actor, productID uuid.UUID, req ReceiveStockRequest) (*model.Product, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionManageInventory); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, workflow.ErrInvalidQuantity
	}

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		if err := s.productRepo.IncrementStock(txCtx, productID, req.Quantity); err != nil {
			return err
		}
		product.CurrentStock += req.Quantity

		movement := &model.InventoryTransaction{
			ProductID:       productID,
			TransactionType: model.TxTypeIn,
			QuantityChanged: req.Quantity,
			StockAfter:      product.CurrentStock,
			Note:            req.Note,
		}
		if err := s.invTxRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record inventory transaction: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionReceiveStock, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateProduct(ctx, productID)
	s.notifier.Publish(EventStockChanged, map[string]interface{}{
		"product_id":    productID,
		"current_stock": product.CurrentStock,
	})
	return product, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, productID uuid.UUID) ([]model.InventoryTransaction, error) {
	return s.invTxRepo.ListByProduct(ctx, productID)
}
