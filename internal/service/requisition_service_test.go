package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"garage/internal/model"
	"garage/internal/workflow"
)

func TestRequisitionLifecycleMovesStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	product := h.product(t, 10, "12.50")
	card := h.jobCard(t)

	r, err := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 4})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !r.UnitCost.Equal(product.Price) {
		t.Errorf("expected unit cost snapshot %s, got %s", product.Price, r.UnitCost)
	}

	if r, err = h.requisitions.Approve(ctx, h.stores, r.ID, QuantityRequest{Quantity: 4}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if r, err = h.requisitions.Disburse(ctx, h.stores, r.ID, QuantityRequest{Quantity: 3, ExpectedVersion: r.Version}); err != nil {
		t.Fatalf("disburse: %v", err)
	}
	if got := h.stock(t, product.ID); got != 7 {
		t.Fatalf("expected stock 7 after disbursing 3, got %d", got)
	}
	if got, _ := h.inventory.GetStock(ctx, product.ID); got != 7 {
		t.Errorf("cached stock not invalidated, got %d", got)
	}

	movements, err := h.inventory.ListMovements(ctx, product.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	var out *model.InventoryTransaction
	for i := range movements {
		if movements[i].TransactionType == model.TxTypeOut {
			out = &movements[i]
		}
	}
	if out == nil || out.QuantityChanged != -3 || out.StockAfter != 7 || out.RequisitionID == nil || *out.RequisitionID != r.ID {
		t.Fatalf("unexpected OUT movement: %+v", out)
	}

	if r, err = h.requisitions.MarkUsed(ctx, h.tech, r.ID, QuantityRequest{Quantity: 3}); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if r.Status != model.RequisitionUsed {
		t.Errorf("expected USED, got %s", r.Status)
	}
	if !r.TotalCost.Valid || r.TotalCost.Decimal.StringFixed(2) != "37.50" {
		t.Errorf("expected total cost 37.50, got %v", r.TotalCost)
	}

	stored, err := h.requisitions.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := workflow.CheckLedger(stored); err != nil {
		t.Errorf("stored ledger broken: %v", err)
	}

	actions := h.auditActions(t, r.ID)
	for _, a := range []string{model.ActionCreateRequisition, model.ActionApproveRequisition, model.ActionDisburseRequisition, model.ActionUseRequisition} {
		if actions[a] != 1 {
			t.Errorf("expected one %s audit row, got %d", a, actions[a])
		}
	}
	if h.events.count(EventStockChanged) == 0 {
		t.Errorf("expected a stock change event")
	}
}

func TestConcurrentDisburseOnlyOneWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	product := h.product(t, 10, "5")
	card := h.jobCard(t)

	r, err := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.requisitions.Approve(ctx, h.stores, r.ID, QuantityRequest{Quantity: 3}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.requisitions.Disburse(ctx, h.stores, r.ID, QuantityRequest{Quantity: 3})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, workflow.ErrQuantityExceedsApproval), errors.Is(err, workflow.ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one successful disbursement, got %d (%v)", ok, errs)
	}
	if got := h.stock(t, product.ID); got != 7 {
		t.Errorf("stock decremented more than once: %d", got)
	}
	if stored, _ := h.requisitions.Get(ctx, r.ID); stored.DisbursedQuantity != 3 {
		t.Errorf("expected disbursed 3, got %d", stored.DisbursedQuantity)
	}
}

func TestDisburseInsufficientStockRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	product := h.product(t, 2, "5")
	card := h.jobCard(t)

	r, _ := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 4})
	r, err := h.requisitions.Approve(ctx, h.stores, r.ID, QuantityRequest{Quantity: 4})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := h.requisitions.Disburse(ctx, h.stores, r.ID, QuantityRequest{Quantity: 4}); !errors.Is(err, workflow.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	after, _ := h.requisitions.Get(ctx, r.ID)
	if after.Status != model.RequisitionApproved || after.DisbursedQuantity != 0 || after.Version != r.Version {
		t.Errorf("failed disbursement left a trace: %+v", after)
	}
	if got := h.stock(t, product.ID); got != 2 {
		t.Errorf("stock changed on failed disbursement: %d", got)
	}
	if h.auditActions(t, r.ID)[model.ActionDisburseRequisition] != 0 {
		t.Errorf("audit row written for failed disbursement")
	}
}

func TestRequisitionGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	product := h.product(t, 10, "5")
	card := h.jobCard(t)

	if _, err := h.requisitions.Create(ctx, h.stores, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 1}); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("stores creating: expected ErrForbidden, got %v", err)
	}
	if _, err := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID}); !errors.Is(err, workflow.ErrInvalidQuantity) {
		t.Errorf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}

	r, err := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.requisitions.Approve(ctx, h.stores, r.ID, QuantityRequest{Quantity: 1, ExpectedVersion: r.Version + 1}); !errors.Is(err, workflow.ErrConflict) {
		t.Errorf("stale version: expected ErrConflict, got %v", err)
	}
	if _, err := h.requisitions.Reject(ctx, h.stores, r.ID, ReasonRequest{}); !errors.Is(err, workflow.ErrReasonRequired) {
		t.Errorf("expected ErrReasonRequired, got %v", err)
	}

	if _, err := h.jobCards.ChangeStatus(ctx, h.tech, card.ID, model.JobCardCompleted, 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := h.jobCards.Close(ctx, h.advisor, card.ID, "", 0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := h.requisitions.Approve(ctx, h.stores, r.ID, QuantityRequest{Quantity: 1}); !errors.Is(err, workflow.ErrJobCardClosed) {
		t.Errorf("closed card: expected ErrJobCardClosed, got %v", err)
	}
	if _, err := h.requisitions.Create(ctx, h.tech, card.ID, CreateRequisitionRequest{ProductID: product.ID, Quantity: 1}); !errors.Is(err, workflow.ErrJobCardClosed) {
		t.Errorf("closed card: expected ErrJobCardClosed, got %v", err)
	}
}
