package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"garage/internal/model"
	"garage/internal/workflow"

	"github.com/google/uuid"
)

func TestJobCardNumberingAndOrdering(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.jobCards.Create(ctx, h.advisor, CreateJobCardRequest{Name: "Oil", ClientID: uuid.New(), VehicleID: uuid.New()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := h.jobCards.Create(ctx, h.advisor, CreateJobCardRequest{Name: "Clutch", ClientID: uuid.New(), VehicleID: uuid.New(), Priority: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Number != "JC-20250301-00001" || second.Number != "JC-20250301-00002" {
		t.Errorf("unexpected numbers %s, %s", first.Number, second.Number)
	}
	if first.State != model.JobCardOpen || first.Version != 1 {
		t.Errorf("expected OPEN v1, got %s v%d", first.State, first.Version)
	}

	cards, total, err := h.jobCards.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || cards[0].ID != second.ID {
		t.Errorf("expected priority card first, got %+v", cards)
	}

	if _, err := h.jobCards.Create(ctx, h.tech, CreateJobCardRequest{Name: "x", ClientID: uuid.New(), VehicleID: uuid.New()}); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("expected ErrForbidden for technician, got %v", err)
	}
}

func TestJobCardFreezeCloseAndVersions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	card := h.jobCard(t)

	frozen, err := h.jobCards.Freeze(ctx, h.advisor, card.ID, "waiting on parts", card.Version)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if frozen.State != model.JobCardFrozen || frozen.Version != card.Version+1 {
		t.Fatalf("expected FROZEN at v%d, got %s v%d", card.Version+1, frozen.State, frozen.Version)
	}

	// stale copy
	if _, err := h.jobCards.Unfreeze(ctx, h.advisor, card.ID, card.Version); !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := h.timesheets.ClockIn(ctx, h.tech, card.ID, ClockRequest{}); !errors.Is(err, workflow.ErrJobCardFrozen) {
		t.Errorf("clock in on frozen card: expected ErrJobCardFrozen, got %v", err)
	}

	resumed, err := h.jobCards.Unfreeze(ctx, h.advisor, card.ID, frozen.Version)
	if err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if resumed.State != model.JobCardInProgress {
		t.Errorf("expected IN_PROGRESS after unfreeze, got %s", resumed.State)
	}

	if _, err := h.jobCards.Close(ctx, h.advisor, card.ID, "", 0); !errors.Is(err, workflow.ErrForbidden) {
		t.Errorf("advisor closing unfinished card: expected ErrForbidden, got %v", err)
	}
	closed, err := h.jobCards.Close(ctx, h.admin, card.ID, "written off", 0)
	if err != nil {
		t.Fatalf("admin close: %v", err)
	}
	if closed.State != model.JobCardClosed || closed.ClosedAt == nil {
		t.Errorf("expected CLOSED with timestamp, got %+v", closed)
	}
	if _, err := h.jobCards.SetPriority(ctx, h.advisor, card.ID, true, 0); !errors.Is(err, workflow.ErrJobCardClosed) {
		t.Errorf("expected ErrJobCardClosed, got %v", err)
	}
	if _, err := h.jobCards.ChangeStatus(ctx, h.admin, card.ID, model.JobCardOpen, 0); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition reopening a closed card, got %v", err)
	}

	actions := h.auditActions(t, card.ID)
	if actions[model.ActionFreezeJobCard] != 1 || actions[model.ActionCloseJobCard] != 1 {
		t.Errorf("unexpected audit trail: %v", actions)
	}
}

func TestJobCardMissing(t *testing.T) {
	h := newHarness(t)
	if _, err := h.jobCards.Get(context.Background(), uuid.New()); !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// the role gate is checked before the lookup
	if _, err := h.jobCards.Freeze(context.Background(), h.tech, uuid.New(), "", 0); !errors.Is(err, workflow.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRosterAndTimesheets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	card := h.jobCard(t)

	if len(card.Technicians) != 1 || card.Technicians[0].EmployeeID != h.tech.EmployeeID {
		t.Fatalf("expected technician on roster, got %+v", card.Technicians)
	}
	if _, err := h.jobCards.AssignTechnician(ctx, h.advisor, card.ID, h.tech.EmployeeID); !errors.Is(err, workflow.ErrAlreadyAssigned) {
		t.Errorf("expected ErrAlreadyAssigned, got %v", err)
	}
	if _, err := h.jobCards.AssignTechnician(ctx, h.advisor, card.ID, h.stores.EmployeeID); !errors.Is(err, workflow.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := h.jobCards.AssignTechnician(ctx, h.advisor, card.ID, uuid.New()); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown employee, got %v", err)
	}

	ts, err := h.timesheets.ClockIn(ctx, h.tech, card.ID, ClockRequest{Notes: "pads"})
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if _, err := h.timesheets.ClockIn(ctx, h.tech, card.ID, ClockRequest{}); !errors.Is(err, workflow.ErrAlreadyClockedIn) {
		t.Errorf("expected ErrAlreadyClockedIn, got %v", err)
	}

	h.clock = h.clock.Add(150 * time.Minute)
	ts, err = h.timesheets.ClockOut(ctx, h.tech, ts.ID, ClockRequest{ExpectedVersion: ts.Version})
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if got := workflow.Hours(ts).StringFixed(2); got != "2.50" {
		t.Errorf("expected 2.50 hours, got %s", got)
	}
	if _, err := h.timesheets.ClockOut(ctx, h.tech, ts.ID, ClockRequest{}); !errors.Is(err, workflow.ErrNotClockedIn) {
		t.Errorf("expected ErrNotClockedIn, got %v", err)
	}

	card, err = h.jobCards.RemoveTechnician(ctx, h.advisor, card.ID, h.tech.EmployeeID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(card.Technicians) != 0 {
		t.Errorf("roster not emptied: %+v", card.Technicians)
	}
	if _, err := h.timesheets.ClockIn(ctx, h.tech, card.ID, ClockRequest{}); !errors.Is(err, workflow.ErrNotAssigned) {
		t.Errorf("expected ErrNotAssigned after removal, got %v", err)
	}
	if _, err := h.jobCards.RemoveTechnician(ctx, h.advisor, card.ID, h.tech.EmployeeID); !errors.Is(err, workflow.ErrNotAssigned) {
		t.Errorf("expected ErrNotAssigned, got %v", err)
	}

	sheets, err := h.timesheets.ListByJobCard(ctx, card.ID)
	if err != nil || len(sheets) != 1 || !strings.Contains(sheets[0].Notes, "pads") {
		t.Errorf("unexpected timesheets %+v (%v)", sheets, err)
	}
}
