package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"garage/internal/database"
	"garage/internal/model"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewConnection("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func newCard(number string) *model.JobCard {
	return &model.JobCard{
		Number:           number,
		Name:             "Brake service",
		ClientID:         uuid.New(),
		VehicleID:        uuid.New(),
		ServiceAdvisorID: uuid.New(),
		State:            model.JobCardOpen,
		DateIn:           time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestDuplicateJobCardNumberIsConflict(t *testing.T) {
	repo := NewJobCardRepository(openDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, newCard("JC-20250301-00001")); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.Create(ctx, newCard("JC-20250301-00001"))
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDuplicateRosterEntryIsAlreadyAssigned(t *testing.T) {
	repo := NewJobCardRepository(openDB(t))
	ctx := context.Background()
	card := newCard("JC-1")
	if err := repo.Create(ctx, card); err != nil {
		t.Fatalf("create: %v", err)
	}

	entry := model.JobCardTechnician{JobCardID: card.ID, EmployeeID: uuid.New(), AssignedAt: card.DateIn}
	if err := repo.AddTechnician(ctx, &entry); err != nil {
		t.Fatalf("assign: %v", err)
	}
	again := entry
	if err := repo.AddTechnician(ctx, &again); !errors.Is(err, workflow.ErrAlreadyAssigned) {
		t.Fatalf("expected ErrAlreadyAssigned, got %v", err)
	}
}

func TestOneOpenTimesheetPerTechnician(t *testing.T) {
	db := openDB(t)
	repo := NewTimesheetRepository(db)
	ctx := context.Background()
	cardID, employeeID := uuid.New(), uuid.New()
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	first := &model.Timesheet{JobCardID: cardID, EmployeeID: employeeID, ClockIn: start}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("clock in: %v", err)
	}
	err := repo.Create(ctx, &model.Timesheet{JobCardID: cardID, EmployeeID: employeeID, ClockIn: start.Add(time.Minute)})
	if !errors.Is(err, workflow.ErrAlreadyClockedIn) {
		t.Fatalf("expected ErrAlreadyClockedIn, got %v", err)
	}

	// another technician on the same card is unaffected
	if err := repo.Create(ctx, &model.Timesheet{JobCardID: cardID, EmployeeID: uuid.New(), ClockIn: start}); err != nil {
		t.Fatalf("second technician: %v", err)
	}

	out := start.Add(time.Hour)
	first.ClockOut = &out
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if err := repo.Create(ctx, &model.Timesheet{JobCardID: cardID, EmployeeID: employeeID, ClockIn: out}); err != nil {
		t.Fatalf("clock in after clock out: %v", err)
	}
}

func TestFindByIDForUpdateInsideTx(t *testing.T) {
	db := openDB(t)
	repo := NewJobCardRepository(db)
	tm := NewTransactionManager(db)
	ctx := context.Background()

	card := newCard("JC-2")
	if err := repo.Create(ctx, card); err != nil {
		t.Fatalf("create: %v", err)
	}
	techID := uuid.New()
	if err := repo.AddTechnician(ctx, &model.JobCardTechnician{JobCardID: card.ID, EmployeeID: techID, AssignedAt: card.DateIn}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := repo.FindByIDForUpdate(txCtx, card.ID)
		if err != nil {
			return err
		}
		if locked.State != model.JobCardOpen || len(locked.Technicians) != 1 || locked.Technicians[0].EmployeeID != techID {
			t.Errorf("unexpected locked card: %+v", locked)
		}
		locked.State = model.JobCardClosed
		return repo.Update(txCtx, locked)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	if _, err := repo.FindByIDForUpdate(ctx, uuid.New()); !errors.Is(err, workflow.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	got, err := repo.FindByID(ctx, card.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.State != model.JobCardClosed || got.Version != 2 {
		t.Errorf("expected CLOSED at version 2, got %s v%d", got.State, got.Version)
	}
}
