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

type ClockRequest struct {
	Notes           string `json:"notes"`
	ExpectedVersion int64  `json:"expected_version"`
}

type TimesheetService interface {
	ClockIn(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req ClockRequest) (*model.Timesheet, error)
	ClockOut(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ClockRequest) (*model.Timesheet, error)
	ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.Timesheet, error)
}

type timesheetService struct {
	timesheetRepo repository.TimesheetRepository
	jobCardRepo   repository.JobCardRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      Notifier
	now           func() time.Time
}

func NewTimesheetService(
	timesheetRepo repository.TimesheetRepository,
	jobCardRepo repository.JobCardRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) TimesheetService {
	return &timesheetService{
		timesheetRepo: timesheetRepo,
		jobCardRepo:   jobCardRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifierOrNop(notifier),
		now:           utcNow,
	}
}

func (s *timesheetService) ClockIn(ctx context.Context, actor workflow.Actor, jobCardID uuid.UUID, req ClockRequest) (*model.Timesheet, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionClockIn); err != nil {
		return nil, err
	}

	var ts *model.Timesheet
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		card, err := s.jobCardRepo.FindByIDForUpdate(txCtx, jobCardID)
		if err != nil {
			return err
		}
		open, err := s.timesheetRepo.HasOpen(txCtx, card.ID, actor.EmployeeID)
		if err != nil {
			return err
		}
		ts, err = workflow.ClockIn(actor, card, open, req.Notes, s.now())
		if err != nil {
			return err
		}
		if err := s.timesheetRepo.Create(txCtx, ts); err != nil {
			return fmt.Errorf("failed to create timesheet: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionClockIn, ts.ID.String(), card.Number, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventTimesheetUpdated, ts)
	return ts, nil
}

func (s *timesheetService) ClockOut(ctx context.Context, actor workflow.Actor, id uuid.UUID, req ClockRequest) (*model.Timesheet, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionClockOut); err != nil {
		return nil, err
	}

	var ts *model.Timesheet
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		ts, err = s.timesheetRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(ts.Version, req.ExpectedVersion); err != nil {
			return err
		}
		if err := workflow.ClockOut(actor, ts, req.Notes, s.now()); err != nil {
			return err
		}
		if err := s.timesheetRepo.Update(txCtx, ts); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionClockOut, ts.ID.String(), "", map[string]interface{}{
			"job_card_id": ts.JobCardID,
			"hours":       workflow.Hours(ts),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventTimesheetUpdated, ts)
	return ts, nil
}

func (s *timesheetService) ListByJobCard(ctx context.Context, jobCardID uuid.UUID) ([]model.Timesheet, error) {
	return s.timesheetRepo.ListByJobCard(ctx, jobCardID)
}
