package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
)

type CreateJobCardRequest struct {
	Name                string     `json:"name" binding:"required"`
	ClientID            uuid.UUID  `json:"client_id" binding:"required" swaggertype:"string"`
	VehicleID           uuid.UUID  `json:"vehicle_id" binding:"required" swaggertype:"string"`
	SupervisorID        *uuid.UUID `json:"supervisor_id" swaggertype:"string"`
	Priority            bool       `json:"priority"`
	DateIn              *time.Time `json:"date_in"`
	EstimatedCompletion *time.Time `json:"estimated_completion"`
	Deadline            *time.Time `json:"deadline"`
	StateChecklistID    *uuid.UUID `json:"state_checklist_id" swaggertype:"string"`
	ServiceChecklistID  *uuid.UUID `json:"service_checklist_id" swaggertype:"string"`
	ControlChecklistID  *uuid.UUID `json:"control_checklist_id" swaggertype:"string"`
}

type JobCardService interface {
	Create(ctx context.Context, actor workflow.Actor, req CreateJobCardRequest) (*model.JobCard, error)
	Get(ctx context.Context, id uuid.UUID) (*model.JobCard, error)
	List(ctx context.Context, page, limit int) ([]model.JobCard, int64, error)

	ChangeStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, target model.JobCardState, expectedVersion int64) (*model.JobCard, error)
	Freeze(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string, expectedVersion int64) (*model.JobCard, error)
	Unfreeze(ctx context.Context, actor workflow.Actor, id uuid.UUID, expectedVersion int64) (*model.JobCard, error)
	Close(ctx context.Context, actor workflow.Actor, id uuid.UUID, notes string, expectedVersion int64) (*model.JobCard, error)
	SetPriority(ctx context.Context, actor workflow.Actor, id uuid.UUID, flag bool, expectedVersion int64) (*model.JobCard, error)

	AssignTechnician(ctx context.Context, actor workflow.Actor, id, employeeID uuid.UUID) (*model.JobCard, error)
	RemoveTechnician(ctx context.Context, actor workflow.Actor, id, employeeID uuid.UUID) (*model.JobCard, error)
}

type jobCardService struct {
	jobCardRepo repository.JobCardRepository
	employees   EmployeeService
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    Notifier
	now         func() time.Time
}

func NewJobCardService(
	jobCardRepo repository.JobCardRepository,
	employees EmployeeService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) JobCardService {
	return &jobCardService{
		jobCardRepo: jobCardRepo,
		employees:   employees,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifierOrNop(notifier),
		now:         utcNow,
	}
}

func (s *jobCardService) Create(ctx context.Context, actor workflow.Actor, req CreateJobCardRequest) (*model.JobCard, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionCreateJobCard); err != nil {
		return nil, err
	}

	now := s.now()
	card := &model.JobCard{
		Name:                strings.TrimSpace(req.Name),
		ClientID:            req.ClientID,
		VehicleID:           req.VehicleID,
		ServiceAdvisorID:    actor.EmployeeID,
		SupervisorID:        req.SupervisorID,
		State:               model.JobCardOpen,
		Priority:            req.Priority,
		DateIn:              now,
		EstimatedCompletion: req.EstimatedCompletion,
		Deadline:            req.Deadline,
		StateChecklistID:    req.StateChecklistID,
		ServiceChecklistID:  req.ServiceChecklistID,
		ControlChecklistID:  req.ControlChecklistID,
	}
	if req.DateIn != nil {
		card.DateIn = req.DateIn.UTC()
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := nextNumber(txCtx, "JC", now, s.jobCardRepo.CountByPrefix)
		if err != nil {
			return fmt.Errorf("failed to generate job card number: %w", err)
		}
		card.Number = number
		if err := s.jobCardRepo.Create(txCtx, card); err != nil {
			return fmt.Errorf("failed to create job card: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateJobCard, card.ID.String(), card.Number, req)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventJobCardUpdated, card)
	return card, nil
}

func (s *jobCardService) Get(ctx context.Context, id uuid.UUID) (*model.JobCard, error) {
	return s.jobCardRepo.FindByID(ctx, id)
}

func (s *jobCardService) List(ctx context.Context, page, limit int) ([]model.JobCard, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.jobCardRepo.List(ctx, page, limit)
}

// mutate runs one guarded command against a job card: role gate, load,
// version check, transition, versioned write and audit row in a single
// transaction. The event goes out only after commit.
func (s *jobCardService) mutate(
	ctx context.Context,
	actor workflow.Actor,
	action workflow.Action,
	id uuid.UUID,
	expectedVersion int64,
	auditAction string,
	details interface{},
	apply func(txCtx context.Context, card *model.JobCard) error,
) (*model.JobCard, error) {
	if err := workflow.Authorize(actor.Role, action); err != nil {
		return nil, err
	}

	var card *model.JobCard
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		card, err = s.jobCardRepo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(card.Version, expectedVersion); err != nil {
			return err
		}
		from := card.State
		if err := apply(txCtx, card); err != nil {
			return err
		}
		if err := s.jobCardRepo.Update(txCtx, card); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, auditAction, card.ID.String(), card.Number, map[string]interface{}{
			"from":    from,
			"to":      card.State,
			"details": details,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(EventJobCardUpdated, card)
	return card, nil
}

func (s *jobCardService) ChangeStatus(ctx context.Context, actor workflow.Actor, id uuid.UUID, target model.JobCardState, expectedVersion int64) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionChangeJobCardStatus, id, expectedVersion, model.ActionChangeJobCardStatus, nil,
		func(_ context.Context, card *model.JobCard) error {
			return workflow.ChangeStatus(actor, card, target, s.now())
		})
}

func (s *jobCardService) Freeze(ctx context.Context, actor workflow.Actor, id uuid.UUID, reason string, expectedVersion int64) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionFreezeJobCard, id, expectedVersion, model.ActionFreezeJobCard, map[string]string{"reason": reason},
		func(_ context.Context, card *model.JobCard) error {
			return workflow.Freeze(actor, card, reason, s.now())
		})
}

func (s *jobCardService) Unfreeze(ctx context.Context, actor workflow.Actor, id uuid.UUID, expectedVersion int64) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionUnfreezeJobCard, id, expectedVersion, model.ActionUnfreezeJobCard, nil,
		func(_ context.Context, card *model.JobCard) error {
			return workflow.Unfreeze(actor, card)
		})
}

func (s *jobCardService) Close(ctx context.Context, actor workflow.Actor, id uuid.UUID, notes string, expectedVersion int64) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionCloseJobCard, id, expectedVersion, model.ActionCloseJobCard, map[string]string{"notes": notes},
		func(_ context.Context, card *model.JobCard) error {
			return workflow.Close(actor, card, notes, s.now())
		})
}

func (s *jobCardService) SetPriority(ctx context.Context, actor workflow.Actor, id uuid.UUID, flag bool, expectedVersion int64) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionSetPriority, id, expectedVersion, model.ActionSetPriority, map[string]bool{"priority": flag},
		func(_ context.Context, card *model.JobCard) error {
			return workflow.SetPriority(actor, card, flag)
		})
}

// AssignTechnician looks the employee up before the transaction opens.
func (s *jobCardService) AssignTechnician(ctx context.Context, actor workflow.Actor, id, employeeID uuid.UUID) (*model.JobCard, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionAssignTechnician); err != nil {
		return nil, err
	}
	employee, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("employee %s: %w", employeeID, err)
	}

	return s.mutate(ctx, actor, workflow.ActionAssignTechnician, id, 0, model.ActionAssignTechnician, map[string]string{"employee_id": employeeID.String()},
		func(txCtx context.Context, card *model.JobCard) error {
			entry, err := workflow.Assign(actor, card, employee, s.now())
			if err != nil {
				return err
			}
			return s.jobCardRepo.AddTechnician(txCtx, &entry)
		})
}

func (s *jobCardService) RemoveTechnician(ctx context.Context, actor workflow.Actor, id, employeeID uuid.UUID) (*model.JobCard, error) {
	return s.mutate(ctx, actor, workflow.ActionRemoveTechnician, id, 0, model.ActionRemoveTechnician, map[string]string{"employee_id": employeeID.String()},
		func(txCtx context.Context, card *model.JobCard) error {
			if err := workflow.Remove(actor, card, employeeID); err != nil {
				return err
			}
			return s.jobCardRepo.RemoveTechnician(txCtx, card.ID, employeeID)
		})
}
