package service

import (
	"context"
	"fmt"
	"strings"

	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
)

type CreateEmployeeRequest struct {
	Name  string     `json:"name" binding:"required"`
	Email string     `json:"email" binding:"required,email"`
	Role  model.Role `json:"role" binding:"required"`
}

// EmployeeService owns the staff directory and the role lookup
type EmployeeService interface {
	Create(ctx context.Context, actor workflow.Actor, req CreateEmployeeRequest) (*model.Employee, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	List(ctx context.Context, page, limit int) ([]model.Employee, int64, error)
	GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
}

type employeeService struct {
	employeeRepo repository.EmployeeRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) EmployeeService {
	return &employeeService{employeeRepo: employeeRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *employeeService) Create(ctx context.Context, actor workflow.Actor, req CreateEmployeeRequest) (*model.Employee, error) {
	if err := workflow.Authorize(actor.Role, workflow.ActionManageEmployees); err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", workflow.ErrInvalidRole, req.Role)
	}

	employee := &model.Employee{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Role:  req.Role,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.employeeRepo.Create(txCtx, employee); err != nil {
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateEmployee, employee.ID.String(), employee.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *employeeService) Get(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	return s.employeeRepo.FindByID(ctx, id)
}

func (s *employeeService) List(ctx context.Context, page, limit int) ([]model.Employee, int64, error) {
	return s.employeeRepo.List(ctx, page, limit)
}

func (s *employeeService) GetRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	employee, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return employee.Role, nil
}
