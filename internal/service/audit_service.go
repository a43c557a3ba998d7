package service

import (
	"context"

	"garage/internal/repository"
)

type AuditLogResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Action       string `json:"action"`
	EntityID     string `json:"entity_id"`
	EntityName   string `json:"entity_name"`
	Details      string `json:"details"`
	CreatedAt    string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// GetAuditLogs pages through the trail newest first with the acting employee joined in
func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		employeeID := ""
		if l.Employee != nil {
			name = l.Employee.Name
		}
		if l.EmployeeID != nil {
			employeeID = l.EmployeeID.String()
		}

		res = append(res, AuditLogResponse{
			ID:           l.ID.String(),
			EmployeeID:   employeeID,
			EmployeeName: name,
			Action:       l.Action,
			EntityID:     l.EntityID,
			EntityName:   l.EntityName,
			Details:      l.Details,
			CreatedAt:    l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
