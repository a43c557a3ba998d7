package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
)

// Workflow events pushed to subscribers after commit
const (
	EventJobCardUpdated     = "job_card.updated"
	EventRequisitionUpdated = "requisition.updated"
	EventTimesheetUpdated   = "timesheet.updated"
	EventInvoiceUpdated     = "invoice.updated"
	EventStockChanged       = "inventory.stock_changed"
)

// Notifier receives committed workflow events. Publish must not block.
type Notifier interface {
	Publish(event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// SystemActor runs scheduled work; its audit rows carry no employee
var SystemActor = workflow.Actor{Role: model.RoleAdmin}

func utcNow() time.Time { return time.Now().UTC() }

// checkVersion fails when the caller acted on a stale copy. Zero means the
// caller did not send one.
func checkVersion(current, expected int64) error {
	if expected != 0 && expected != current {
		return fmt.Errorf("%w: expected version %d, found %d", workflow.ErrConflict, expected, current)
	}
	return nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, actor workflow.Actor, action, entityID, entityName string, details interface{}) error {
	var uid *uuid.UUID
	if actor.EmployeeID != uuid.Nil {
		id := actor.EmployeeID
		uid = &id
	}

	raw, _ := json.Marshal(details)
	entry := &model.AuditLog{
		EmployeeID: uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func nextNumber(ctx context.Context, prefix string, now time.Time, count func(context.Context, string) (int64, error)) (string, error) {
	full := prefix + "-" + now.Format("20060102") + "-"
	n, err := count(ctx, full)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", full, n+1), nil
}
