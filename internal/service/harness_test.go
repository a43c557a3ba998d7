package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"garage/internal/cache"
	"garage/internal/database"
	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type harness struct {
	db     *gorm.DB
	events *recorder
	clock  time.Time

	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository

	employees    EmployeeService
	inventory    InventoryService
	jobCards     JobCardService
	requisitions RequisitionService
	timesheets   TimesheetService
	invoices     InvoiceService

	admin, advisor, tech, stores workflow.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.NewConnection("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	h := &harness{
		db:     db,
		events: &recorder{},
		clock:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return h.clock }

	txManager := repository.NewTransactionManager(db)
	h.auditRepo = repository.NewAuditRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	h.productRepo = repository.NewProductRepository(db)
	jobCardRepo := repository.NewJobCardRepository(db)
	requisitionRepo := repository.NewRequisitionRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	h.employees = NewEmployeeService(employeeRepo, h.auditRepo, txManager)
	h.inventory = NewInventoryService(h.productRepo, repository.NewInventoryTxRepository(db), h.auditRepo, txManager, cache.NewMemory(time.Minute), h.events)

	jc := NewJobCardService(jobCardRepo, h.employees, h.auditRepo, txManager, h.events).(*jobCardService)
	jc.now = now
	h.jobCards = jc

	rs := NewRequisitionService(requisitionRepo, jobCardRepo, h.inventory, h.auditRepo, txManager, h.events).(*requisitionService)
	rs.now = now
	h.requisitions = rs

	ts := NewTimesheetService(timesheetRepo, jobCardRepo, h.auditRepo, txManager, h.events).(*timesheetService)
	ts.now = now
	h.timesheets = ts

	is := NewInvoiceService(invoiceRepo, jobCardRepo, requisitionRepo, timesheetRepo, h.productRepo, h.auditRepo, txManager, h.events,
		workflow.PaymentPolicy{Epsilon: decimal.RequireFromString("0.01")}, decimal.NewFromInt(40)).(*invoiceService)
	is.now = now
	h.invoices = is

	h.admin = h.employee(t, employeeRepo, "Admin", model.RoleAdmin)
	h.advisor = h.employee(t, employeeRepo, "Advisor", model.RoleServiceAdvisor)
	h.tech = h.employee(t, employeeRepo, "Tech", model.RoleTechnician)
	h.stores = h.employee(t, employeeRepo, "Stores", model.RoleStores)
	return h
}

func (h *harness) employee(t *testing.T, repo repository.EmployeeRepository, name string, role model.Role) workflow.Actor {
	t.Helper()
	e := &model.Employee{Name: name, Email: uuid.NewString() + "@garage.test", Role: role}
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("create employee %s: %v", name, err)
	}
	return workflow.Actor{EmployeeID: e.ID, Role: role}
}

func (h *harness) product(t *testing.T, stock int, price string) *model.Product {
	t.Helper()
	p, err := h.inventory.CreateProduct(context.Background(), h.stores, CreateProductRequest{
		SKU:          "SKU-" + uuid.NewString()[:8],
		Name:         "Brake pad",
		Price:        decimal.RequireFromString(price),
		InitialStock: stock,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// jobCard opens a card and moves it to IN_PROGRESS with the harness
// technician on the roster.
func (h *harness) jobCard(t *testing.T) *model.JobCard {
	t.Helper()
	ctx := context.Background()
	card, err := h.jobCards.Create(ctx, h.advisor, CreateJobCardRequest{
		Name:      "Front brakes",
		ClientID:  uuid.New(),
		VehicleID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("create job card: %v", err)
	}
	if _, err := h.jobCards.AssignTechnician(ctx, h.advisor, card.ID, h.tech.EmployeeID); err != nil {
		t.Fatalf("assign technician: %v", err)
	}
	card, err = h.jobCards.ChangeStatus(ctx, h.tech, card.ID, model.JobCardInProgress, 0)
	if err != nil {
		t.Fatalf("start job card: %v", err)
	}
	return card
}

func (h *harness) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	p, err := h.productRepo.FindByID(context.Background(), productID)
	if err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.CurrentStock
}

func (h *harness) auditActions(t *testing.T, entityID uuid.UUID) map[string]int {
	t.Helper()
	logs, err := h.auditRepo.ListByEntity(context.Background(), entityID.String())
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	out := make(map[string]int, len(logs))
	for _, l := range logs {
		out[l.Action]++
	}
	return out
}
