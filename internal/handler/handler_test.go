package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garage/internal/cache"
	"garage/internal/database"
	"garage/internal/middleware"
	"garage/internal/model"
	"garage/internal/repository"
	"garage/internal/service"
	"garage/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testSecret = []byte("handler-test-secret")

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	tokens map[model.Role]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewConnection("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	productRepo := repository.NewProductRepository(db)
	jobCardRepo := repository.NewJobCardRepository(db)
	requisitionRepo := repository.NewRequisitionRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	employees := service.NewEmployeeService(employeeRepo, auditRepo, txManager)
	inventory := service.NewInventoryService(productRepo, repository.NewInventoryTxRepository(db), auditRepo, txManager, cache.NewMemory(time.Minute), nil)
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		NewEmployeeHandler(employees),
		NewInventoryHandler(inventory),
		NewJobCardHandler(service.NewJobCardService(jobCardRepo, employees, auditRepo, txManager, nil)),
		NewRequisitionHandler(service.NewRequisitionService(requisitionRepo, jobCardRepo, inventory, auditRepo, txManager, nil)),
		NewTimesheetHandler(service.NewTimesheetService(timesheetRepo, jobCardRepo, auditRepo, txManager, nil)),
		NewInvoiceHandler(service.NewInvoiceService(invoiceRepo, jobCardRepo, requisitionRepo, timesheetRepo, productRepo, auditRepo, txManager, nil,
			workflow.PaymentPolicy{}, decimal.NewFromInt(50))),
		NewAuditHandler(service.NewAuditService(auditRepo)),
	}

	router := gin.New()
	api := router.Group("/api", middleware.Authenticate(testSecret))
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	s := &testServer{router: router, tokens: map[model.Role]string{}}
	for _, role := range []model.Role{model.RoleAdmin, model.RoleServiceAdvisor, model.RoleTechnician, model.RoleStores} {
		e := &model.Employee{Name: string(role), Email: uuid.NewString() + "@garage.test", Role: role}
		if err := employeeRepo.Create(t.Context(), e); err != nil {
			t.Fatalf("seed employee: %v", err)
		}
		token, err := middleware.IssueToken(testSecret, e.ID, role)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		s.tokens[role] = token
	}
	return s
}

func (s *testServer) do(t *testing.T, role model.Role, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[role])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w.Code, env
}

func decodeID(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return v.ID
}

func TestRequisitionEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, model.RoleStores, http.MethodPost, "/api/products", map[string]interface{}{
		"sku": "BP-1", "name": "Brake pad", "price": "12.50", "initial_stock": 3,
	})
	if code != http.StatusCreated {
		t.Fatalf("create product: %d %+v", code, env)
	}
	productID := decodeID(t, env)

	code, env = s.do(t, model.RoleServiceAdvisor, http.MethodPost, "/api/job-cards", map[string]interface{}{
		"name": "Brakes", "client_id": uuid.NewString(), "vehicle_id": uuid.NewString(),
	})
	if code != http.StatusCreated {
		t.Fatalf("create job card: %d %+v", code, env)
	}
	cardID := decodeID(t, env)

	tests := []struct {
		name   string
		role   model.Role
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unauthenticated", "", http.MethodGet, "/api/job-cards", nil, http.StatusUnauthorized, ""},
		{"stores cannot request parts", model.RoleStores, http.MethodPost, "/api/job-cards/" + cardID + "/requisitions",
			map[string]interface{}{"product_id": productID, "quantity": 1}, http.StatusForbidden, "FORBIDDEN"},
		{"zero quantity", model.RoleTechnician, http.MethodPost, "/api/job-cards/" + cardID + "/requisitions",
			map[string]interface{}{"product_id": productID, "quantity": 0}, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{"unknown job card", model.RoleTechnician, http.MethodGet, "/api/job-cards/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"malformed id", model.RoleTechnician, http.MethodGet, "/api/job-cards/not-a-uuid", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"audit needs supervisor", model.RoleTechnician, http.MethodGet, "/api/audit-logs", nil, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, tt.role, tt.method, tt.path, tt.body)
			if code != tt.status {
				t.Fatalf("expected %d, got %d (%+v)", tt.status, code, env)
			}
			if tt.code != "" && env.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, env.Code)
			}
		})
	}

	code, env = s.do(t, model.RoleTechnician, http.MethodPost, "/api/job-cards/"+cardID+"/requisitions",
		map[string]interface{}{"product_id": productID, "quantity": 5})
	if code != http.StatusCreated {
		t.Fatalf("create requisition: %d %+v", code, env)
	}
	reqID := decodeID(t, env)

	if code, env = s.do(t, model.RoleStores, http.MethodPut, "/api/requisitions/"+reqID+"/approve", map[string]interface{}{"quantity": 6}); code != http.StatusUnprocessableEntity || env.Code != "QUANTITY_EXCEEDS_REQUEST" {
		t.Fatalf("over-approve: %d %+v", code, env)
	}
	if code, env = s.do(t, model.RoleStores, http.MethodPut, "/api/requisitions/"+reqID+"/approve", map[string]interface{}{"quantity": 5}); code != http.StatusOK {
		t.Fatalf("approve: %d %+v", code, env)
	}
	if code, env = s.do(t, model.RoleStores, http.MethodPut, "/api/requisitions/"+reqID+"/disburse", map[string]interface{}{"quantity": 5}); code != http.StatusConflict || env.Code != "INSUFFICIENT_STOCK" {
		t.Fatalf("disburse beyond stock: %d %+v", code, env)
	}
	if code, env = s.do(t, model.RoleStores, http.MethodPut, "/api/requisitions/"+reqID+"/disburse", map[string]interface{}{"quantity": 3, "expected_version": 1}); code != http.StatusConflict || env.Code != "CONFLICT" {
		t.Fatalf("stale disburse: %d %+v", code, env)
	}
	if code, env = s.do(t, model.RoleStores, http.MethodPut, "/api/requisitions/"+reqID+"/disburse", map[string]interface{}{"quantity": 3}); code != http.StatusOK {
		t.Fatalf("disburse: %d %+v", code, env)
	}

	code, env = s.do(t, model.RoleStores, http.MethodGet, "/api/products/"+productID, nil)
	var product model.Product
	if code != http.StatusOK || json.Unmarshal(env.Data, &product) != nil || product.CurrentStock != 0 {
		t.Errorf("expected stock 0 after disbursement, got %d %+v", code, product)
	}

	if code, _ = s.do(t, model.RoleAdmin, http.MethodGet, "/api/audit-logs", nil); code != http.StatusOK {
		t.Errorf("admin audit listing: %d", code)
	}
}
