package handler

import (
	"net/http"

	"garage/internal/service"
	"garage/pkg/pagination"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/job-cards/:id/invoice", h.CreateFromJobCard)

	invoices := api.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
		invoices.PUT("/:id/items", h.ReplaceItems)
		invoices.PUT("/:id/status", h.UpdateStatus)
		invoices.POST("/:id/payments", h.AddPayment)
	}
}

// Create drafts an invoice from explicit lines
// @Summary      Create invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// CreateFromJobCard drafts an invoice from the parts and labor of a finished job card
// @Summary      Invoice a job card
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Job card ID"
// @Param        payload  body      service.InvoiceFromJobCardRequest  true  "Rates and due date"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/job-cards/{id}/invoice [post]
func (h *InvoiceHandler) CreateFromJobCard(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	jobCardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.InvoiceFromJobCardRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.CreateFromJobCard(c.Request.Context(), actor, jobCardID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// List pages through invoices, optionally by status
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "DRAFT, SENT, PAID, OVERDUE or CANCELLED"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	invoices, total, err := h.invoiceService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, invoices, total, p.Page, p.Limit))
}

// Get returns an invoice with its derived amounts
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// ReplaceItems swaps the lines of a draft
// @Summary      Replace invoice items
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Invoice ID"
// @Param        payload  body      service.ReplaceItemsRequest  true  "Lines"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Router       /api/invoices/{id}/items [put]
func (h *InvoiceHandler) ReplaceItems(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ReplaceItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.ReplaceItems(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// UpdateStatus sends or cancels an invoice
// @Summary      Update invoice status
// @Description  Only SENT and CANCELLED can be requested
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.InvoiceStatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.InvoiceStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// AddPayment records money received
// @Summary      Add payment
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Invoice ID"
// @Param        payload  body      service.AddPaymentRequest  true  "Payment"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/invoices/{id}/payments [post]
func (h *InvoiceHandler) AddPayment(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AddPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.invoiceService.AddPayment(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}
