package handler

import (
	"context"
	"net/http"

	"garage/internal/model"
	"garage/internal/service"
	"garage/internal/workflow"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequisitionHandler struct {
	requisitionService service.RequisitionService
}

func NewRequisitionHandler(requisitionService service.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{requisitionService: requisitionService}
}

func (h *RequisitionHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/job-cards/:id/requisitions", h.Create)
	api.GET("/job-cards/:id/requisitions", h.ListByJobCard)

	reqs := api.Group("/requisitions")
	{
		reqs.GET("/:id", h.Get)
		reqs.PUT("/:id/approve", h.quantity(h.requisitionService.Approve))
		reqs.PUT("/:id/disburse", h.quantity(h.requisitionService.Disburse))
		reqs.PUT("/:id/use", h.quantity(h.requisitionService.MarkUsed))
		reqs.PUT("/:id/reject", h.reason(h.requisitionService.Reject))
		reqs.PUT("/:id/not-available", h.reason(h.requisitionService.MarkNotAvailable))
	}
}

// Create requests parts against a job card
// @Summary      Create requisition
// @Tags         requisitions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Job card ID"
// @Param        payload  body      service.CreateRequisitionRequest  true  "Product and quantity"
// @Success      201      {object}  response.Response{data=model.PartRequisition}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/job-cards/{id}/requisitions [post]
func (h *RequisitionHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	jobCardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateRequisitionRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.requisitionService.Create(c.Request.Context(), actor, jobCardID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, r))
}

// ListByJobCard returns every requisition line of a job card
// @Summary      List requisitions of a job card
// @Tags         requisitions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job card ID"
// @Success      200  {object}  response.Response{data=[]model.PartRequisition}
// @Router       /api/job-cards/{id}/requisitions [get]
func (h *RequisitionHandler) ListByJobCard(c *gin.Context) {
	jobCardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reqs, err := h.requisitionService.ListByJobCard(c.Request.Context(), jobCardID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, reqs))
}

// Get returns one requisition line
// @Summary      Get requisition
// @Tags         requisitions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Requisition ID"
// @Success      200  {object}  response.Response{data=model.PartRequisition}
// @Failure      404  {object}  response.Response
// @Router       /api/requisitions/{id} [get]
func (h *RequisitionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.requisitionService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, r))
}

type quantityCommand func(context.Context, workflow.Actor, uuid.UUID, service.QuantityRequest) (*model.PartRequisition, error)

type reasonCommand func(context.Context, workflow.Actor, uuid.UUID, service.ReasonRequest) (*model.PartRequisition, error)

// quantity serves approve, disburse and use
// @Summary      Approve, disburse or mark used
// @Tags         requisitions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Requisition ID"
// @Param        payload  body      service.QuantityRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=model.PartRequisition}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/requisitions/{id}/approve [put]
// @Router       /api/requisitions/{id}/disburse [put]
// @Router       /api/requisitions/{id}/use [put]
func (h *RequisitionHandler) quantity(cmd quantityCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.QuantityRequest
		if !bindJSON(c, &req) {
			return
		}
		r, err := cmd(c.Request.Context(), actor, id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, r))
	}
}

// reason serves reject and not-available
// @Summary      Reject or mark not available
// @Tags         requisitions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Requisition ID"
// @Param        payload  body      service.ReasonRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.PartRequisition}
// @Failure      422      {object}  response.Response
// @Router       /api/requisitions/{id}/reject [put]
// @Router       /api/requisitions/{id}/not-available [put]
func (h *RequisitionHandler) reason(cmd reasonCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req service.ReasonRequest
		if !bindJSON(c, &req) {
			return
		}
		r, err := cmd(c.Request.Context(), actor, id, req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, r))
	}
}
