package handler

import (
	"net/http"

	"garage/internal/model"
	"garage/internal/service"
	"garage/pkg/pagination"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StatusRequest struct {
	Status          model.JobCardState `json:"status" binding:"required"`
	ExpectedVersion int64              `json:"expected_version"`
}

type FreezeRequest struct {
	Reason          string `json:"reason"`
	ExpectedVersion int64  `json:"expected_version"`
}

type CloseRequest struct {
	Notes           string `json:"notes"`
	ExpectedVersion int64  `json:"expected_version"`
}

type PriorityRequest struct {
	Priority        *bool `json:"priority" binding:"required"`
	ExpectedVersion int64 `json:"expected_version"`
}

type AssignRequest struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required" swaggertype:"string"`
}

type JobCardHandler struct {
	jobCardService service.JobCardService
}

func NewJobCardHandler(jobCardService service.JobCardService) *JobCardHandler {
	return &JobCardHandler{jobCardService: jobCardService}
}

func (h *JobCardHandler) RegisterRoutes(api *gin.RouterGroup) {
	cards := api.Group("/job-cards")
	{
		cards.POST("", h.Create)
		cards.GET("", h.List)
		cards.GET("/:id", h.Get)
		cards.PUT("/:id/status", h.ChangeStatus)
		cards.PUT("/:id/freeze", h.Freeze)
		cards.PUT("/:id/unfreeze", h.Unfreeze)
		cards.PUT("/:id/close", h.Close)
		cards.PUT("/:id/priority", h.SetPriority)
		cards.POST("/:id/technicians", h.AssignTechnician)
		cards.DELETE("/:id/technicians/:employeeId", h.RemoveTechnician)
	}
}

// Create opens a new job card
// @Summary      Create job card
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateJobCardRequest  true  "Job card"
// @Success      201      {object}  response.Response{data=model.JobCard}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/job-cards [post]
func (h *JobCardHandler) Create(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateJobCardRequest
	if !bindJSON(c, &req) {
		return
	}

	card, err := h.jobCardService.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, card))
}

// List pages through job cards, priority first
// @Summary      List job cards
// @Tags         job-cards
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/job-cards [get]
func (h *JobCardHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	cards, total, err := h.jobCardService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, cards, total, p.Page, p.Limit))
}

// Get returns one job card with its roster
// @Summary      Get job card
// @Tags         job-cards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job card ID"
// @Success      200  {object}  response.Response{data=model.JobCard}
// @Failure      404  {object}  response.Response
// @Router       /api/job-cards/{id} [get]
func (h *JobCardHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	card, err := h.jobCardService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, card))
}

// ChangeStatus moves a job card along its lifecycle
// @Summary      Change job card status
// @Description  Open, InProgress and Completed only; use freeze/close for the rest
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Job card ID"
// @Param        payload  body      StatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=model.JobCard}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/job-cards/{id}/status [put]
func (h *JobCardHandler) ChangeStatus(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.jobCardService.ChangeStatus(c.Request.Context(), actor, id, req.Status, req.ExpectedVersion)
	h.respond(c, card, err)
}

// Freeze puts a job card on hold
// @Summary      Freeze job card
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Job card ID"
// @Param        payload  body      FreezeRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.JobCard}
// @Router       /api/job-cards/{id}/freeze [put]
func (h *JobCardHandler) Freeze(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FreezeRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.jobCardService.Freeze(c.Request.Context(), actor, id, req.Reason, req.ExpectedVersion)
	h.respond(c, card, err)
}

// Unfreeze resumes a frozen job card where it left off
// @Summary      Unfreeze job card
// @Tags         job-cards
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job card ID"
// @Success      200  {object}  response.Response{data=model.JobCard}
// @Router       /api/job-cards/{id}/unfreeze [put]
func (h *JobCardHandler) Unfreeze(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req FreezeRequest
	_ = c.ShouldBindJSON(&req) // body is optional here
	card, err := h.jobCardService.Unfreeze(c.Request.Context(), actor, id, req.ExpectedVersion)
	h.respond(c, card, err)
}

// Close finalizes a job card
// @Summary      Close job card
// @Description  From Completed for advisors; from any other state Admin only
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "Job card ID"
// @Param        payload  body      CloseRequest  true  "Closing notes"
// @Success      200      {object}  response.Response{data=model.JobCard}
// @Router       /api/job-cards/{id}/close [put]
func (h *JobCardHandler) Close(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req CloseRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.jobCardService.Close(c.Request.Context(), actor, id, req.Notes, req.ExpectedVersion)
	h.respond(c, card, err)
}

// SetPriority flags or unflags a job card
// @Summary      Set job card priority
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string           true  "Job card ID"
// @Param        payload  body      PriorityRequest  true  "Priority flag"
// @Success      200      {object}  response.Response{data=model.JobCard}
// @Router       /api/job-cards/{id}/priority [put]
func (h *JobCardHandler) SetPriority(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req PriorityRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.jobCardService.SetPriority(c.Request.Context(), actor, id, *req.Priority, req.ExpectedVersion)
	h.respond(c, card, err)
}

// AssignTechnician adds a technician to the roster
// @Summary      Assign technician
// @Tags         job-cards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Job card ID"
// @Param        payload  body      AssignRequest  true  "Technician"
// @Success      200      {object}  response.Response{data=model.JobCard}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/job-cards/{id}/technicians [post]
func (h *JobCardHandler) AssignTechnician(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.jobCardService.AssignTechnician(c.Request.Context(), actor, id, req.EmployeeID)
	h.respond(c, card, err)
}

// RemoveTechnician takes a technician off the roster
// @Summary      Remove technician
// @Tags         job-cards
// @Security     BearerAuth
// @Produce      json
// @Param        id          path      string  true  "Job card ID"
// @Param        employeeId  path      string  true  "Employee ID"
// @Success      200         {object}  response.Response{data=model.JobCard}
// @Router       /api/job-cards/{id}/technicians/{employeeId} [delete]
func (h *JobCardHandler) RemoveTechnician(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	employeeID, ok := pathID(c, "employeeId")
	if !ok {
		return
	}
	card, err := h.jobCardService.RemoveTechnician(c.Request.Context(), actor, id, employeeID)
	h.respond(c, card, err)
}

func (h *JobCardHandler) respond(c *gin.Context, card *model.JobCard, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, card))
}
