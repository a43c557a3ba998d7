package handler

import (
	"net/http"

	"garage/internal/service"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
)

type TimesheetHandler struct {
	timesheetService service.TimesheetService
}

func NewTimesheetHandler(timesheetService service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetService: timesheetService}
}

func (h *TimesheetHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/job-cards/:id/timesheets/clock-in", h.ClockIn)
	api.GET("/job-cards/:id/timesheets", h.ListByJobCard)
	api.PUT("/timesheets/:id/clock-out", h.ClockOut)
}

// ClockIn starts a span of work for the calling technician
// @Summary      Clock in
// @Tags         timesheets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "Job card ID"
// @Param        payload  body      service.ClockRequest  false  "Notes"
// @Success      201      {object}  response.Response{data=model.Timesheet}
// @Failure      409      {object}  response.Response
// @Router       /api/job-cards/{id}/timesheets/clock-in [post]
func (h *TimesheetHandler) ClockIn(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	jobCardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ClockRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	ts, err := h.timesheetService.ClockIn(c.Request.Context(), actor, jobCardID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ts))
}

// ClockOut ends a span
// @Summary      Clock out
// @Tags         timesheets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "Timesheet ID"
// @Param        payload  body      service.ClockRequest  false  "Notes"
// @Success      200      {object}  response.Response{data=model.Timesheet}
// @Router       /api/timesheets/{id}/clock-out [put]
func (h *TimesheetHandler) ClockOut(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ClockRequest
	_ = c.ShouldBindJSON(&req)

	ts, err := h.timesheetService.ClockOut(c.Request.Context(), actor, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ts))
}

// ListByJobCard returns the timesheets of a job card
// @Summary      List timesheets
// @Tags         timesheets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job card ID"
// @Success      200  {object}  response.Response{data=[]model.Timesheet}
// @Router       /api/job-cards/{id}/timesheets [get]
func (h *TimesheetHandler) ListByJobCard(c *gin.Context) {
	jobCardID, ok := pathID(c, "id")
	if !ok {
		return
	}
	sheets, err := h.timesheetService.ListByJobCard(c.Request.Context(), jobCardID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sheets))
}
