package handler

import (
	"net/http"

	"garage/internal/middleware"
	"garage/internal/model"
	"garage/internal/service"
	"garage/pkg/pagination"
	"garage/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/audit-logs")
	group.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs pages through the workflow trail, newest first
// @Summary      Get audit logs
// @Description  Every committed transition with who made it
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, logs, total, p.Page, p.Limit))
}
