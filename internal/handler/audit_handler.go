package handler

import (
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	group.Use(middleware.RequireRole(model.LevelAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns audit entries newest first with the acting user's name
// @Summary      Get audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        entity_type  query     string  false  "Filter by entity type: user or invoice"
// @Success      200          {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      403          {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	q := listQuery(c)
	logs, total, err := h.auditService.List(c.Request.Context(), middleware.CurrentUser(c), service.AuditListQuery{
		ListQuery:  q,
		EntityType: c.Query("entity_type"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, logs, q, total)
}
