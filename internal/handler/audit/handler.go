package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	auditsvc "github.com/orientmedical/diagnostics-api/internal/service/audit"
)

type Handler struct {
	service *auditsvc.Service
}

func NewHandler(service *auditsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit-logs",
		middleware.RequirePermission(model.Permission{Module: model.ModuleAdmin, Action: model.ActionManage}),
		h.ListAuditLogs)
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	var filter model.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(apperrors.BadRequest("invalid query parameters", err))
		return
	}

	principal := middleware.Principal(c)
	entries, err := h.service.List(c.Request.Context(), principal.BranchID, &filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
