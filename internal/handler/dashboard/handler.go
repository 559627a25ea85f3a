package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	dashboardsvc "github.com/orientmedical/diagnostics-api/internal/service/dashboard"
)

type Handler struct {
	service *dashboardsvc.Service
}

func NewHandler(service *dashboardsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	view := middleware.RequirePermission(model.Permission{Module: model.ModuleReports, Action: model.ActionView})

	reports := r.Group("/reports")
	// Report aggregates may be served up to 30s stale.
	reports.Use(func(c *gin.Context) {
		c.Header("Cache-Control", "private, max-age=30")
		c.Next()
	})
	{
		reports.GET("/overview", view, h.Overview)
		reports.GET("/revenue-by-method", view, h.RevenueByMethod)
	}
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(overview))
}

func (h *Handler) RevenueByMethod(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	rows, err := h.service.RevenueByMethod(c.Request.Context(), middleware.Principal(c), days)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}
