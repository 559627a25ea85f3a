package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/metrics"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	billingsvc "github.com/orientmedical/diagnostics-api/internal/service/billing"
)

type Handler struct {
	service *billingsvc.Service
	metrics *metrics.Metrics
}

func NewHandler(service *billingsvc.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

// RegisterRoutes mounts the billing endpoints. Creating an invoice and
// collecting payment are distinct permissions: a receptionist orders
// tests, only a cashier takes money.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	invoices := r.Group("/billing/invoices")
	{
		invoices.POST("",
			middleware.RequirePermission(model.Permission{Module: model.ModuleBilling, Action: model.ActionCreate}),
			h.CreateInvoice)
		invoices.GET("",
			middleware.RequireAnyPermission(
				model.Permission{Module: model.ModuleBilling, Action: model.ActionView},
				model.Permission{Module: model.ModuleBilling, Action: model.ActionCreate},
			),
			h.ListInvoices)
		invoices.GET("/:id",
			middleware.RequireAnyPermission(
				model.Permission{Module: model.ModuleBilling, Action: model.ActionView},
				model.Permission{Module: model.ModuleBilling, Action: model.ActionCreate},
			),
			h.GetInvoice)
		invoices.POST("/:id/pay",
			middleware.RequirePermission(model.Permission{Module: model.ModuleBilling, Action: model.ActionCollect}),
			h.PayInvoice)
		invoices.POST("/:id/void",
			middleware.RequirePermission(model.Permission{Module: model.ModuleBilling, Action: model.ActionManage}),
			h.VoidInvoice)
	}
}

func (h *Handler) CreateInvoice(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	invoice, err := h.service.CreateInvoice(c.Request.Context(), middleware.Principal(c), &req)
	if err != nil {
		c.Error(err)
		return
	}

	h.metrics.InvoicesCreated.Inc()
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(invoice))
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid invoice id", err))
		return
	}

	invoice, err := h.service.GetInvoice(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}

func (h *Handler) ListInvoices(c *gin.Context) {
	var filter model.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(apperrors.BadRequest("invalid query parameters", err))
		return
	}

	invoices, err := h.service.ListInvoices(c.Request.Context(), middleware.Principal(c), &filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoices))
}

func (h *Handler) PayInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid invoice id", err))
		return
	}

	var req model.PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	invoice, err := h.service.PayInvoice(c.Request.Context(), middleware.Principal(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	h.metrics.InvoicesPaid.WithLabelValues(string(req.PaymentMethod)).Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}

func (h *Handler) VoidInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid invoice id", err))
		return
	}

	var req model.VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	invoice, err := h.service.VoidInvoice(c.Request.Context(), middleware.Principal(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	h.metrics.InvoicesVoided.Inc()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invoice))
}
