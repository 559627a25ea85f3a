package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	patientsvc "github.com/orientmedical/diagnostics-api/internal/service/patient"
)

type Handler struct {
	service *patientsvc.Service
}

func NewHandler(service *patientsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("",
			middleware.RequirePermission(model.Permission{Module: model.ModulePatients, Action: model.ActionCreate}),
			h.RegisterPatient)
		patients.GET("",
			middleware.RequirePermission(model.Permission{Module: model.ModulePatients, Action: model.ActionView}),
			h.ListPatients)
		patients.GET("/:id",
			middleware.RequirePermission(model.Permission{Module: model.ModulePatients, Action: model.ActionView}),
			h.GetPatient)
		patients.GET("/by-number/:number",
			middleware.RequirePermission(model.Permission{Module: model.ModulePatients, Action: model.ActionView}),
			h.GetPatientByNumber)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	patient, err := h.service.Register(c.Request.Context(), middleware.Principal(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(patient))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid patient id", err))
		return
	}

	patient, err := h.service.Get(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) GetPatientByNumber(c *gin.Context) {
	patient, err := h.service.GetByNumber(c.Request.Context(), middleware.Principal(c), c.Param("number"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filter model.PatientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(apperrors.BadRequest("invalid query parameters", err))
		return
	}

	patients, err := h.service.List(c.Request.Context(), middleware.Principal(c), &filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}
