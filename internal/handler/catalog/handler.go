package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	catalogsvc "github.com/orientmedical/diagnostics-api/internal/service/catalog"
)

type Handler struct {
	service *catalogsvc.Service
}

func NewHandler(service *catalogsvc.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog endpoints. Reading the catalog only
// needs billing access since the front desk browses it when ordering;
// changing it is an administrative act.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	manage := model.Permission{Module: model.ModuleAdmin, Action: model.ActionManage}

	tests := r.Group("/catalog/tests")
	{
		tests.GET("",
			middleware.RequireAnyPermission(
				model.Permission{Module: model.ModuleBilling, Action: model.ActionCreate},
				model.Permission{Module: model.ModuleBilling, Action: model.ActionView},
				manage,
			),
			h.ListTests)
		tests.GET("/:id",
			middleware.RequireAnyPermission(
				model.Permission{Module: model.ModuleBilling, Action: model.ActionCreate},
				model.Permission{Module: model.ModuleBilling, Action: model.ActionView},
				manage,
			),
			h.GetTest)
		tests.POST("", middleware.RequirePermission(manage), h.CreateTest)
		tests.PUT("/:id", middleware.RequirePermission(manage), h.UpdateTest)
		tests.POST("/:id/activate", middleware.RequirePermission(manage), h.ActivateTest)
		tests.POST("/:id/deactivate", middleware.RequirePermission(manage), h.DeactivateTest)
	}
}

func (h *Handler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	test, err := h.service.CreateTest(c.Request.Context(), middleware.Principal(c), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(test))
}

func (h *Handler) GetTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid test id", err))
		return
	}

	test, err := h.service.GetTest(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(test))
}

func (h *Handler) UpdateTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid test id", err))
		return
	}

	var req model.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	test, err := h.service.UpdateTest(c.Request.Context(), middleware.Principal(c), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(test))
}

func (h *Handler) ActivateTest(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) DeactivateTest(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid test id", err))
		return
	}

	if err := h.service.SetTestActive(c.Request.Context(), middleware.Principal(c), id, active); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("catalog entry updated"))
}

func (h *Handler) ListTests(c *gin.Context) {
	var filter model.TestFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(apperrors.BadRequest("invalid query parameters", err))
		return
	}

	tests, err := h.service.ListTests(c.Request.Context(), middleware.Principal(c), &filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tests))
}
