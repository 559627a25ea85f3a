package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
	"github.com/orientmedical/diagnostics-api/internal/model"
	authsvc "github.com/orientmedical/diagnostics-api/internal/service/auth"
	"github.com/orientmedical/diagnostics-api/internal/service/authz"
)

type Handler struct {
	service *authsvc.Service
	authz   *authz.Service
}

func NewHandler(service *authsvc.Service, authzSvc *authz.Service) *Handler {
	return &Handler{service: service, authz: authzSvc}
}

// RegisterPublicRoutes mounts login and refresh, which carry no token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}
}

// RegisterRoutes mounts the session introspection endpoints.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	me := r.Group("/auth/me")
	{
		me.GET("", h.Me)
		me.GET("/routes", h.Routes)
		me.GET("/role", h.Role)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	pair, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pair))
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(pair))
}

// Me returns the caller's identity and permission snapshot.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(middleware.Principal(c)))
}

// Routes returns the route prefixes the caller's snapshot unlocks. The
// front end builds its navigation from this list.
func (h *Handler) Routes(c *gin.Context) {
	principal := middleware.Principal(c)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"routes": h.authz.AccessibleRoutes(principal.Permissions),
	}))
}

// Role resolves the caller's snapshot back to the closest role template.
func (h *Handler) Role(c *gin.Context) {
	principal := middleware.Principal(c)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(h.authz.ResolveRoleInfo(principal.Permissions)))
}
