package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgauth "github.com/orientmedical/diagnostics-api/pkg/auth"

	"github.com/orientmedical/diagnostics-api/internal/model"
	authsvc "github.com/orientmedical/diagnostics-api/internal/service/auth"
	"github.com/orientmedical/diagnostics-api/internal/service/authz"
)

const ContextPrincipal = "principal"

// Authenticate validates the bearer token and stores the reconstructed
// principal on the context. Authorization downstream reads the
// principal's permission snapshot only.
func Authenticate(tokens *pkgauth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "malformed authorization header")
			return
		}

		claims, err := tokens.Validate(parts[1], pkgauth.AccessToken)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextPrincipal, authsvc.PrincipalFromClaims(claims))
		c.Next()
	}
}

// Principal returns the authenticated principal, or nil on
// unauthenticated routes.
func Principal(c *gin.Context) *model.Principal {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil
	}
	principal, _ := v.(*model.Principal)
	return principal
}

// RequirePermission gates a route group on one permission. Denial is a
// 403; a missing principal is a 401.
func RequirePermission(required model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Principal(c)
		if principal == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !authz.HasPermission(principal.Permissions, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Success: false,
				Error:   "insufficient permissions",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}

// RequireAnyPermission gates a route on any of several permissions.
func RequireAnyPermission(required ...model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Principal(c)
		if principal == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !authz.HasAnyPermission(principal.Permissions, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Success: false,
				Error:   "insufficient permissions",
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
		Success: false,
		Error:   message,
		TraceID: c.GetString(ContextRequestID),
	})
}
