package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orientmedical/diagnostics-api/pkg/logger"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// statusCoder is implemented by application errors that know their HTTP
// status.
type statusCoder interface {
	StatusCode() int
}

// ErrorHandler renders errors attached to the context as JSON. Handlers
// call c.Error(err) and return; the mapping to status codes lives here.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		message := "internal server error"

		var sc statusCoder
		if errors.As(err, &sc) {
			status = sc.StatusCode()
			message = err.Error()
		}

		if status >= 500 {
			log.Error(err, "request failed",
				"request_id", c.GetString(ContextRequestID),
				"path", c.Request.URL.Path)
			// Internal detail stays out of the response body.
			message = "internal server error"
		}

		c.JSON(status, errorResponse{
			Success: false,
			Error:   message,
			TraceID: c.GetString(ContextRequestID),
		})
	}
}
