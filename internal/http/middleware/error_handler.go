package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
)

// ErrorHandler converts errors attached to the context into the stable
// error envelope. Handlers normally respond themselves; this is the safety
// net for errors pushed through c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":  err.Error(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Request error")
			}

			if appErr, ok := apperror.As(err.Err); ok {
				c.JSON(appErr.HTTPStatus, gin.H{"error": gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
					"details": appErr.Details,
				}})
				return
			}

			// Unknown errors are masked.
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
				"code":    apperror.ErrCodeInternal,
				"message": "internal server error",
			}})
		}
	}
}
