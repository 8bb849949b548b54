package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDValidator checks that the named URL parameter is a valid UUID.
// Usage: router.GET("/offers/:id", UUIDValidator("id"), handler.GetOffer)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "parameter " + paramName + " is required",
			})
			c.Abort()
			return
		}

		_, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "parameter " + paramName + " must be a valid UUID",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
