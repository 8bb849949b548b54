package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

// Context keys for gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AuthMiddleware resolves the acting user from the Bearer access token and
// stores their identity in the request context. Every negotiation guard
// downstream depends on that identity.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		userID, role, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			abortUnauthorized(c, "token is invalid")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: dto.ErrorBody{Code: string(apperror.ErrCodeUnauthorized), Message: message},
	})
}
