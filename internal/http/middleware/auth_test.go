package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

func newAuthTestRouter() (*gin.Engine, *service.TokenManager) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		userID := c.MustGet(ContextUserIDKey).(uuid.UUID)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r, tokens
}

func TestAuthMiddleware_ResolvesUserFromBearerToken(t *testing.T) {
	r, tokens := newAuthTestRouter()

	user := &models.User{ID: uuid.New(), Role: models.RoleUser}
	pair, _, _, err := tokens.GeneratePair(user)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
}

func TestAuthMiddleware_MissingHeaderIsUnauthorized(t *testing.T) {
	r, _ := newAuthTestRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestAuthMiddleware_GarbageTokenIsUnauthorized(t *testing.T) {
	r, _ := newAuthTestRouter()

	for name, header := range map[string]string{
		"garbage token": "Bearer not-a-jwt",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
		"empty bearer":  "Bearer ",
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}
