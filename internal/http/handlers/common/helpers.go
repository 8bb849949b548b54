package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/middleware"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound is returned when the user is missing from the context
	ErrUserNotFound = errors.New("user not found in request context")

	// ErrInvalidUUID is returned when UUID parsing fails
	ErrInvalidUUID = errors.New("malformed UUID")
)

// CurrentUserID extracts the authenticated user ID from the Gin context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// ParseUUIDParam parses a UUID from a URL parameter.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("parameter %s is missing", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// BindAndValidate binds a JSON request body.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("request validation failed: %w", err)
	}
	return nil
}

// RespondAppError maps an error from a service onto the stable error
// envelope. Unknown errors are masked as internal to avoid leaking
// database or driver detail to clients.
func RespondAppError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{Error: dto.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	logger.Log.WithField("error", err.Error()).Error("unhandled service error")
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: dto.ErrorBody{
		Code:    string(apperror.ErrCodeInternal),
		Message: "internal server error",
	}})
}

// RespondError sends an error response with an explicit code and message.
func RespondError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.ErrorResponse{Error: dto.ErrorBody{Code: code, Message: message}})
}

// RespondBadRequest sends a 400 with the validation error code.
func RespondBadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, string(apperror.ErrCodeValidation), message)
}

// RespondUnauthorized sends a 401.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondError(c, http.StatusUnauthorized, string(apperror.ErrCodeUnauthorized), message)
}

// RespondSuccess sends a standardized success response.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// RespondJSON sends a JSON response with the given status code and data.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// ParseIntQuery safely reads an integer query parameter with a fallback.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// GetPagination extracts limit and offset from query parameters.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
