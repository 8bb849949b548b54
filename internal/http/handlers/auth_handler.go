package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

// AuthHandler is the HTTP layer for registration and sign-in.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates the handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		ExpiresIn:    int64(result.TokenPair.ExpiresIn.Seconds()),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AuthResponse{
		User:         result.User,
		AccessToken:  result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		ExpiresIn:    int64(result.TokenPair.ExpiresIn.Seconds()),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	})
}

// Me handles GET /profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, user)
}
