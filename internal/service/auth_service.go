package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/validation"
)

// AuthRepository describes what AuthService needs from the storage layer.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// AuthService encapsulates registration and authentication.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput carries the data for a new account.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// LoginInput carries sign-in credentials.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is the outcome of a registration or login.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService creates the authentication service.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register creates a new account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "invalid email")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "weak password")
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	username := in.Username
	if username == "" {
		username = deriveUsername(in.Email)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "could not hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		Username:     username,
		PasswordHash: string(passHash),
		Role:         models.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
		}
		return nil, err
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Login verifies credentials and returns tokens.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		// Not worth failing the login over.
		logger.Log.WithFields(map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: could not update last_login_at")
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, TokenPair: tokenPair}, nil
}

// Refresh issues a new token pair against a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(oldToken)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "malformed token subject")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	tokenPair, _, _, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// GetUser loads a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// deriveUsername builds a readable username from an email address.
func deriveUsername(email string) string {
	name := strings.Split(email, "@")[0]
	name = strings.NewReplacer(".", "_", "+", "_").Replace(name)
	name = strings.ToLower(name)
	if len(name) < 3 {
		name = "user_" + uuid.NewString()[:6]
	}
	return name
}
