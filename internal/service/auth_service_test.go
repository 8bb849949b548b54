package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "new.user@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "new.user@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", result.User.Email)
	assert.Equal(t, "new_user", result.User.Username)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
	assert.NotEmpty(t, result.TokenPair.RefreshToken)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "taken@example.com").Return(&models.User{ID: uuid.New()}, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:    "taken@example.com",
		Password: "Sup3rSecret",
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "someone@example.com",
		Password: "short",
	})
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "user",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	repo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)
	repo.On("UpdateLastLoginAt", ctx, user.ID).Return(nil)

	result, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Sup3rSecret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.TokenPair.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	repo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

	_, err = svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "WrongPassword1"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "user@example.com", IsActive: false}
	repo.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "whatever1A"})
	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_Refresh_Success(t *testing.T) {
	repo := new(mockAuthRepo)
	tm := newTestTokenManager()
	svc := NewAuthService(repo, tm)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleUser, IsActive: true}
	pair, _, _, err := tm.GeneratePair(user)
	require.NoError(t, err)

	repo.On("GetByID", ctx, user.ID).Return(user, nil)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.NotEmpty(t, fresh.RefreshToken)
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, newTestTokenManager())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeUnauthorized, appErr.Code)
}

func TestTokenManager_ParseAccess_RoundTrip(t *testing.T) {
	tm := newTestTokenManager()
	user := &models.User{ID: uuid.New(), Role: models.RoleUser}

	pair, _, _, err := tm.GeneratePair(user)
	require.NoError(t, err)

	userID, role, err := tm.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, models.RoleUser, role)
}
