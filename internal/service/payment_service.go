package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

// PaymentRepository describes the wallet and escrow storage operations.
type PaymentRepository interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount float64, description string) (*models.Transaction, error)
	CreateEscrow(ctx context.Context, offerID, seekerID, providerID uuid.UUID, amount float64) (*models.Escrow, error)
	ReleaseEscrow(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error)
	RefundEscrow(ctx context.Context, offerID uuid.UUID, percentage int) (*models.Escrow, error)
	GetEscrowByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error)
}

// PaymentService wraps the wallet ledger. It also implements the escrow
// collaborator the offer lifecycle depends on.
type PaymentService struct {
	repo  PaymentRepository
	cache *CacheService
}

// NewPaymentService creates the payment service.
func NewPaymentService(repo PaymentRepository, cache *CacheService) *PaymentService {
	return &PaymentService{repo: repo, cache: cache}
}

// GetBalance returns the user's wallet balance.
func (s *PaymentService) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Deposit tops up the user's wallet.
func (s *PaymentService) Deposit(ctx context.Context, userID uuid.UUID, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "deposit amount must be positive")
	}

	txn, err := s.repo.Deposit(ctx, userID, amount, "wallet top-up")
	if err != nil {
		return nil, err
	}
	s.invalidateBalance(userID)
	return txn, nil
}

// CreateEscrow freezes the seeker's funds against an offer.
func (s *PaymentService) CreateEscrow(ctx context.Context, offerID, seekerID, providerID uuid.UUID, amount float64) (*models.Escrow, error) {
	escrow, err := s.repo.CreateEscrow(ctx, offerID, seekerID, providerID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, apperror.New(apperror.ErrCodeConflict, "insufficient wallet balance to fund the escrow")
		}
		return nil, err
	}
	s.invalidateBalance(seekerID)
	return escrow, nil
}

// ReleaseEscrow pays the held amount out to the provider.
func (s *PaymentService) ReleaseEscrow(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.repo.ReleaseEscrow(ctx, offerID)
	if err != nil {
		return nil, err
	}
	s.invalidateBalance(escrow.SeekerID)
	s.invalidateBalance(escrow.ProviderID)
	return escrow, nil
}

// RefundEscrow returns the given percentage of the held amount to the
// seeker; whatever remains compensates the provider.
func (s *PaymentService) RefundEscrow(ctx context.Context, offerID uuid.UUID, percentage int) (*models.Escrow, error) {
	escrow, err := s.repo.RefundEscrow(ctx, offerID, percentage)
	if err != nil {
		return nil, err
	}
	s.invalidateBalance(escrow.SeekerID)
	s.invalidateBalance(escrow.ProviderID)
	return escrow, nil
}

// GetEscrow returns the escrow record for an offer, visible to its parties.
func (s *PaymentService) GetEscrow(ctx context.Context, offerID, actorID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.repo.GetEscrowByOfferID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotFound) || errors.Is(err, common.ErrNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "no escrow for this offer")
		}
		return nil, err
	}
	if escrow.SeekerID != actorID && escrow.ProviderID != actorID {
		return nil, apperror.ErrNotAParty
	}
	return escrow, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *PaymentService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

func (s *PaymentService) invalidateBalance(userID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateByPrefix(BalanceCacheKey(userID))
	}
}
