package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEscrowNotFound    = errors.New("escrow not found")
)

// PaymentRepository is the wallet side of the marketplace: user balances,
// and the escrow that holds the seeker's funds between acceptance and
// completion of the service.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetBalance returns the user's balance, creating an empty one on first use.
func (r *PaymentRepository) GetBalance(ctx context.Context, userID uuid.UUID) (*models.UserBalance, error) {
	var balance models.UserBalance
	query := `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		RETURNING user_id, available, frozen, updated_at
	`
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		return nil, fmt.Errorf("payment repository: get balance %w", err)
	}
	return &balance, nil
}

// Deposit adds funds to the user's available balance.
func (r *PaymentRepository) Deposit(ctx context.Context, userID uuid.UUID, amount float64, description string) (*models.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("payment repository: deposit update balance %w", err)
	}

	var transaction models.Transaction
	err = tx.GetContext(ctx, &transaction, `
		INSERT INTO transactions (user_id, type, amount, status, description, completed_at)
		VALUES ($1, 'deposit', $2, 'completed', $3, NOW())
		RETURNING id, user_id, offer_id, type, amount, status, description, created_at, completed_at
	`, userID, amount, description)
	if err != nil {
		return nil, fmt.Errorf("payment repository: deposit create transaction %w", err)
	}

	return &transaction, tx.Commit()
}

// CreateEscrow freezes the seeker's funds for an accepted offer.
func (r *PaymentRepository) CreateEscrow(ctx context.Context, offerID, seekerID, providerID uuid.UUID, amount float64) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance models.UserBalance
	err = tx.GetContext(ctx, &balance, `SELECT user_id, available, frozen FROM user_balances WHERE user_id = $1 FOR UPDATE`, seekerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	if balance.Available < amount {
		return nil, ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET available = available - $2, frozen = frozen + $2, updated_at = NOW()
		WHERE user_id = $1
	`, seekerID, amount)
	if err != nil {
		return nil, err
	}

	var escrow models.Escrow
	err = tx.GetContext(ctx, &escrow, `
		INSERT INTO escrow (offer_id, seeker_id, provider_id, amount, status)
		VALUES ($1, $2, $3, $4, 'held')
		RETURNING id, offer_id, seeker_id, provider_id, amount, status, refund_percentage, created_at, released_at
	`, offerID, seekerID, providerID, amount)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, offer_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_hold', $3, 'completed', 'Funds frozen for accepted offer', NOW())
	`, seekerID, offerID, amount)
	if err != nil {
		return nil, err
	}

	return &escrow, tx.Commit()
}

// ReleaseEscrow pays the full held amount out to the provider on service
// completion.
func (r *PaymentRepository) ReleaseEscrow(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	escrow, err := r.lockHeldEscrow(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}

	// Unfreeze on the seeker side, credit the provider.
	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET frozen = frozen - $2, updated_at = NOW()
		WHERE user_id = $1
	`, escrow.SeekerID, escrow.Amount)
	if err != nil {
		return nil, err
	}

	if err := r.credit(ctx, tx, escrow.ProviderID, escrow.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE escrow SET status = 'released', released_at = $2 WHERE id = $1`, escrow.ID, now)
	if err != nil {
		return nil, err
	}
	escrow.Status = models.EscrowStatusReleased
	escrow.ReleasedAt = &now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, offer_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_release', $3, 'completed', 'Payment for completed service', NOW())
	`, escrow.ProviderID, offerID, escrow.Amount)
	if err != nil {
		return nil, err
	}

	return escrow, tx.Commit()
}

// RefundEscrow resolves a cancelled service: the given percentage of the
// held amount goes back to the seeker, the remainder is released to the
// provider as compensation for the late cancellation.
func (r *PaymentRepository) RefundEscrow(ctx context.Context, offerID uuid.UUID, percentage int) (*models.Escrow, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("payment repository: refund percentage out of range: %d", percentage)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	escrow, err := r.lockHeldEscrow(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}

	refund := escrow.Amount * float64(percentage) / 100
	remainder := escrow.Amount - refund

	_, err = tx.ExecContext(ctx, `
		UPDATE user_balances SET available = available + $2, frozen = frozen - $3, updated_at = NOW()
		WHERE user_id = $1
	`, escrow.SeekerID, refund, escrow.Amount)
	if err != nil {
		return nil, err
	}

	if remainder > 0 {
		if err := r.credit(ctx, tx, escrow.ProviderID, remainder); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, offer_id, type, amount, status, description, completed_at)
			VALUES ($1, $2, 'escrow_release', $3, 'completed', 'Cancellation compensation', NOW())
		`, escrow.ProviderID, offerID, remainder)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE escrow SET status = 'refunded', refund_percentage = $2, released_at = $3 WHERE id = $1
	`, escrow.ID, percentage, now)
	if err != nil {
		return nil, err
	}
	escrow.Status = models.EscrowStatusRefunded
	escrow.RefundPercentage = &percentage
	escrow.ReleasedAt = &now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (user_id, offer_id, type, amount, status, description, completed_at)
		VALUES ($1, $2, 'escrow_refund', $3, 'completed', 'Refund for cancelled service', NOW())
	`, escrow.SeekerID, offerID, refund)
	if err != nil {
		return nil, err
	}

	return escrow, tx.Commit()
}

// GetEscrowByOfferID returns the escrow record for an offer.
func (r *PaymentRepository) GetEscrowByOfferID(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE offer_id = $1`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	return &escrow, nil
}

// ListTransactions returns the user's transaction history.
func (r *PaymentRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT id, user_id, offer_id, type, amount, status, description, created_at, completed_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return transactions, err
}

func (r *PaymentRepository) lockHeldEscrow(ctx context.Context, tx *sqlx.Tx, offerID uuid.UUID) (*models.Escrow, error) {
	var escrow models.Escrow
	err := tx.GetContext(ctx, &escrow, `SELECT * FROM escrow WHERE offer_id = $1 AND status = 'held' FOR UPDATE`, offerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, err
	}
	return &escrow, nil
}

func (r *PaymentRepository) credit(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_balances (user_id, available, frozen)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO UPDATE SET available = user_balances.available + $2, updated_at = NOW()
	`, userID, amount)
	return err
}
