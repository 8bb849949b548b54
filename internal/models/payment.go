package models

import (
	"time"

	"github.com/google/uuid"
)

// Escrow statuses.
const (
	EscrowStatusHeld     = "held"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// Transaction types.
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeEscrowRelease = "escrow_release"
	TransactionTypeEscrowRefund  = "escrow_refund"
)

// Transaction statuses.
const (
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// UserBalance is a user's wallet: spendable funds plus funds frozen in escrow.
type UserBalance struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Available float64   `db:"available" json:"available"`
	Frozen    float64   `db:"frozen" json:"frozen"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction records one balance movement.
type Transaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	OfferID     *uuid.UUID `db:"offer_id" json:"offer_id,omitempty"`
	Type        string     `db:"type" json:"type"`
	Amount      float64    `db:"amount" json:"amount"`
	Status      string     `db:"status" json:"status"`
	Description *string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Escrow holds the seeker's funds between acceptance and service completion.
type Escrow struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OfferID          uuid.UUID  `db:"offer_id" json:"offer_id"`
	SeekerID         uuid.UUID  `db:"seeker_id" json:"seeker_id"`
	ProviderID       uuid.UUID  `db:"provider_id" json:"provider_id"`
	Amount           float64    `db:"amount" json:"amount"`
	Status           string     `db:"status" json:"status"`
	RefundPercentage *int       `db:"refund_percentage" json:"refund_percentage,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt       *time.Time `db:"released_at" json:"released_at,omitempty"`
}
