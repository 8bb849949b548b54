package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

// OfferRepository is the offer record store. It owns the canonical offer
// state including the embedded negotiation and the append-only history log.
// Every mutating method is a single transaction guarded by the offer's
// version column, so a write based on stale state fails instead of silently
// overwriting a concurrent edit.
type OfferRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create inserts a new offer in its initial pending state.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (job_request_id, seeker_id, provider_id, message, proposed_price, availability, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, version, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		offer.JobRequestID, offer.SeekerID, offer.ProviderID,
		offer.Message, offer.ProposedPrice, offer.Availability, models.OfferStatusPending)
	if err := row.Scan(&offer.ID, &offer.Status, &offer.Version, &offer.CreatedAt, &offer.UpdatedAt); err != nil {
		return fmt.Errorf("offer repository: create %w", err)
	}
	return nil
}

// GetByID returns the offer with its negotiation state.
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return common.GetByID[models.Offer](ctx, r.db, "offers", id, common.ErrNotFound)
}

// GetActiveByJobRequestAndProvider returns the provider's non-terminal offer
// for a job request, if any. Used to enforce one live offer per pair.
func (r *OfferRepository) GetActiveByJobRequestAndProvider(ctx context.Context, jobRequestID, providerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	query := `
		SELECT * FROM offers
		WHERE job_request_id = $1 AND provider_id = $2
		  AND status NOT IN ('completed', 'cancelled', 'rejected')
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &offer, query, jobRequestID, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("offer repository: get active by pair %w", err)
	}
	return &offer, nil
}

// ListByJobRequest returns all offers submitted against a job request.
func (r *OfferRepository) ListByJobRequest(ctx context.Context, jobRequestID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.SelectContext(ctx, &offers,
		`SELECT * FROM offers WHERE job_request_id = $1 ORDER BY created_at DESC`, jobRequestID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: list by job request %w", err)
	}
	return offers, nil
}

// ListByProvider returns all offers a provider has submitted.
func (r *OfferRepository) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.SelectContext(ctx, &offers,
		`SELECT * FROM offers WHERE provider_id = $1 ORDER BY created_at DESC`, providerID)
	if err != nil {
		return nil, fmt.Errorf("offer repository: list by provider %w", err)
	}
	return offers, nil
}

// UpdateNegotiation persists the offer's negotiation state (terms,
// confirmation flags, status) together with the history entries produced by
// the engine, atomically. The write carries the version the caller read.
func (r *OfferRepository) UpdateNegotiation(ctx context.Context, offer *models.Offer, entries []models.NegotiationHistoryEntry) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.updateVersioned(ctx, tx, offer); err != nil {
			return err
		}
		return r.insertHistory(ctx, tx, entries)
	})
}

// UpdateLifecycle persists a status transition and its side-state
// (escrow flag, cancellation reason, refund percentage), versioned.
func (r *OfferRepository) UpdateLifecycle(ctx context.Context, offer *models.Offer) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return r.updateVersioned(ctx, tx, offer)
	})
}

// RejectedSibling identifies an offer auto-rejected by the single-winner
// cascade, so the coordinator can notify its provider.
type RejectedSibling struct {
	ID         uuid.UUID `db:"id"`
	ProviderID uuid.UUID `db:"provider_id"`
}

// Accept transitions the offer to accepted, rejects every other non-terminal
// offer on the same job request and marks the job request assigned, all in
// one transaction. Returns the rejected siblings.
func (r *OfferRepository) Accept(ctx context.Context, offer *models.Offer) ([]RejectedSibling, error) {
	var rejected []RejectedSibling
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.updateVersioned(ctx, tx, offer); err != nil {
			return err
		}

		// Single-winner invariant: once one offer is accepted, no sibling
		// stays actionable.
		rows, err := tx.QueryxContext(ctx, `
			UPDATE offers SET status = 'rejected', version = version + 1, updated_at = NOW()
			WHERE job_request_id = $1 AND id <> $2
			  AND status NOT IN ('completed', 'cancelled', 'rejected')
			RETURNING id, provider_id
		`, offer.JobRequestID, offer.ID)
		if err != nil {
			return fmt.Errorf("reject siblings: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var s RejectedSibling
			if err := rows.StructScan(&s); err != nil {
				return fmt.Errorf("scan rejected sibling: %w", err)
			}
			rejected = append(rejected, s)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("reject siblings: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE job_requests SET status = 'assigned', assigned_offer_id = $2, updated_at = NOW()
			WHERE id = $1
		`, offer.JobRequestID, offer.ID)
		if err != nil {
			return fmt.Errorf("assign job request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// SetJobRequestStatus updates the parent job request's status, used when a
// service completes (closed) or a cancellation reopens the request.
func (r *OfferRepository) SetJobRequestStatus(ctx context.Context, jobRequestID uuid.UUID, status string, assignedOfferID *uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE job_requests SET status = $2, assigned_offer_id = $3, updated_at = NOW()
		WHERE id = $1
	`, jobRequestID, status, assignedOfferID)
	if err != nil {
		return fmt.Errorf("offer repository: set job request status %w", err)
	}
	return nil
}

// ListHistory returns the negotiation audit log, newest first.
func (r *OfferRepository) ListHistory(ctx context.Context, offerID uuid.UUID, limit, offset int) ([]models.NegotiationHistoryEntry, error) {
	var entries []models.NegotiationHistoryEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM negotiation_history
		WHERE offer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, offerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("offer repository: list history %w", err)
	}
	return entries, nil
}

// updateVersioned writes every mutable offer column guarded by the version
// the caller read. Zero rows affected means either the offer vanished or a
// concurrent writer got there first.
func (r *OfferRepository) updateVersioned(ctx context.Context, tx *sqlx.Tx, offer *models.Offer) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE offers SET
			status = $2,
			negotiated_price = $3,
			negotiated_date = $4,
			negotiated_time = $5,
			negotiated_materials = $6,
			negotiated_scope = $7,
			seeker_confirmed = $8,
			provider_confirmed = $9,
			escrow_funded = $10,
			cancellation_reason = $11,
			refund_percentage = $12,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $13
	`, offer.ID, offer.Status,
		offer.NegotiationTerms.Price, offer.NegotiationTerms.Date, offer.NegotiationTerms.Time,
		offer.NegotiationTerms.Materials, offer.NegotiationTerms.Scope,
		offer.SeekerConfirmed, offer.ProviderConfirmed,
		offer.EscrowFunded, offer.CancellationReason, offer.RefundPercentage,
		offer.Version)
	if err != nil {
		return fmt.Errorf("update offer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update offer: rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, offer.ID); err != nil {
			return fmt.Errorf("update offer: existence check: %w", err)
		}
		if !exists {
			return common.ErrNotFound
		}
		return common.ErrVersionConflict
	}

	offer.Version++
	return nil
}

// insertHistory appends audit entries. Entries are write-once: nothing in
// the repository updates or deletes rows of this table.
func (r *OfferRepository) insertHistory(ctx context.Context, tx *sqlx.Tx, entries []models.NegotiationHistoryEntry) error {
	for i := range entries {
		e := &entries[i]
		row := tx.QueryRowxContext(ctx, `
			INSERT INTO negotiation_history (offer_id, field, old_value, new_value, changed_by, note, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, e.OfferID, e.Field, e.OldValue, e.NewValue, e.ChangedBy, e.Note, e.CreatedAt)
		if err := row.Scan(&e.ID); err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
	}
	return nil
}
