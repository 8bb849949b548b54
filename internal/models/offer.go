package models

import (
	"time"

	"github.com/google/uuid"
)

// NegotiationTerms is the mutable working agreement between seeker and
// provider. Each field is independently nullable; the agreement is complete
// only when all five are set.
type NegotiationTerms struct {
	Price     *float64 `db:"negotiated_price" json:"price,omitempty"`
	Date      *string  `db:"negotiated_date" json:"date,omitempty"`
	Time      *string  `db:"negotiated_time" json:"time,omitempty"`
	Materials *string  `db:"negotiated_materials" json:"materials,omitempty"`
	Scope     *string  `db:"negotiated_scope" json:"scope,omitempty"`
}

// Complete reports whether all five term fields are set.
func (t NegotiationTerms) Complete() bool {
	return t.Price != nil && t.Date != nil && t.Time != nil && t.Materials != nil && t.Scope != nil
}

// MissingFields lists the term fields that are still unset.
func (t NegotiationTerms) MissingFields() []string {
	var missing []string
	if t.Price == nil {
		missing = append(missing, HistoryFieldPrice)
	}
	if t.Date == nil {
		missing = append(missing, HistoryFieldDate)
	}
	if t.Time == nil {
		missing = append(missing, HistoryFieldTime)
	}
	if t.Materials == nil {
		missing = append(missing, HistoryFieldMaterials)
	}
	if t.Scope == nil {
		missing = append(missing, HistoryFieldScope)
	}
	return missing
}

// ConfirmationStatus holds the per-party confirmation flags. Both flags are
// reset whenever any term field changes.
type ConfirmationStatus struct {
	SeekerConfirmed   bool `db:"seeker_confirmed" json:"seeker_confirmed"`
	ProviderConfirmed bool `db:"provider_confirmed" json:"provider_confirmed"`
}

// Offer represents one provider's response to one job request, including the
// embedded negotiation state.
type Offer struct {
	ID           uuid.UUID `db:"id" json:"id"`
	JobRequestID uuid.UUID `db:"job_request_id" json:"job_request_id"`
	SeekerID     uuid.UUID `db:"seeker_id" json:"seeker_id"`
	ProviderID   uuid.UUID `db:"provider_id" json:"provider_id"`

	// Static proposal, shown alongside the negotiated terms for comparison.
	Message       string  `db:"message" json:"message"`
	ProposedPrice float64 `db:"proposed_price" json:"proposed_price"`
	Availability  *string `db:"availability" json:"availability,omitempty"`

	Status string `db:"status" json:"status"`

	NegotiationTerms
	ConfirmationStatus

	EscrowFunded       bool    `db:"escrow_funded" json:"escrow_funded"`
	CancellationReason *string `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	RefundPercentage   *int    `db:"refund_percentage" json:"refund_percentage,omitempty"`

	// Version guards against lost updates: every write bumps it and carries
	// the value it read.
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsParty reports whether the given user is the seeker or provider.
func (o *Offer) IsParty(userID uuid.UUID) bool {
	return userID == o.SeekerID || userID == o.ProviderID
}

// RoleOf returns the party role of the given user, or "" for outsiders.
func (o *Offer) RoleOf(userID uuid.UUID) string {
	switch userID {
	case o.SeekerID:
		return RoleSeeker
	case o.ProviderID:
		return RoleProvider
	default:
		return ""
	}
}

// IsTerminal reports whether the offer reached a terminal status.
func (o *Offer) IsTerminal() bool {
	_, ok := TerminalOfferStatuses[o.Status]
	return ok
}

// CanAcceptOffer is the derived acceptance gate: both parties confirmed and
// all five term fields set.
func (o *Offer) CanAcceptOffer() bool {
	return o.SeekerConfirmed && o.ProviderConfirmed && o.NegotiationTerms.Complete()
}

// NegotiationHistoryEntry is one append-only audit log record: who changed
// which field, from what to what, when. Entries are never mutated or deleted.
type NegotiationHistoryEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OfferID   uuid.UUID `db:"offer_id" json:"offer_id"`
	Field     string    `db:"field" json:"field"`
	OldValue  *string   `db:"old_value" json:"old_value,omitempty"`
	NewValue  *string   `db:"new_value" json:"new_value,omitempty"`
	ChangedBy uuid.UUID `db:"changed_by" json:"changed_by"`
	Note      *string   `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
