// Package negotiation implements the pure state-transition logic of the
// offer negotiation protocol: applying term updates, recording history,
// invalidating confirmations and computing the acceptance gate. Persistence
// and side effects are the offer service's job; functions here only mutate
// the in-memory offer record and report what changed.
package negotiation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
)

// TermsUpdate is a partial proposal: nil fields are left untouched, set
// fields overwrite the current terms.
type TermsUpdate struct {
	Price     *float64 `json:"price,omitempty"`
	Date      *string  `json:"date,omitempty"`
	Time      *string  `json:"time,omitempty"`
	Materials *string  `json:"materials,omitempty"`
	Scope     *string  `json:"scope,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u TermsUpdate) Empty() bool {
	return u.Price == nil && u.Date == nil && u.Time == nil && u.Materials == nil && u.Scope == nil
}

// guard validates the actor and the offer status shared by every
// negotiation action: the actor must be a party and the offer must not have
// reached a terminal status.
func guard(offer *models.Offer, actorID uuid.UUID) error {
	if !offer.IsParty(actorID) {
		return apperror.ErrNotAParty
	}
	if offer.IsTerminal() {
		return apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("offer is %s, negotiation is closed", offer.Status))
	}
	return nil
}

// ApplyTermsUpdate applies the changed fields of update to the offer's
// working agreement. For every field whose value actually differs it appends
// a history entry and, if anything changed, resets both confirmation flags.
// Resubmitting identical terms is a no-op: no history, no confirmation
// reset. Promotes a pending offer to negotiating.
func ApplyTermsUpdate(offer *models.Offer, update TermsUpdate, actorID uuid.UUID, now time.Time) ([]models.NegotiationHistoryEntry, error) {
	if err := guard(offer, actorID); err != nil {
		return nil, err
	}

	var entries []models.NegotiationHistoryEntry
	record := func(field string, old, new *string) {
		entries = append(entries, models.NegotiationHistoryEntry{
			OfferID:   offer.ID,
			Field:     field,
			OldValue:  old,
			NewValue:  new,
			ChangedBy: actorID,
			CreatedAt: now,
		})
	}

	if update.Price != nil && !floatEqual(offer.NegotiationTerms.Price, update.Price) {
		record(models.HistoryFieldPrice, floatString(offer.NegotiationTerms.Price), floatString(update.Price))
		offer.NegotiationTerms.Price = update.Price
	}
	if update.Date != nil && !stringEqual(offer.NegotiationTerms.Date, update.Date) {
		record(models.HistoryFieldDate, offer.NegotiationTerms.Date, update.Date)
		offer.NegotiationTerms.Date = update.Date
	}
	if update.Time != nil && !stringEqual(offer.NegotiationTerms.Time, update.Time) {
		record(models.HistoryFieldTime, offer.NegotiationTerms.Time, update.Time)
		offer.NegotiationTerms.Time = update.Time
	}
	if update.Materials != nil && !stringEqual(offer.NegotiationTerms.Materials, update.Materials) {
		record(models.HistoryFieldMaterials, offer.NegotiationTerms.Materials, update.Materials)
		offer.NegotiationTerms.Materials = update.Materials
	}
	if update.Scope != nil && !stringEqual(offer.NegotiationTerms.Scope, update.Scope) {
		record(models.HistoryFieldScope, offer.NegotiationTerms.Scope, update.Scope)
		offer.NegotiationTerms.Scope = update.Scope
	}

	if len(entries) == 0 {
		return nil, nil
	}

	// An edit invalidates prior confirmations: neither party stays bound to
	// terms they have not seen.
	offer.SeekerConfirmed = false
	offer.ProviderConfirmed = false

	if offer.Status == models.OfferStatusPending {
		offer.Status = models.OfferStatusNegotiating
	}

	return entries, nil
}

// ConfirmTerms sets the confirming party's flag. The other party's flag is
// untouched. Confirming with an incomplete terms set is allowed; the flag
// records intent, completeness gates acceptance separately.
func ConfirmTerms(offer *models.Offer, actorID uuid.UUID, now time.Time) ([]models.NegotiationHistoryEntry, error) {
	if err := guard(offer, actorID); err != nil {
		return nil, err
	}

	role := offer.RoleOf(actorID)
	if role == models.RoleSeeker {
		offer.SeekerConfirmed = true
	} else {
		offer.ProviderConfirmed = true
	}

	if offer.Status == models.OfferStatusPending {
		offer.Status = models.OfferStatusNegotiating
	}

	return []models.NegotiationHistoryEntry{{
		OfferID:   offer.ID,
		Field:     models.HistoryFieldConfirmation,
		NewValue:  &role,
		ChangedBy: actorID,
		CreatedAt: now,
	}}, nil
}

// ResetConfirmations clears both flags unconditionally. Either party may
// reset, e.g. to reopen discussion without touching a field value. Resetting
// an already-unconfirmed offer still succeeds and still appends its marker.
func ResetConfirmations(offer *models.Offer, actorID uuid.UUID, now time.Time) ([]models.NegotiationHistoryEntry, error) {
	if err := guard(offer, actorID); err != nil {
		return nil, err
	}

	offer.SeekerConfirmed = false
	offer.ProviderConfirmed = false

	note := "reset"
	return []models.NegotiationHistoryEntry{{
		OfferID:   offer.ID,
		Field:     models.HistoryFieldConfirmation,
		ChangedBy: actorID,
		Note:      &note,
		CreatedAt: now,
	}}, nil
}

// AgreementGap names the specific pieces still blocking acceptance, so the
// client can explain the gap to the user.
type AgreementGap struct {
	MissingFields    []string `json:"missing_fields,omitempty"`
	AwaitingSeeker   bool     `json:"awaiting_seeker_confirmation,omitempty"`
	AwaitingProvider bool     `json:"awaiting_provider_confirmation,omitempty"`
}

// Gap returns nil when the offer is acceptable, otherwise the blocking gap.
func Gap(offer *models.Offer) *AgreementGap {
	if offer.CanAcceptOffer() {
		return nil
	}
	return &AgreementGap{
		MissingFields:    offer.NegotiationTerms.MissingFields(),
		AwaitingSeeker:   !offer.SeekerConfirmed,
		AwaitingProvider: !offer.ProviderConfirmed,
	}
}

func stringEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatString(v *float64) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprintf("%g", *v)
	return &s
}
