package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/negotiation"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/keymutex"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

// Real-time events emitted to both parties of an offer.
const (
	EventNegotiationUpdate = "negotiation:update"
	EventPaymentCompleted  = "payment:completed"
	EventServiceCompleted  = "service:completed"
	EventServiceCancelled  = "service:cancelled"
)

// OfferStore describes what the coordinator needs from the offer record
// store.
type OfferStore interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	GetActiveByJobRequestAndProvider(ctx context.Context, jobRequestID, providerID uuid.UUID) (*models.Offer, error)
	ListByJobRequest(ctx context.Context, jobRequestID uuid.UUID) ([]models.Offer, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Offer, error)
	UpdateNegotiation(ctx context.Context, offer *models.Offer, entries []models.NegotiationHistoryEntry) error
	UpdateLifecycle(ctx context.Context, offer *models.Offer) error
	Accept(ctx context.Context, offer *models.Offer) ([]repository.RejectedSibling, error)
	SetJobRequestStatus(ctx context.Context, jobRequestID uuid.UUID, status string, assignedOfferID *uuid.UUID) error
	ListHistory(ctx context.Context, offerID uuid.UUID, limit, offset int) ([]models.NegotiationHistoryEntry, error)
}

// JobRequestStore describes the job request reads the coordinator needs.
type JobRequestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.JobRequest, error)
}

// EscrowManager is the payment collaborator: it holds, releases and refunds
// the seeker's funds. Failures surface as UPSTREAM_PAYMENT_FAILURE and leave
// the offer untouched.
type EscrowManager interface {
	CreateEscrow(ctx context.Context, offerID, seekerID, providerID uuid.UUID, amount float64) (*models.Escrow, error)
	ReleaseEscrow(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error)
	RefundEscrow(ctx context.Context, offerID uuid.UUID, percentage int) (*models.Escrow, error)
}

// WSNotifier sends real-time events to connected clients.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// OfferService drives offers through the negotiation protocol and the
// status state machine. All mutating operations on the same offer are
// serialized through a per-offer mutex; concurrent writers that slip past it
// (other instances, retries) are caught by the store's version check.
type OfferService struct {
	offers   OfferStore
	requests JobRequestStore
	escrow   EscrowManager
	hub      WSNotifier
	locks    *keymutex.KeyMutex
	cache    *CacheService

	// now is swappable in tests; defaults to time.Now.
	now func() time.Time
}

// NewOfferService creates the offer lifecycle service.
func NewOfferService(offers OfferStore, requests JobRequestStore, escrow EscrowManager, cache *CacheService) *OfferService {
	return &OfferService{
		offers:   offers,
		requests: requests,
		escrow:   escrow,
		locks:    keymutex.New(),
		cache:    cache,
		now:      time.Now,
	}
}

// SetHub installs the WebSocket hub for event emission.
func (s *OfferService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateOfferInput describes a provider's initial proposal.
type CreateOfferInput struct {
	JobRequestID  uuid.UUID
	ProviderID    uuid.UUID
	Message       string
	ProposedPrice float64
	Availability  *string
}

// CreateOffer submits a provider's offer against an open job request.
func (s *OfferService) CreateOffer(ctx context.Context, in CreateOfferInput) (*models.Offer, error) {
	if in.Message == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "offer message must not be empty")
	}
	if in.ProposedPrice <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "proposed price must be positive")
	}

	request, err := s.requests.GetByID(ctx, in.JobRequestID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrJobRequestNotFound
		}
		return nil, err
	}
	if request.Status != models.JobRequestStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("job request is %s, offers are closed", request.Status))
	}
	if request.SeekerID == in.ProviderID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "cannot offer on your own job request")
	}

	// One live offer per (job request, provider) pair.
	if _, err := s.offers.GetActiveByJobRequestAndProvider(ctx, in.JobRequestID, in.ProviderID); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "you already have an active offer on this job request")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	offer := &models.Offer{
		JobRequestID:  in.JobRequestID,
		SeekerID:      request.SeekerID,
		ProviderID:    in.ProviderID,
		Message:       in.Message,
		ProposedPrice: in.ProposedPrice,
		Availability:  in.Availability,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.notify(request.SeekerID, EventNegotiationUpdate, offerEvent(offer))
	return offer, nil
}

// GetOffer returns the offer to one of its parties.
func (s *OfferService) GetOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	return offer, nil
}

// ListOffersForRequest returns all offers on a job request. The seeker sees
// every offer; a provider sees only their own.
func (s *OfferService) ListOffersForRequest(ctx context.Context, jobRequestID, actorID uuid.UUID) ([]models.Offer, error) {
	request, err := s.requests.GetByID(ctx, jobRequestID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, apperror.ErrJobRequestNotFound
		}
		return nil, err
	}

	offers, err := s.offers.ListByJobRequest(ctx, jobRequestID)
	if err != nil {
		return nil, err
	}
	if request.SeekerID == actorID {
		return offers, nil
	}

	var mine []models.Offer
	for _, o := range offers {
		if o.ProviderID == actorID {
			mine = append(mine, o)
		}
	}
	return mine, nil
}

// ListMyOffers returns all offers the actor submitted as provider.
func (s *OfferService) ListMyOffers(ctx context.Context, providerID uuid.UUID) ([]models.Offer, error) {
	return s.offers.ListByProvider(ctx, providerID)
}

// UpdateTerms applies a partial terms proposal from one of the parties.
// Identical resubmissions are a no-op: nothing is persisted, confirmations
// survive, no history appears.
func (s *OfferService) UpdateTerms(ctx context.Context, offerID, actorID uuid.UUID, update negotiation.TermsUpdate) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	entries, err := negotiation.ApplyTermsUpdate(offer, update, actorID, s.now())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return offer, nil
	}

	if err := s.persistNegotiation(ctx, offer, entries); err != nil {
		return nil, err
	}

	s.notifyParties(offer, EventNegotiationUpdate, offerEvent(offer))
	return offer, nil
}

// ConfirmTerms records the acting party's confirmation of the current terms.
func (s *OfferService) ConfirmTerms(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	entries, err := negotiation.ConfirmTerms(offer, actorID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistNegotiation(ctx, offer, entries); err != nil {
		return nil, err
	}

	s.notifyParties(offer, EventNegotiationUpdate, offerEvent(offer))
	return offer, nil
}

// ResetConfirmations clears both confirmation flags at either party's
// request, reopening the terms for discussion.
func (s *OfferService) ResetConfirmations(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	entries, err := negotiation.ResetConfirmations(offer, actorID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistNegotiation(ctx, offer, entries); err != nil {
		return nil, err
	}

	s.notifyParties(offer, EventNegotiationUpdate, offerEvent(offer))
	return offer, nil
}

// AcceptOffer moves a fully agreed offer to accepted. Only the seeker may
// accept. Re-accepting an already accepted offer returns success without
// side effects, tolerating duplicate client retries. Acceptance rejects
// every other live offer on the job request and assigns the request.
func (s *OfferService) AcceptOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	if actorID != offer.SeekerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the seeker may accept an offer")
	}

	if offer.Status == models.OfferStatusAccepted {
		return offer, nil
	}
	if offer.Status != models.OfferStatusPending && offer.Status != models.OfferStatusNegotiating {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("cannot accept an offer in status %s", offer.Status))
	}

	if gap := negotiation.Gap(offer); gap != nil {
		return nil, apperror.New(apperror.ErrCodeAgreementIncomplete,
			"agreement is not complete yet").WithDetails(gap)
	}

	offer.Status = models.OfferStatusAccepted
	rejected, err := s.offers.Accept(ctx, offer)
	if err != nil {
		return nil, s.storeErr(err)
	}
	s.invalidate(offer.ID)

	s.notifyParties(offer, EventNegotiationUpdate, offerEvent(offer))
	for _, sibling := range rejected {
		s.invalidate(sibling.ID)
		s.notify(sibling.ProviderID, EventNegotiationUpdate, map[string]interface{}{
			"offer_id": sibling.ID,
			"status":   models.OfferStatusRejected,
		})
	}
	return offer, nil
}

// RejectOffer closes a live offer without a winner: either the seeker
// declines it or the provider withdraws their own. Only a pending or
// negotiating offer can be rejected this way; once one is, the decision
// lands in the history log and both parties are notified.
func (s *OfferService) RejectOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	if offer.Status != models.OfferStatusPending && offer.Status != models.OfferStatusNegotiating {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("cannot reject an offer in status %s", offer.Status))
	}

	note := "declined by seeker"
	if actorID == offer.ProviderID {
		note = "withdrawn by provider"
	}
	previous := offer.Status
	rejected := models.OfferStatusRejected
	offer.Status = rejected

	entry := models.NegotiationHistoryEntry{
		OfferID:   offer.ID,
		Field:     models.HistoryFieldStatus,
		OldValue:  &previous,
		NewValue:  &rejected,
		ChangedBy: actorID,
		Note:      &note,
		CreatedAt: s.now(),
	}
	if err := s.persistNegotiation(ctx, offer, []models.NegotiationHistoryEntry{entry}); err != nil {
		return nil, err
	}

	s.notifyParties(offer, EventNegotiationUpdate, offerEvent(offer))
	return offer, nil
}

// FundEscrow captures the seeker's escrow payment for an accepted offer and
// moves the service to in_progress. This is the "escrow captured" trigger of
// the accepted → in_progress transition.
func (s *OfferService) FundEscrow(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	if actorID != offer.SeekerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the seeker funds the escrow")
	}
	if offer.Status != models.OfferStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("escrow can only be funded for an accepted offer, status is %s", offer.Status))
	}

	amount := *offer.NegotiationTerms.Price
	if _, err := s.escrow.CreateEscrow(ctx, offer.ID, offer.SeekerID, offer.ProviderID, amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePaymentUpstream, "escrow charge failed")
	}

	offer.Status = models.OfferStatusInProgress
	offer.EscrowFunded = true
	if err := s.offers.UpdateLifecycle(ctx, offer); err != nil {
		// The charge went through but the transition did not; hand the money
		// back so nothing stays frozen against a stale offer.
		if _, refundErr := s.escrow.RefundEscrow(ctx, offer.ID, 100); refundErr != nil {
			logger.Log.Errorf("offer service: compensating refund failed for offer %s: %v", offer.ID, refundErr)
		}
		return nil, s.storeErr(err)
	}
	s.invalidate(offer.ID)

	s.notifyParties(offer, EventPaymentCompleted, offerEvent(offer))
	return offer, nil
}

// CompleteService marks an in-progress service as completed and releases the
// escrowed funds to the provider. Seeker only. Terminal and irreversible.
func (s *OfferService) CompleteService(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	if actorID != offer.SeekerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the seeker may confirm completion")
	}
	if offer.Status != models.OfferStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("cannot complete a service in status %s", offer.Status))
	}

	if offer.EscrowFunded {
		if _, err := s.escrow.ReleaseEscrow(ctx, offer.ID); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodePaymentUpstream, "escrow release failed")
		}
	}

	offer.Status = models.OfferStatusCompleted
	if err := s.offers.UpdateLifecycle(ctx, offer); err != nil {
		return nil, s.storeErr(err)
	}
	if err := s.offers.SetJobRequestStatus(ctx, offer.JobRequestID, models.JobRequestStatusClosed, &offer.ID); err != nil {
		logger.Log.Errorf("offer service: close job request %s: %v", offer.JobRequestID, err)
	}
	s.invalidate(offer.ID)

	s.notifyParties(offer, EventServiceCompleted, offerEvent(offer))
	return offer, nil
}

// RequestCancellation cancels an accepted or in-progress service at either
// party's request. The refund tier depends on how far away the scheduled
// service time still is; the resolution is single-shot: the request is
// recorded and immediately resolved to cancelled with the refund applied.
func (s *OfferService) RequestCancellation(ctx context.Context, offerID, actorID uuid.UUID, reason string) (*models.Offer, error) {
	unlock := s.locks.Lock(offerID.String())
	defer unlock()

	offer, err := s.freshOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}
	if offer.Status != models.OfferStatusAccepted && offer.Status != models.OfferStatusInProgress {
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			fmt.Sprintf("cannot cancel a service in status %s", offer.Status))
	}

	percentage := negotiation.FullRefundPercentage
	if scheduled, err := negotiation.ScheduledAt(offer.NegotiationTerms); err == nil {
		percentage = negotiation.RefundPercentage(scheduled, s.now())
	}

	if offer.EscrowFunded {
		if _, err := s.escrow.RefundEscrow(ctx, offer.ID, percentage); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodePaymentUpstream, "escrow refund failed")
		}
	}

	// The request and its immediate resolution both land in the history
	// log, so the audit trail shows who asked and how it settled even
	// though no approval step sits between the two.
	now := s.now()
	previous := offer.Status
	requested := models.OfferStatusCancellationRequested
	resolved := models.OfferStatusCancelled
	entries := []models.NegotiationHistoryEntry{
		{
			OfferID:   offer.ID,
			Field:     models.HistoryFieldStatus,
			OldValue:  &previous,
			NewValue:  &requested,
			ChangedBy: actorID,
			Note:      &reason,
			CreatedAt: now,
		},
		{
			OfferID:   offer.ID,
			Field:     models.HistoryFieldStatus,
			OldValue:  &requested,
			NewValue:  &resolved,
			ChangedBy: actorID,
			CreatedAt: now,
		},
	}

	offer.Status = resolved
	offer.CancellationReason = &reason
	offer.RefundPercentage = &percentage
	if err := s.persistNegotiation(ctx, offer, entries); err != nil {
		return nil, err
	}
	// The request goes back to the pool so the seeker can pick another
	// provider.
	if err := s.offers.SetJobRequestStatus(ctx, offer.JobRequestID, models.JobRequestStatusOpen, nil); err != nil {
		logger.Log.Errorf("offer service: reopen job request %s: %v", offer.JobRequestID, err)
	}

	s.notifyParties(offer, EventServiceCancelled, offerEvent(offer))
	return offer, nil
}

// History returns the negotiation audit log for one of the parties, newest
// first.
func (s *OfferService) History(ctx context.Context, offerID, actorID uuid.UUID, limit, offset int) ([]models.NegotiationHistoryEntry, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParty(actorID) {
		return nil, apperror.ErrNotAParty
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.offers.ListHistory(ctx, offerID, limit, offset)
}

// loadOffer reads through the short-lived cache; reads tolerate slight
// staleness, mutating paths use freshOffer instead.
func (s *OfferService) loadOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	if s.cache == nil {
		return s.freshOffer(ctx, offerID)
	}
	value, err := s.cache.GetOrSet(ctx, OfferCacheKey(offerID), offerCacheTTL, func() (interface{}, error) {
		offer, err := s.freshOffer(ctx, offerID)
		if err != nil {
			return nil, err
		}
		return offer, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.Offer), nil
}

func (s *OfferService) freshOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return offer, nil
}

func (s *OfferService) persistNegotiation(ctx context.Context, offer *models.Offer, entries []models.NegotiationHistoryEntry) error {
	if err := s.offers.UpdateNegotiation(ctx, offer, entries); err != nil {
		return s.storeErr(err)
	}
	s.invalidate(offer.ID)
	return nil
}

func (s *OfferService) invalidate(offerID uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(OfferCacheKey(offerID))
	}
}

// storeErr translates repository sentinels into the stable taxonomy.
func (s *OfferService) storeErr(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return apperror.ErrOfferNotFound
	case errors.Is(err, common.ErrVersionConflict):
		return apperror.ErrStaleOffer
	default:
		return err
	}
}

func (s *OfferService) notifyParties(offer *models.Offer, event string, data interface{}) {
	s.notify(offer.SeekerID, event, data)
	s.notify(offer.ProviderID, event, data)
}

func (s *OfferService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.Errorf("offer service: broadcast %s to %s: %v", event, userID, err)
	}
}

// offerEvent is the payload clients receive; they re-fetch full state.
func offerEvent(offer *models.Offer) map[string]interface{} {
	return map[string]interface{}{
		"offer_id":       offer.ID,
		"job_request_id": offer.JobRequestID,
		"status":         offer.Status,
	}
}
