package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/logger"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/negotiation"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/pkg/apperror"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

func init() {
	logger.Init("error")
}

type mockOfferStore struct {
	mock.Mock
}

func (m *mockOfferStore) Create(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *mockOfferStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferStore) GetActiveByJobRequestAndProvider(ctx context.Context, jobRequestID, providerID uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, jobRequestID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferStore) ListByJobRequest(ctx context.Context, jobRequestID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, jobRequestID)
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferStore) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferStore) UpdateNegotiation(ctx context.Context, offer *models.Offer, entries []models.NegotiationHistoryEntry) error {
	args := m.Called(ctx, offer, entries)
	return args.Error(0)
}

func (m *mockOfferStore) UpdateLifecycle(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *mockOfferStore) Accept(ctx context.Context, offer *models.Offer) ([]repository.RejectedSibling, error) {
	args := m.Called(ctx, offer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RejectedSibling), args.Error(1)
}

func (m *mockOfferStore) SetJobRequestStatus(ctx context.Context, jobRequestID uuid.UUID, status string, assignedOfferID *uuid.UUID) error {
	args := m.Called(ctx, jobRequestID, status, assignedOfferID)
	return args.Error(0)
}

func (m *mockOfferStore) ListHistory(ctx context.Context, offerID uuid.UUID, limit, offset int) ([]models.NegotiationHistoryEntry, error) {
	args := m.Called(ctx, offerID, limit, offset)
	return args.Get(0).([]models.NegotiationHistoryEntry), args.Error(1)
}

type mockJobRequestStore struct {
	mock.Mock
}

func (m *mockJobRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.JobRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobRequest), args.Error(1)
}

type mockEscrowManager struct {
	mock.Mock
}

func (m *mockEscrowManager) CreateEscrow(ctx context.Context, offerID, seekerID, providerID uuid.UUID, amount float64) (*models.Escrow, error) {
	args := m.Called(ctx, offerID, seekerID, providerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowManager) ReleaseEscrow(ctx context.Context, offerID uuid.UUID) (*models.Escrow, error) {
	args := m.Called(ctx, offerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func (m *mockEscrowManager) RefundEscrow(ctx context.Context, offerID uuid.UUID, percentage int) (*models.Escrow, error) {
	args := m.Called(ctx, offerID, percentage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escrow), args.Error(1)
}

func newTestOfferService(offers *mockOfferStore, requests *mockJobRequestStore, escrow *mockEscrowManager) *OfferService {
	return NewOfferService(offers, requests, escrow, nil)
}

func completeOffer(seekerID, providerID uuid.UUID, status string) *models.Offer {
	price := 1500.0
	date := "2026-10-01"
	timeOfDay := "14:00"
	materials := "included"
	scope := "full bathroom repaint"
	return &models.Offer{
		ID:            uuid.New(),
		JobRequestID:  uuid.New(),
		SeekerID:      seekerID,
		ProviderID:    providerID,
		Message:       "I can do this",
		ProposedPrice: 1500,
		Status:        status,
		NegotiationTerms: models.NegotiationTerms{
			Price:     &price,
			Date:      &date,
			Time:      &timeOfDay,
			Materials: &materials,
			Scope:     &scope,
		},
		ConfirmationStatus: models.ConfirmationStatus{
			SeekerConfirmed:   true,
			ProviderConfirmed: true,
		},
		Version: 1,
	}
}

func TestOfferService_CreateOffer_Success(t *testing.T) {
	offers := new(mockOfferStore)
	requests := new(mockJobRequestStore)
	svc := newTestOfferService(offers, requests, new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	providerID := uuid.New()
	jobRequestID := uuid.New()

	requests.On("GetByID", ctx, jobRequestID).Return(&models.JobRequest{
		ID:       jobRequestID,
		SeekerID: seekerID,
		Status:   models.JobRequestStatusOpen,
	}, nil)
	offers.On("GetActiveByJobRequestAndProvider", ctx, jobRequestID, providerID).Return(nil, common.ErrNotFound)
	offers.On("Create", ctx, mock.AnythingOfType("*models.Offer")).Return(nil)

	offer, err := svc.CreateOffer(ctx, CreateOfferInput{
		JobRequestID:  jobRequestID,
		ProviderID:    providerID,
		Message:       "I can start tomorrow",
		ProposedPrice: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, seekerID, offer.SeekerID)
	assert.Equal(t, providerID, offer.ProviderID)
	offers.AssertExpectations(t)
}

func TestOfferService_CreateOffer_OwnRequest(t *testing.T) {
	offers := new(mockOfferStore)
	requests := new(mockJobRequestStore)
	svc := newTestOfferService(offers, requests, new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	jobRequestID := uuid.New()

	requests.On("GetByID", ctx, jobRequestID).Return(&models.JobRequest{
		ID:       jobRequestID,
		SeekerID: seekerID,
		Status:   models.JobRequestStatusOpen,
	}, nil)

	_, err := svc.CreateOffer(ctx, CreateOfferInput{
		JobRequestID:  jobRequestID,
		ProviderID:    seekerID,
		Message:       "hi",
		ProposedPrice: 100,
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestOfferService_CreateOffer_DuplicateActiveOffer(t *testing.T) {
	offers := new(mockOfferStore)
	requests := new(mockJobRequestStore)
	svc := newTestOfferService(offers, requests, new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	providerID := uuid.New()
	jobRequestID := uuid.New()

	requests.On("GetByID", ctx, jobRequestID).Return(&models.JobRequest{
		ID:       jobRequestID,
		SeekerID: seekerID,
		Status:   models.JobRequestStatusOpen,
	}, nil)
	offers.On("GetActiveByJobRequestAndProvider", ctx, jobRequestID, providerID).
		Return(&models.Offer{ID: uuid.New()}, nil)

	_, err := svc.CreateOffer(ctx, CreateOfferInput{
		JobRequestID:  jobRequestID,
		ProviderID:    providerID,
		Message:       "again",
		ProposedPrice: 100,
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestOfferService_UpdateTerms_PersistsHistory(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	providerID := uuid.New()
	offer := completeOffer(seekerID, providerID, models.OfferStatusNegotiating)

	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("UpdateNegotiation", ctx, offer, mock.AnythingOfType("[]models.NegotiationHistoryEntry")).Return(nil)

	price := 2000.0
	updated, err := svc.UpdateTerms(ctx, offer.ID, seekerID, negotiation.TermsUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, *updated.Price)
	assert.False(t, updated.SeekerConfirmed)
	assert.False(t, updated.ProviderConfirmed)
	offers.AssertExpectations(t)
}

func TestOfferService_UpdateTerms_NoOpSkipsPersistence(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	offer := completeOffer(seekerID, uuid.New(), models.OfferStatusNegotiating)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	samePrice := *offer.Price
	updated, err := svc.UpdateTerms(ctx, offer.ID, seekerID, negotiation.TermsUpdate{Price: &samePrice})
	require.NoError(t, err)
	assert.True(t, updated.SeekerConfirmed)
	assert.True(t, updated.ProviderConfirmed)
	offers.AssertNotCalled(t, "UpdateNegotiation", mock.Anything, mock.Anything, mock.Anything)
}

func TestOfferService_UpdateTerms_StaleWrite(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	seekerID := uuid.New()
	offer := completeOffer(seekerID, uuid.New(), models.OfferStatusNegotiating)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("UpdateNegotiation", ctx, offer, mock.Anything).Return(common.ErrVersionConflict)

	price := 1750.0
	_, err := svc.UpdateTerms(ctx, offer.ID, seekerID, negotiation.TermsUpdate{Price: &price})
	assert.ErrorIs(t, err, apperror.ErrStaleOffer)
}

func TestOfferService_AcceptOffer_SeekerOnly(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.AcceptOffer(ctx, offer.ID, offer.ProviderID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestOfferService_AcceptOffer_IncompleteAgreement(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)
	offer.Materials = nil
	offer.ProviderConfirmed = false
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.AcceptOffer(ctx, offer.ID, offer.SeekerID)
	assert.True(t, apperror.IsAgreementIncomplete(err))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	gap, ok := appErr.Details.(*negotiation.AgreementGap)
	require.True(t, ok)
	assert.Equal(t, []string{models.HistoryFieldMaterials}, gap.MissingFields)
	assert.True(t, gap.AwaitingProvider)
	assert.False(t, gap.AwaitingSeeker)
	offers.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestOfferService_AcceptOffer_SingleWinner(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)
	rejected := []repository.RejectedSibling{
		{ID: uuid.New(), ProviderID: uuid.New()},
		{ID: uuid.New(), ProviderID: uuid.New()},
	}
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("Accept", ctx, offer).Return(rejected, nil)

	accepted, err := svc.AcceptOffer(ctx, offer.ID, offer.SeekerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, accepted.Status)
	offers.AssertExpectations(t)
}

func TestOfferService_AcceptOffer_Idempotent(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusAccepted)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	accepted, err := svc.AcceptOffer(ctx, offer.ID, offer.SeekerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusAccepted, accepted.Status)
	offers.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
}

func TestOfferService_RejectOffer_ProviderWithdraws(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)

	var entries []models.NegotiationHistoryEntry
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("UpdateNegotiation", ctx, offer, mock.AnythingOfType("[]models.NegotiationHistoryEntry")).
		Run(func(args mock.Arguments) {
			entries = args.Get(2).([]models.NegotiationHistoryEntry)
		}).Return(nil)

	rejected, err := svc.RejectOffer(ctx, offer.ID, offer.ProviderID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, rejected.Status)

	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryFieldStatus, entries[0].Field)
	assert.Equal(t, models.OfferStatusNegotiating, *entries[0].OldValue)
	assert.Equal(t, models.OfferStatusRejected, *entries[0].NewValue)
	assert.Equal(t, "withdrawn by provider", *entries[0].Note)
	assert.Equal(t, offer.ProviderID, entries[0].ChangedBy)
}

func TestOfferService_RejectOffer_SeekerDeclines(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusPending)

	var entries []models.NegotiationHistoryEntry
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("UpdateNegotiation", ctx, offer, mock.AnythingOfType("[]models.NegotiationHistoryEntry")).
		Run(func(args mock.Arguments) {
			entries = args.Get(2).([]models.NegotiationHistoryEntry)
		}).Return(nil)

	rejected, err := svc.RejectOffer(ctx, offer.ID, offer.SeekerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, rejected.Status)
	require.Len(t, entries, 1)
	assert.Equal(t, "declined by seeker", *entries[0].Note)
}

func TestOfferService_RejectOffer_AcceptedIsInvalidState(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusAccepted)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.RejectOffer(ctx, offer.ID, offer.SeekerID)
	assert.True(t, apperror.IsInvalidState(err))
	offers.AssertNotCalled(t, "UpdateNegotiation", mock.Anything, mock.Anything, mock.Anything)
}

func TestOfferService_RejectOffer_OutsiderForbidden(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.RejectOffer(ctx, offer.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotAParty)
}

func TestOfferService_FundEscrow_MovesToInProgress(t *testing.T) {
	offers := new(mockOfferStore)
	escrow := new(mockEscrowManager)
	svc := newTestOfferService(offers, new(mockJobRequestStore), escrow)
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusAccepted)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	escrow.On("CreateEscrow", ctx, offer.ID, offer.SeekerID, offer.ProviderID, *offer.Price).
		Return(&models.Escrow{OfferID: offer.ID, Status: models.EscrowStatusHeld}, nil)
	offers.On("UpdateLifecycle", ctx, offer).Return(nil)

	funded, err := svc.FundEscrow(ctx, offer.ID, offer.SeekerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusInProgress, funded.Status)
	assert.True(t, funded.EscrowFunded)
	escrow.AssertExpectations(t)
}

func TestOfferService_FundEscrow_UpstreamFailureLeavesState(t *testing.T) {
	offers := new(mockOfferStore)
	escrow := new(mockEscrowManager)
	svc := newTestOfferService(offers, new(mockJobRequestStore), escrow)
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusAccepted)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	escrow.On("CreateEscrow", ctx, offer.ID, offer.SeekerID, offer.ProviderID, *offer.Price).
		Return(nil, errors.New("gateway timeout"))

	_, err := svc.FundEscrow(ctx, offer.ID, offer.SeekerID)
	require.Error(t, err)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodePaymentUpstream, appErr.Code)
	offers.AssertNotCalled(t, "UpdateLifecycle", mock.Anything, mock.Anything)
}

func TestOfferService_CompleteService_ReleasesEscrow(t *testing.T) {
	offers := new(mockOfferStore)
	escrow := new(mockEscrowManager)
	svc := newTestOfferService(offers, new(mockJobRequestStore), escrow)
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusInProgress)
	offer.EscrowFunded = true
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	escrow.On("ReleaseEscrow", ctx, offer.ID).
		Return(&models.Escrow{OfferID: offer.ID, Status: models.EscrowStatusReleased}, nil)
	offers.On("UpdateLifecycle", ctx, offer).Return(nil)
	offers.On("SetJobRequestStatus", ctx, offer.JobRequestID, models.JobRequestStatusClosed, &offer.ID).Return(nil)

	completed, err := svc.CompleteService(ctx, offer.ID, offer.SeekerID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusCompleted, completed.Status)
	escrow.AssertExpectations(t)
}

func TestOfferService_CompleteService_ProviderForbidden(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusInProgress)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.CompleteService(ctx, offer.ID, offer.ProviderID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestOfferService_RequestCancellation_RefundTiers(t *testing.T) {
	cases := []struct {
		name           string
		hoursAhead     time.Duration
		wantPercentage int
	}{
		{"far ahead gets full refund", 48 * time.Hour, 100},
		{"close to service time gets partial refund", 3 * time.Hour, 70},
		{"exactly at the boundary gets partial refund", 12 * time.Hour, 70},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offers := new(mockOfferStore)
			escrow := new(mockEscrowManager)
			svc := newTestOfferService(offers, new(mockJobRequestStore), escrow)
			ctx := context.Background()

			offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusInProgress)
			offer.EscrowFunded = true
			scheduled, err := negotiation.ScheduledAt(offer.NegotiationTerms)
			require.NoError(t, err)
			svc.now = func() time.Time { return scheduled.Add(-tc.hoursAhead) }

			offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
			escrow.On("RefundEscrow", ctx, offer.ID, tc.wantPercentage).
				Return(&models.Escrow{OfferID: offer.ID, Status: models.EscrowStatusRefunded}, nil)
			offers.On("UpdateNegotiation", ctx, offer, mock.AnythingOfType("[]models.NegotiationHistoryEntry")).Return(nil)
			var noAssigned *uuid.UUID
			offers.On("SetJobRequestStatus", ctx, offer.JobRequestID, models.JobRequestStatusOpen, noAssigned).Return(nil)

			cancelled, err := svc.RequestCancellation(ctx, offer.ID, offer.ProviderID, "schedule conflict")
			require.NoError(t, err)
			assert.Equal(t, models.OfferStatusCancelled, cancelled.Status)
			require.NotNil(t, cancelled.RefundPercentage)
			assert.Equal(t, tc.wantPercentage, *cancelled.RefundPercentage)
			escrow.AssertExpectations(t)
		})
	}
}

func TestOfferService_RequestCancellation_RecordsAuditTrail(t *testing.T) {
	offers := new(mockOfferStore)
	escrow := new(mockEscrowManager)
	svc := newTestOfferService(offers, new(mockJobRequestStore), escrow)
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusAccepted)

	var entries []models.NegotiationHistoryEntry
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	offers.On("UpdateNegotiation", ctx, offer, mock.AnythingOfType("[]models.NegotiationHistoryEntry")).
		Run(func(args mock.Arguments) {
			entries = args.Get(2).([]models.NegotiationHistoryEntry)
		}).Return(nil)
	var noAssigned *uuid.UUID
	offers.On("SetJobRequestStatus", ctx, offer.JobRequestID, models.JobRequestStatusOpen, noAssigned).Return(nil)

	_, err := svc.RequestCancellation(ctx, offer.ID, offer.SeekerID, "found someone else")
	require.NoError(t, err)

	// The log shows the request and its immediate resolution.
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryFieldStatus, entries[0].Field)
	assert.Equal(t, models.OfferStatusAccepted, *entries[0].OldValue)
	assert.Equal(t, models.OfferStatusCancellationRequested, *entries[0].NewValue)
	assert.Equal(t, "found someone else", *entries[0].Note)
	assert.Equal(t, models.OfferStatusCancellationRequested, *entries[1].OldValue)
	assert.Equal(t, models.OfferStatusCancelled, *entries[1].NewValue)
}

func TestOfferService_RequestCancellation_TerminalRejected(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusCompleted)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.RequestCancellation(ctx, offer.ID, offer.SeekerID, "changed my mind")
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOfferService_History_OutsiderForbidden(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	offer := completeOffer(uuid.New(), uuid.New(), models.OfferStatusNegotiating)
	offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := svc.History(ctx, offer.ID, uuid.New(), 20, 0)
	assert.ErrorIs(t, err, apperror.ErrNotAParty)
}

func TestOfferService_GetOffer_NotFound(t *testing.T) {
	offers := new(mockOfferStore)
	svc := newTestOfferService(offers, new(mockJobRequestStore), new(mockEscrowManager))
	ctx := context.Background()

	id := uuid.New()
	offers.On("GetByID", ctx, id).Return(nil, common.ErrNotFound)

	_, err := svc.GetOffer(ctx, id, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrOfferNotFound)
}
