package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
)

// NegotiationState is the nested negotiation view of an offer: the current
// terms, both confirmation flags and the derived acceptance gate.
type NegotiationState struct {
	Terms             models.NegotiationTerms `json:"terms"`
	SeekerConfirmed   bool                    `json:"seeker_confirmed"`
	ProviderConfirmed bool                    `json:"provider_confirmed"`
	CanAcceptOffer    bool                    `json:"can_accept_offer"`
}

// OfferResponse represents an offer with its negotiation state broken out.
type OfferResponse struct {
	ID            uuid.UUID `json:"id"`
	JobRequestID  uuid.UUID `json:"job_request_id"`
	SeekerID      uuid.UUID `json:"seeker_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	Message       string    `json:"message"`
	ProposedPrice float64   `json:"proposed_price"`
	Availability  *string   `json:"availability,omitempty"`
	Status        string    `json:"status"`

	Negotiation NegotiationState `json:"negotiation"`

	EscrowFunded       bool      `json:"escrow_funded"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
	RefundPercentage   *int      `json:"refund_percentage,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewOfferResponse builds the response view of an offer.
func NewOfferResponse(offer *models.Offer) *OfferResponse {
	return &OfferResponse{
		ID:            offer.ID,
		JobRequestID:  offer.JobRequestID,
		SeekerID:      offer.SeekerID,
		ProviderID:    offer.ProviderID,
		Message:       offer.Message,
		ProposedPrice: offer.ProposedPrice,
		Availability:  offer.Availability,
		Status:        offer.Status,
		Negotiation: NegotiationState{
			Terms:             offer.NegotiationTerms,
			SeekerConfirmed:   offer.SeekerConfirmed,
			ProviderConfirmed: offer.ProviderConfirmed,
			CanAcceptOffer:    offer.CanAcceptOffer(),
		},
		EscrowFunded:       offer.EscrowFunded,
		CancellationReason: offer.CancellationReason,
		RefundPercentage:   offer.RefundPercentage,
		CreatedAt:          offer.CreatedAt,
		UpdatedAt:          offer.UpdatedAt,
	}
}

// NewOfferListResponse maps a slice of offers to responses.
func NewOfferListResponse(offers []models.Offer) []*OfferResponse {
	out := make([]*OfferResponse, 0, len(offers))
	for i := range offers {
		out = append(out, NewOfferResponse(&offers[i]))
	}
	return out
}

// AuthResponse represents the result of registration, login or refresh.
type AuthResponse struct {
	User         *models.User `json:"user,omitempty"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in_seconds"`
}

// HistoryResponse represents a page of the negotiation audit log.
type HistoryResponse struct {
	Entries []models.NegotiationHistoryEntry `json:"entries"`
	Limit   int                              `json:"limit"`
	Offset  int                              `json:"offset"`
}

// ErrorBody is the machine-readable error envelope.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
