package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/negotiation"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/validation"
)

// OfferHandler is the HTTP layer for offers and their negotiation.
type OfferHandler struct {
	offers *service.OfferService
}

// NewOfferHandler creates the handler.
func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// CreateOffer handles POST /job-requests/:id/offers.
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobRequestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateOfferRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateLength("message", req.Message, validation.MinOfferMessageLength, validation.MaxOfferMessageLength); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidatePrice(req.ProposedPrice); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.CreateOffer(c.Request.Context(), service.CreateOfferInput{
		JobRequestID:  jobRequestID,
		ProviderID:    userID,
		Message:       req.Message,
		ProposedPrice: req.ProposedPrice,
		Availability:  req.Availability,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, dto.NewOfferResponse(offer))
}

// ListOffersForRequest handles GET /job-requests/:id/offers.
func (h *OfferHandler) ListOffersForRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobRequestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offers, err := h.offers.ListOffersForRequest(c.Request.Context(), jobRequestID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferListResponse(offers))
}

// ListMyOffers handles GET /offers/my.
func (h *OfferHandler) ListMyOffers(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offers, err := h.offers.ListMyOffers(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferListResponse(offers))
}

// GetOffer handles GET /offers/:id.
func (h *OfferHandler) GetOffer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.GetOffer(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferResponse(offer))
}

// UpdateTerms handles PUT /offers/:id/terms.
func (h *OfferHandler) UpdateTerms(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateTermsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if req.Price != nil {
		if err := validation.ValidatePrice(*req.Price); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if req.Date != nil {
		if err := validation.ValidateDate(*req.Date); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if req.Time != nil {
		if err := validation.ValidateTime(*req.Time); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if req.Materials != nil {
		if err := validation.ValidateMaterials(*req.Materials); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}
	if req.Scope != nil {
		if err := validation.ValidateScope(*req.Scope); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	offer, err := h.offers.UpdateTerms(c.Request.Context(), offerID, userID, negotiation.TermsUpdate{
		Price:     req.Price,
		Date:      req.Date,
		Time:      req.Time,
		Materials: req.Materials,
		Scope:     req.Scope,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferResponse(offer))
}

// ConfirmTerms handles POST /offers/:id/confirm.
func (h *OfferHandler) ConfirmTerms(c *gin.Context) {
	h.negotiationAction(c, h.offers.ConfirmTerms)
}

// ResetConfirmations handles POST /offers/:id/confirmations/reset.
func (h *OfferHandler) ResetConfirmations(c *gin.Context) {
	h.negotiationAction(c, h.offers.ResetConfirmations)
}

// AcceptOffer handles POST /offers/:id/accept.
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	h.negotiationAction(c, h.offers.AcceptOffer)
}

// RejectOffer handles POST /offers/:id/reject.
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	h.negotiationAction(c, h.offers.RejectOffer)
}

// FundEscrow handles POST /offers/:id/escrow.
func (h *OfferHandler) FundEscrow(c *gin.Context) {
	h.negotiationAction(c, h.offers.FundEscrow)
}

// CompleteService handles POST /offers/:id/complete.
func (h *OfferHandler) CompleteService(c *gin.Context) {
	h.negotiationAction(c, h.offers.CompleteService)
}

// RequestCancellation handles POST /offers/:id/cancel.
func (h *OfferHandler) RequestCancellation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CancelOfferRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateNonEmpty("reason", req.Reason); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateLength("reason", req.Reason, 1, validation.MaxCancellationReason); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.RequestCancellation(c.Request.Context(), offerID, userID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferResponse(offer))
}

// History handles GET /offers/:id/history.
func (h *OfferHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	entries, err := h.offers.History(c.Request.Context(), offerID, userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.HistoryResponse{
		Entries: entries,
		Limit:   limit,
		Offset:  offset,
	})
}

// negotiationAction factors the body-less offer transitions: parse IDs, run
// the action, respond with the updated offer.
func (h *OfferHandler) negotiationAction(c *gin.Context, action func(ctx context.Context, offerID, actorID uuid.UUID) (*models.Offer, error)) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := action(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewOfferResponse(offer))
}
