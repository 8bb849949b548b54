package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/dto"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

// PaymentHandler is the HTTP layer for the wallet and escrow views.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler creates the handler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// GetBalance handles GET /payments/balance.
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	balance, err := h.payments.GetBalance(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, balance)
}

// Deposit handles POST /payments/deposit.
func (h *PaymentHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.DepositRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	txn, err := h.payments.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, txn)
}

// GetEscrow handles GET /payments/escrow/:offerId.
func (h *PaymentHandler) GetEscrow(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "offerId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.payments.GetEscrow(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, escrow)
}

// ListTransactions handles GET /payments/transactions.
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	transactions, err := h.payments.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, transactions)
}
