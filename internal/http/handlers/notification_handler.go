package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers/common"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

// NotificationHandler is the HTTP layer for the notification feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates the handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications handles GET /notifications.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, notifications)
}

// CountUnread handles GET /notifications/unread/count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"count": count})
}

// MarkAsRead handles PUT /notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id, userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "notification marked as read", nil)
}

// MarkAllAsRead handles PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "all notifications marked as read", nil)
}
