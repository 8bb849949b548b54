package ws

import (
	"context"

	"github.com/google/uuid"
)

// NotificationServiceAdapter bridges the notification service into the hub
// without a package cycle.
type NotificationServiceAdapter struct {
	service interface {
		CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
	}
}

// NewNotificationServiceAdapter creates the adapter.
func NewNotificationServiceAdapter(service interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification implements NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return a.service.CreateNotificationForWS(ctx, userID, event, data)
}
