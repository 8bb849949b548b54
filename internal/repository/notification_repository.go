package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/models"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/repository/common"
)

type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, payload, is_read)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	row := r.db.QueryRowxContext(ctx, query, notification.UserID, notification.Payload, notification.IsRead)
	if err := row.Scan(&notification.ID, &notification.CreatedAt); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// GetByID returns one notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return common.GetByID[models.Notification](ctx, r.db, "notifications", id, common.ErrNotFound)
}

// List returns the user's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT * FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return notifications, nil
}

// MarkAsRead flags one notification as read.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark as read %w", err)
	}
	return nil
}

// MarkAllAsRead flags all of the user's notifications as read.
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("notification repository: mark all as read %w", err)
	}
	return nil
}

// CountUnread returns the number of unread notifications.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}
