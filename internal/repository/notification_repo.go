package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/application/port"
	"github.com/qasimops/intellimaintain/internal/domain/entity"
)

// NotificationRepository handles notification database operations
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, title, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.UserID, n.Type, n.Title, n.Body, n.Read, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

// ListByUser retrieves a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64) ([]*entity.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, body, read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY id DESC
	`, userID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkRead marks a notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: notification %d", port.ErrNotFound, id)
	}
	return nil
}
