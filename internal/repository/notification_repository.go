package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

const notificationColumns = `id, recipient_id, type, title, message, priority, read, read_at, related_id, action_url, dedup_key, created_at`

// NotificationRepository persists alert rows. Creation is append-only; the
// only mutation ever applied is flipping read/read_at.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends one notification with read = false.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Read = false
	n.ReadAt = nil
	const query = `INSERT INTO notifications (id, recipient_id, type, title, message, priority, read, read_at, related_id, action_url, dedup_key, created_at)
VALUES (:id, :recipient_id, :type, :title, :message, :priority, :read, :read_at, :related_id, :action_url, :dedup_key, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the most recent notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, notificationColumns)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for the recipient.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// GetByID returns a single notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead flips one notification to read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE notifications SET read = TRUE, read_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, readAt, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips every unread notification for the recipient in one
// statement and returns the number affected.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error) {
	const query = `UPDATE notifications SET read = TRUE, read_at = $1 WHERE recipient_id = $2 AND read = FALSE`
	result, err := r.db.ExecContext(ctx, query, readAt, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}

// ExistsWithDedupKey reports whether the recipient already has an alert with
// the given dedup key.
func (r *NotificationRepository) ExistsWithDedupKey(ctx context.Context, recipientID, key string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notifications WHERE recipient_id = $1 AND dedup_key = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, recipientID, key); err != nil {
		return false, fmt.Errorf("check notification dedup key: %w", err)
	}
	return exists, nil
}
