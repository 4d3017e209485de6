package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error)
	ExistsWithDedupKey(ctx context.Context, recipientID, key string) (bool, error)
}

// NotificationServiceConfig bounds listing.
type NotificationServiceConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// NotificationService is the durable, per-user alert sink. Rows are appended
// once and mutated only to flip read state; a recipient can only touch their
// own rows.
type NotificationService struct {
	store     notificationStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       NotificationServiceConfig
}

// NewNotificationService constructs the service.
func NewNotificationService(store notificationStore, validate *validator.Validate, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &NotificationService{store: store, validator: validate, logger: logger, now: time.Now, cfg: cfg}
}

// appendPayload validates the single-alert creation primitive.
type appendPayload struct {
	RecipientID string                      `validate:"required"`
	Type        models.NotificationType     `validate:"required,oneof=iep_due meeting_reminder goal_update team_invitation compliance_alert system_update"`
	Title       string                      `validate:"required"`
	Priority    models.NotificationPriority `validate:"required,oneof=low medium high"`
}

// Append persists one notification with read = false. This is the only
// creation path; there is no batch or upsert variant.
func (s *NotificationService) Append(ctx context.Context, n *models.Notification) error {
	payload := appendPayload{
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Title:       n.Title,
		Priority:    n.Priority,
	}
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification")
	}
	if err := s.store.Create(ctx, n); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return nil
}

// HasAlertWithKey reports whether the recipient already has an alert carrying
// the dedup key.
func (s *NotificationService) HasAlertWithKey(ctx context.Context, recipientID, key string) (bool, error) {
	return s.store.ExistsWithDedupKey(ctx, recipientID, key)
}

// List returns the actor's most recent notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actorID string, limit int) ([]models.Notification, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	notifications, err := s.store.ListByRecipient(ctx, actorID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the actor's unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, actorID string) (int, error) {
	if actorID == "" {
		return 0, appErrors.ErrUnauthorized
	}
	count, err := s.store.CountUnread(ctx, actorID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips one notification to read. Only the recipient may do this.
func (s *NotificationService) MarkRead(ctx context.Context, actorID, notificationID string) error {
	if actorID == "" {
		return appErrors.ErrUnauthorized
	}
	n, err := s.store.GetByID(ctx, notificationID)
	if err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if n.RecipientID != actorID {
		return appErrors.ErrForbidden
	}
	if n.Read {
		return nil
	}
	if err := s.store.MarkRead(ctx, notificationID, s.now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flips every unread notification for the actor in one logical
// operation and returns the number affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, actorID string) (int64, error) {
	if actorID == "" {
		return 0, appErrors.ErrUnauthorized
	}
	affected, err := s.store.MarkAllRead(ctx, actorID, s.now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return affected, nil
}
