package dto

import (
	"time"

	"github.com/caseflow/iep-compliance-api/internal/models"
)

// NotificationResponse exposes a single notification.
type NotificationResponse struct {
	ID        string                      `json:"id"`
	Type      models.NotificationType     `json:"type"`
	Priority  models.NotificationPriority `json:"priority"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	Read      bool                        `json:"read"`
	ReadAt    *time.Time                  `json:"readAt,omitempty"`
	RelatedID *string                     `json:"relatedId,omitempty"`
	ActionURL *string                     `json:"actionUrl,omitempty"`
	CreatedAt time.Time                   `json:"createdAt"`
}

// NotificationListResponse pages through a recipient's feed.
type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int                    `json:"unread"`
	Limit  int                    `json:"limit"`
}

// UnreadCountResponse carries the unread badge count.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// MarkAllReadResponse reports how many notifications were flipped to read.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NewNotificationResponse maps a notification onto its API shape.
func NewNotificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Priority:  n.Priority,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		RelatedID: n.RelatedID,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}
