package models

import "time"

// NotificationType categorises why an alert was created.
type NotificationType string

const (
	NotificationTypeIEPDue          NotificationType = "iep_due"
	NotificationTypeMeetingReminder NotificationType = "meeting_reminder"
	NotificationTypeGoalUpdate      NotificationType = "goal_update"
	NotificationTypeTeamInvitation  NotificationType = "team_invitation"
	NotificationTypeComplianceAlert NotificationType = "compliance_alert"
	NotificationTypeSystemUpdate    NotificationType = "system_update"
)

// NotificationPriority orders alerts for display.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is an append-mostly alert row. Rows are created once, flip
// read/read_at when acknowledged, and are never deleted.
type Notification struct {
	ID          string               `db:"id" json:"id"`
	RecipientID string               `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType     `db:"type" json:"type"`
	Title       string               `db:"title" json:"title"`
	Message     string               `db:"message" json:"message"`
	Priority    NotificationPriority `db:"priority" json:"priority"`
	Read        bool                 `db:"read" json:"read"`
	ReadAt      *time.Time           `db:"read_at" json:"read_at,omitempty"`
	RelatedID   *string              `db:"related_id" json:"related_id,omitempty"`
	ActionURL   *string              `db:"action_url" json:"action_url,omitempty"`
	DedupKey    *string              `db:"dedup_key" json:"-"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
}
