package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// NotificationEvent names the substitution events pushed to teachers.
type NotificationEvent string

const (
	NotificationSubstitutionAssigned  NotificationEvent = "SUBSTITUTION_ASSIGNED"
	NotificationSubstitutionCancelled NotificationEvent = "SUBSTITUTION_CANCELLED"
	NotificationSubstitutionReplaced  NotificationEvent = "SUBSTITUTION_REPLACED"
	NotificationSubstitutionConfirmed NotificationEvent = "SUBSTITUTION_CONFIRMED"
)

// Notification is an in-app message persisted by the notification worker.
type Notification struct {
	ID          string            `db:"id" json:"id"`
	TenantID    string            `db:"tenant_id" json:"tenant_id"`
	RecipientID string            `db:"recipient_id" json:"recipient_id"`
	EventType   NotificationEvent `db:"event_type" json:"event_type"`
	Payload     types.JSONText    `db:"payload" json:"payload"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}
