package domain

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}

type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingUpdated   NotificationType = "BOOKING_UPDATED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationCarReturned      NotificationType = "CAR_RETURNED"
	NotificationReturnReminder   NotificationType = "RETURN_REMINDER"
)

// NotificationEvent is what the lifecycle hands to the notifier. It is
// fanned out to the inbox, e-mail and push channels.
type NotificationEvent struct {
	Type       NotificationType
	Title      string
	Message    string
	Attributes map[string]string
}
