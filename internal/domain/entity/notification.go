package entity

import "time"

// Notification is an in-app signal emitted by the lifecycle service after a
// successful transition. Only the transition layer creates these.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationTypeInfo is the default notification type.
const NotificationTypeInfo = "info"
