package models

import "time"

// NotificationLevel separates error and success toasts.
type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationSuccess NotificationLevel = "success"
)

// Notification is a human readable message surfaced to the user.
type Notification struct {
	Level     NotificationLevel `json:"level"`
	Source    string            `json:"source"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
