package models

import "time"

// NotificationRequest is the payload handed to the external notification
// scheduler. Delivery is not implemented here; the agent only computes the
// fire instants.
type NotificationRequest struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	FireAt  time.Time `json:"fire_at"`
}
