package models

// WidgetSnapshot is the flat payload handed to the home-screen widget sink.
// Rendering is entirely external; the agent only computes and serializes it.
type WidgetSnapshot struct {
	NextEventName    string            `json:"next_event_name"`
	NextEventTime    string            `json:"next_event_time"`
	RemainingMinutes int               `json:"remaining_minutes"`
	CurrentTime      string            `json:"current_time"`
	LocationLabel    string            `json:"location_label"`
	Times            map[string]string `json:"times"`
}
