package webhook

import (
	"time"
)

const EventAuthenticated = "authenticated"

// Event is the JSON body delivered to the post-authentication endpoint
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Identity  string    `json:"identity"`
	Station   string    `json:"station,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
