package events

import "time"

// Event is the envelope written to every topic.
type Event struct {
	Type string         `json:"type"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

func New(typ string, data map[string]any) Event {
	return Event{Type: typ, At: time.Now().UTC(), Data: data}
}
