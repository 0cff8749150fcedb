package events

import (
	"encoding/json"
	"time"
)

// Type classifies a council progress event for frontend display.
type Type string

const (
	TypeStageStart Type = "stage_start"
	TypeReview     Type = "review"
	TypeDiscussion Type = "discussion"
	TypeSynthesis  Type = "synthesis"
	TypeError      Type = "error"
	TypeReport     Type = "report"
)

// Event is one progress notification emitted during a council run.
type Event struct {
	Type       Type      `json:"type"`
	Name       string    `json:"name"`
	Detail     string    `json:"detail,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"timestamp"`
}

func New(eventType Type, name, detail string) Event {
	return Event{
		Type:       eventType,
		Name:       name,
		Detail:     detail,
		OccurredAt: time.Now(),
	}
}

// ToSSEData renders the event as one SSE data payload.
func (e Event) ToSSEData() string {
	type wire struct {
		Event
		TimeFormatted string `json:"time_formatted"`
	}
	data, err := json.Marshal(wire{
		Event:         e,
		TimeFormatted: e.OccurredAt.Format("15:04:05"),
	})
	if err != nil {
		return "{}"
	}
	return string(data)
}
