package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TrackingEvent is one carrier checkpoint appended to an order's history.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

// TrackingHistory is stored as jsonb on the order row.
type TrackingHistory []TrackingEvent

// Latest returns the most recent checkpoint, if any.
func (h TrackingHistory) Latest() (TrackingEvent, bool) {
	if len(h) == 0 {
		return TrackingEvent{}, false
	}
	return h[len(h)-1], true
}

// Append returns a copy of the history with event added at the end.
func (h TrackingHistory) Append(event TrackingEvent) TrackingHistory {
	out := make(TrackingHistory, 0, len(h)+1)
	out = append(out, h...)
	return append(out, event)
}

// Value lets the history be written through map-based column updates.
func (h TrackingHistory) Value() (driver.Value, error) {
	if h == nil {
		h = TrackingHistory{}
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
