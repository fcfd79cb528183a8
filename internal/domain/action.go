package domain

import "time"

type ActionType string

const (
	ActionCreateEvent ActionType = "create_event"
	ActionUpdateEvent ActionType = "update_event"
	ActionDeleteEvent ActionType = "delete_event"
)

// Valid reports whether t is one of the known action types. Dispatch sites
// switch over the constants above and must handle every variant explicitly.
func (t ActionType) Valid() bool {
	switch t {
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent:
		return true
	}
	return false
}

// EventDetails is the fully normalized payload a pending action carries.
// All timestamps are already in the calendar's zone by the time the action
// is persisted. EventID is set only for update/delete actions.
type EventDetails struct {
	EventID     string    `json:"event_id,omitempty"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// PendingAction is a proposed calendar mutation awaiting explicit approval.
// It is visible and actionable only while now < ExpiresAt; past that it is
// treated as deleted even if the row briefly lingers until the next sweep.
type PendingAction struct {
	ActionID    string
	OwnerID     string
	Type        ActionType
	Description string
	Details     EventDetails
	CreatedAt   time.Time
	ExpiresAt   time.Time
}
