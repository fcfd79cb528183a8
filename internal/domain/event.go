package domain

import "time"

// CalendarEvent is the provider-independent representation of a calendar entry.
// ID is assigned by the remote provider and stays empty until the event exists
// there. Events are never mutated in place; an update is a new proposal.
type CalendarEvent struct {
	ID          string
	Title       string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	Location    string
}
