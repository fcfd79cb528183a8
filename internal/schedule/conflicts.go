package schedule

import (
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// FindConflicts returns every event that overlaps the candidate interval
// [start, end). Intervals are half-open, so an event ending exactly at start
// (or starting exactly at end) does not conflict.
//
// Both sides must already be normalized to the same zone; this function is a
// pure comparison and does no conversion of its own. Events are returned in
// input order, which for gateway listings means ascending start time, so the
// first element is the earliest conflict.
func FindConflicts(start, end time.Time, events []domain.CalendarEvent) []domain.CalendarEvent {
	var conflicts []domain.CalendarEvent
	for _, ev := range events {
		if start.Before(ev.EndTime) && end.After(ev.StartTime) {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts
}
