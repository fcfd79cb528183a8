package schedule

import (
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

const (
	slotStep = 30 * time.Minute
	maxSlots = 10

	businessStartHour = 9
	businessEndHour   = 18
	extendedStartHour = 6
	extendedEndHour   = 22
)

// Slot is a free interval a new event could occupy.
type Slot struct {
	Start time.Time
	End   time.Time
}

// FreeSlots enumerates candidate slots of the given duration on day, stepping
// every 30 minutes from the window's opening hour, and keeps those with no
// conflict against events. day must be midnight in the calendar's zone and
// events must be normalized to the same zone.
//
// Results are ascending by start time and capped at 10: earliest available
// first, not best fit. A duration longer than the window yields no slots.
func FreeSlots(day time.Time, duration time.Duration, businessHoursOnly bool, events []domain.CalendarEvent) []Slot {
	startHour, endHour := extendedStartHour, extendedEndHour
	if businessHoursOnly {
		startHour, endHour = businessStartHour, businessEndHour
	}

	if duration <= 0 {
		return nil
	}

	loc := day.Location()
	cursor := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, loc)

	var slots []Slot
	for !cursor.Add(duration).After(windowEnd) {
		slotEnd := cursor.Add(duration)
		if len(FindConflicts(cursor, slotEnd, events)) == 0 {
			slots = append(slots, Slot{Start: cursor, End: slotEnd})
			if len(slots) == maxSlots {
				break
			}
		}
		cursor = cursor.Add(slotStep)
	}
	return slots
}
