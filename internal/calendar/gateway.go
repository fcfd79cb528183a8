// Package calendar defines the contract a remote calendar provider adapter
// must satisfy. The lifecycle service depends on this interface only; the
// concrete adapters live in the subpackages.
package calendar

import (
	"context"
	"time"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// Gateway is a thin adapter over a remote calendar provider.
//
// ListEvents returns events overlapping [from, to], ordered by start time
// ascending. CreateEvent returns the provider-assigned event id. Both must
// surface credential failures as domain.ErrGatewayUnauthorized and
// reachability problems as domain.ErrGatewayUnavailable, so callers can tell
// an auth failure from an empty calendar.
//
// Timezone reports the IANA zone the remote calendar is configured with; the
// time normalizer caches it.
type Gateway interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error)
	CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error)
	Timezone(ctx context.Context) (string, error)
}
