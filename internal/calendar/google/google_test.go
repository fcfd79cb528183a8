package google

import (
	"errors"
	"testing"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

func TestToDomainEvents(t *testing.T) {
	t.Parallel()

	items := []*calendar.Event{
		{
			Id:      "ev-1",
			Summary: "Standup",
			Start:   &calendar.EventDateTime{DateTime: "2024-06-10T09:00:00+02:00"},
			End:     &calendar.EventDateTime{DateTime: "2024-06-10T09:15:00+02:00"},
		},
		{
			// All-day entry, no instant to compare against.
			Id:    "ev-2",
			Start: &calendar.EventDateTime{Date: "2024-06-10"},
			End:   &calendar.EventDateTime{Date: "2024-06-11"},
		},
		{
			Id:    "ev-3",
			Start: &calendar.EventDateTime{DateTime: "2024-06-10T14:00:00Z"},
			End:   &calendar.EventDateTime{DateTime: "2024-06-10T15:00:00Z"},
		},
	}

	events := toDomainEvents(items)
	if len(events) != 2 {
		t.Fatalf("expected 2 events (all-day skipped), got %d", len(events))
	}
	if events[0].Title != "Standup" {
		t.Fatalf("expected Standup, got %s", events[0].Title)
	}
	if events[0].StartTime.UTC().Hour() != 7 {
		t.Fatalf("expected 07:00 UTC instant, got %v", events[0].StartTime.UTC())
	}
	if events[1].Title != "No Title" {
		t.Fatalf("expected placeholder title, got %q", events[1].Title)
	}
}

func TestMapAPIError(t *testing.T) {
	t.Parallel()

	authErr := mapAPIError("list events", &googleapi.Error{Code: 401})
	if !errors.Is(authErr, domain.ErrGatewayUnauthorized) {
		t.Fatalf("expected ErrGatewayUnauthorized, got %v", authErr)
	}

	forbidden := mapAPIError("list events", &googleapi.Error{Code: 403})
	if !errors.Is(forbidden, domain.ErrGatewayUnauthorized) {
		t.Fatalf("expected ErrGatewayUnauthorized for 403, got %v", forbidden)
	}

	serverErr := mapAPIError("list events", &googleapi.Error{Code: 503})
	if !errors.Is(serverErr, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", serverErr)
	}

	plainErr := mapAPIError("list events", errors.New("connection refused"))
	if !errors.Is(plainErr, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable for transport error, got %v", plainErr)
	}
}
