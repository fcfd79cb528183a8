// Package caldav adapts a CalDAV server (tested against iCloud) to the
// gateway contract, for users whose calendar does not live at Google.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

// basicAuthTransport adds Basic Auth and a User-Agent to every request.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "calendar-agent-backend/1.0")
	return t.transport.RoundTrip(req)
}

// Client adapts a CalDAV calendar to the gateway contract.
type Client struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	endpoint     string
	calendarURL  string
}

// NewClient discovers the named calendar under the endpoint and returns an
// adapter bound to it.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string) (*Client, error) {
	httpClient := &http.Client{Transport: &basicAuthTransport{
		username:  username,
		password:  password,
		transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create webdav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		endpoint:     endpoint,
	}

	calendarURL, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar %q: %w", calendarName, err)
	}
	c.calendarURL = calendarURL
	logger.Info("found CalDAV calendar", "name", calendarName, "url", calendarURL)

	return c, nil
}

// ListEvents queries VEVENTs in [from, to] and returns them ascending by
// start time.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from,
				End:   to,
			}},
		},
	}

	objects, err := c.caldavClient.QueryCalendar(ctx, c.calendarPath(), query)
	if err != nil {
		return nil, mapDAVError("query calendar", err)
	}

	var events []domain.CalendarEvent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, child := range obj.Data.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			ev, ok := toDomainEvent(child)
			if !ok {
				continue
			}
			events = append(events, ev)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	c.logger.Debug("fetched events from CalDAV", "count", len(events))
	return events, nil
}

// CreateEvent writes a new VEVENT resource and returns its UID as the
// provider event id.
func (c *Client) CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error) {
	uid := uuid.New().String()

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calendar-agent-backend//EN")
	cal.Children = append(cal.Children, ve)

	eventPath := path.Join(c.calendarPath(), uid+".ics")
	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return "", mapDAVError("create event resource", err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}

	c.logger.Info("created event on CalDAV server", "uid", uid, "title", event.Title)
	return uid, nil
}

// Timezone is not discoverable through the CalDAV properties this client
// reads; the normalizer treats the error as "stay on UTC".
func (c *Client) Timezone(ctx context.Context) (string, error) {
	return "", fmt.Errorf("caldav: calendar timezone not exposed by provider")
}

func (c *Client) calendarPath() string {
	return strings.TrimPrefix(c.calendarURL, strings.TrimSuffix(c.endpoint, "/"))
}

func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principal, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", mapDAVError("find principal", err)
	}
	homeSet, err := c.caldavClient.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", mapDAVError("find calendar home set", err)
	}
	calendars, err := c.caldavClient.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", mapDAVError("find calendars", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return strings.TrimSuffix(c.endpoint, "/") + cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar named %q", name)
}

func toDomainEvent(comp *ical.Component) (domain.CalendarEvent, bool) {
	var ev domain.CalendarEvent

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.ID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if ev.Title == "" {
		ev.Title = "No Title"
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}
	if prop := comp.Props.Get(ical.PropLocation); prop != nil {
		ev.Location = prop.Value
	}

	start := comp.Props.Get(ical.PropDateTimeStart)
	end := comp.Props.Get(ical.PropDateTimeEnd)
	if start == nil || end == nil {
		return domain.CalendarEvent{}, false
	}
	// All-day entries carry a DATE value with no clock time and are skipped,
	// same as date-only events on the Google side.
	if start.ValueType() == ical.ValueDate {
		return domain.CalendarEvent{}, false
	}
	startTime, err := start.DateTime(time.UTC)
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	endTime, err := end.DateTime(time.UTC)
	if err != nil {
		return domain.CalendarEvent{}, false
	}
	ev.StartTime = startTime
	ev.EndTime = endTime

	return ev, true
}

func mapDAVError(op string, err error) error {
	switch davErrorStatus(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayUnauthorized, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayUnavailable, err)
}

// davErrorStatus recovers the HTTP status from a go-webdav error. The library
// keeps its typed HTTPError internal, but its message always leads with the
// status code ("401 Unauthorized: ..."), so the code is read back from the
// text of each error in the chain.
func davErrorStatus(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if len(msg) < 4 || msg[3] != ' ' {
			continue
		}
		code, convErr := strconv.Atoi(msg[:3])
		if convErr == nil && code >= 100 && code < 600 {
			return code
		}
	}
	return 0
}
