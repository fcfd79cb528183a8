package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dvirla/calendar-agent-backend/internal/domain"
)

const primaryCalendarID = "primary"

// Client adapts the Google Calendar API to the gateway contract.
type Client struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient builds an authenticated client from a previously saved token
// file (see the auth command). accountName selects token-<name>.json.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*Client, error) {
	config := oauthConfig(clientID, clientSecret)

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Run the 'auth' command first", accountName, err)
	}

	httpClient := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &Client{service: service, logger: logger}, nil
}

// ListEvents fetches single (non-recurring-expanded) events in [from, to],
// ordered by start time. Date-only all-day entries carry no instant and are
// skipped.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]domain.CalendarEvent, error) {
	res, err := c.service.Events.List(primaryCalendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(50).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, mapAPIError("list events", err)
	}

	events := toDomainEvents(res.Items)
	c.logger.Debug("fetched events from Google Calendar", "count", len(events))
	return events, nil
}

// CreateEvent inserts the event into the primary calendar and returns the
// provider-assigned id. Timestamps are sent with their zone offset intact.
func (c *Client) CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error) {
	body := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start:       &calendar.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339)},
	}

	created, err := c.service.Events.Insert(primaryCalendarID, body).Context(ctx).Do()
	if err != nil {
		return "", mapAPIError("insert event", err)
	}

	c.logger.Info("created event in Google Calendar", "eventID", created.Id, "title", event.Title)
	return created.Id, nil
}

// Timezone reports the zone configured on the primary calendar.
func (c *Client) Timezone(ctx context.Context) (string, error) {
	info, err := c.service.Calendars.Get(primaryCalendarID).Context(ctx).Do()
	if err != nil {
		return "", mapAPIError("get calendar settings", err)
	}
	if info.TimeZone == "" {
		return "UTC", nil
	}
	return info.TimeZone, nil
}

func toDomainEvents(items []*calendar.Event) []domain.CalendarEvent {
	var events []domain.CalendarEvent
	for _, item := range items {
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}

		title := item.Summary
		if title == "" {
			title = "No Title"
		}
		events = append(events, domain.CalendarEvent{
			ID:          item.Id,
			Title:       title,
			StartTime:   start,
			EndTime:     end,
			Description: item.Description,
			Location:    item.Location,
		})
	}
	return events
}

// mapAPIError folds provider errors into the two gateway error kinds the
// lifecycle distinguishes: bad credentials and everything else.
func mapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayUnauthorized, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayUnavailable, err)
}

// OAuthConfig returns the config used by the interactive auth flow.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return oauthConfig(clientID, clientSecret)
}

func oauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken writes a token to path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}
