// Package gcal wraps the Google Calendar API behind the shape the task
// service needs: an OAuth authorization flow and a bounded upcoming-events
// listing against the user's primary calendar.
package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mzurek/taskpilot/models"
)

// DefaultMaxResults bounds an import run to the near future.
const DefaultMaxResults = 10

// Scopes requested during authorization and replayed when building a
// service from stored credentials.
var Scopes = []string{
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Client struct {
	conf *oauth2.Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the URL the user must visit to grant calendar access.
// AccessTypeOffline is required so the exchange yields a refresh token.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the authorization code for token material.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
	}
	return tok, nil
}

// service builds an authenticated Calendar service from stored credentials.
// The oauth2 client refreshes the access token transparently when expired.
func (c *Client) service(ctx context.Context, creds *models.CalendarCredentials) (*calendar.Service, error) {
	tok := &oauth2.Token{
		AccessToken:  creds.Token,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.TokenExpiry,
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(c.conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}
	return srv, nil
}

// UpcomingEvents fetches up to maxResults future events from the primary
// calendar, ordered by start time, with recurring events expanded to
// single instances.
func (c *Client) UpcomingEvents(ctx context.Context, creds *models.CalendarCredentials, maxResults int64) ([]models.CalendarEvent, error) {
	srv, err := c.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	result, err := srv.Events.List("primary").
		TimeMin(time.Now().UTC().Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(result.Items))
	for _, item := range result.Items {
		events = append(events, models.CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Start:       parseEventTime(item.Start),
			End:         parseEventTime(item.End),
			Location:    item.Location,
		})
	}
	return events, nil
}

// CreateEvent inserts an event into the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, creds *models.CalendarCredentials, event models.CalendarEvent) (*models.CalendarEvent, error) {
	srv, err := c.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	body := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
	}
	if event.Start != nil {
		body.Start = &calendar.EventDateTime{DateTime: event.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	}
	if event.End != nil {
		body.End = &calendar.EventDateTime{DateTime: event.End.UTC().Format(time.RFC3339), TimeZone: "UTC"}
	}

	created, err := srv.Events.Insert("primary", body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar event: %w", err)
	}
	return &models.CalendarEvent{
		ID:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
		Start:       parseEventTime(created.Start),
		End:         parseEventTime(created.End),
		Location:    created.Location,
	}, nil
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date).
func parseEventTime(edt *calendar.EventDateTime) *time.Time {
	if edt == nil {
		return nil
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return &t
		}
		return nil
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return &t
		}
	}
	return nil
}
