// Package gcal creates deliverable events via the Google Calendar v3 API.
package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL    = "https://www.googleapis.com/calendar/v3"
	defaultCalendarID = "primary"

	// All events are anchored to Pacific time, matching the deadline
	// conversion requested in the contract-parsing prompt.
	eventTimeZone = "America/Los_Angeles"
)

// EventStatus is the outcome of a CreateEvent call.
type EventStatus string

const (
	StatusCreated   EventStatus = "created"
	StatusDuplicate EventStatus = "duplicate"
)

// Event describes a deliverable calendar event to create.
type Event struct {
	Summary       string
	Description   string
	StartDate     string // YYYY-MM-DD
	StartTime     string // HH:MM, empty for an all-day event
	AttendeeEmail string
}

// Client creates calendar events.
type Client interface {
	CreateEvent(ctx context.Context, ev Event) (EventStatus, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithCalendarID overrides the default "primary" calendar.
func WithCalendarID(id string) Option {
	return func(c *httpClient) {
		c.calendarID = id
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	token      string
	baseURL    string
	calendarID string
	http       *http.Client
}

// NewClient creates a Google Calendar client using a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:      token,
		baseURL:    defaultBaseURL,
		calendarID: defaultCalendarID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// eventTime is one side of a Google Calendar event window.
type eventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventBody struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Start       eventTime   `json:"start"`
	End         eventTime   `json:"end"`
	Attendees   []attendee  `json:"attendees,omitempty"`
	Reminders   reminderCfg `json:"reminders"`
}

type attendee struct {
	Email string `json:"email"`
}

type reminderCfg struct {
	UseDefault bool `json:"useDefault"`
}

func (c *httpClient) CreateEvent(ctx context.Context, ev Event) (EventStatus, error) {
	start, end, err := eventWindow(ev)
	if err != nil {
		return "", err
	}

	body := eventBody{
		Summary:     ev.Summary,
		Description: "Contract Deliverable\n\n" + ev.Description,
		Start:       start,
		End:         end,
		Reminders:   reminderCfg{UseDefault: true},
	}
	if ev.AttendeeEmail != "" {
		body.Attendees = []attendee{{Email: ev.AttendeeEmail}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", eris.Wrap(err, "gcal: marshal event")
	}

	url := c.baseURL + "/calendars/" + c.calendarID + "/events?sendUpdates=all"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "gcal: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "gcal: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "gcal: read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return StatusCreated, nil
	case resp.StatusCode == http.StatusConflict,
		strings.Contains(strings.ToLower(string(respBody)), "duplicate"):
		return StatusDuplicate, nil
	default:
		return "", eris.Errorf("gcal: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
}

// eventWindow computes the start/end pair: a 1-hour window for timed
// deliverables, or a single all-day block when no time is given.
func eventWindow(ev Event) (eventTime, eventTime, error) {
	day, err := time.Parse("2006-01-02", ev.StartDate)
	if err != nil {
		return eventTime{}, eventTime{}, eris.Wrapf(err, "gcal: bad start date %q", ev.StartDate)
	}

	if ev.StartTime == "" {
		return eventTime{Date: day.Format("2006-01-02")},
			eventTime{Date: day.AddDate(0, 0, 1).Format("2006-01-02")},
			nil
	}

	clock, err := time.Parse("15:04", ev.StartTime)
	if err != nil {
		return eventTime{}, eventTime{}, eris.Wrapf(err, "gcal: bad start time %q", ev.StartTime)
	}

	loc, err := time.LoadLocation(eventTimeZone)
	if err != nil {
		return eventTime{}, eventTime{}, eris.Wrap(err, "gcal: load location")
	}

	startDT := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	endDT := startDT.Add(time.Hour)

	return eventTime{DateTime: startDT.Format(time.RFC3339), TimeZone: eventTimeZone},
		eventTime{DateTime: endDT.Format(time.RFC3339), TimeZone: eventTimeZone},
		nil
}
