package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent_Timed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body eventBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Instagram Reel Due", body.Summary)
		assert.Contains(t, body.Description, "Contract Deliverable")
		assert.Equal(t, "America/Los_Angeles", body.Start.TimeZone)
		assert.Contains(t, body.Start.DateTime, "2025-12-01T17:00:00")
		assert.Contains(t, body.End.DateTime, "2025-12-01T18:00:00")
		require.Len(t, body.Attendees, 1)
		assert.Equal(t, "user@example.com", body.Attendees[0].Email)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "evt1"}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	status, err := c.CreateEvent(context.Background(), Event{
		Summary:       "Instagram Reel Due",
		Description:   "Create 30-second reel",
		StartDate:     "2025-12-01",
		StartTime:     "17:00",
		AttendeeEmail: "user@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
}

func TestCreateEvent_AllDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body eventBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-12-01", body.Start.Date)
		assert.Equal(t, "2025-12-02", body.End.Date)
		assert.Empty(t, body.Start.DateTime)
		w.Write([]byte(`{"id": "evt2"}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	status, err := c.CreateEvent(context.Background(), Event{
		Summary:   "Draft Due",
		StartDate: "2025-12-01",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
}

func TestCreateEvent_Duplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "duplicate event"}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	status, err := c.CreateEvent(context.Background(), Event{
		Summary:   "Reel",
		StartDate: "2025-12-01",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, status)
}

func TestCreateEvent_BadDate(t *testing.T) {
	c := NewClient("tok")
	_, err := c.CreateEvent(context.Background(), Event{
		Summary:   "Reel",
		StartDate: "12/01/2025",
	})
	assert.Error(t, err)
}

func TestCreateEvent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	_, err := c.CreateEvent(context.Background(), Event{
		Summary:   "Reel",
		StartDate: "2025-12-01",
	})
	assert.Error(t, err)
}
