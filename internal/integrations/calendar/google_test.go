package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListUpcomingEvents(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Query().Get("maxResults") != "5" {
			t.Errorf("maxResults = %q", r.URL.Query().Get("maxResults"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [
			{"id": "e1", "summary": "Standup", "start": {"dateTime": "2026-09-01T09:00:00Z"}, "end": {"dateTime": "2026-09-01T09:15:00Z"}},
			{"id": "e2", "summary": "OOO", "start": {"date": "2026-09-02"}, "end": {"date": "2026-09-03"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), srv.URL, "UTC")
	got, err := c.ListUpcomingEvents(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListUpcomingEvents: %v", err)
	}
	if gotPath != "/calendars/primary/events" {
		t.Errorf("path = %q", gotPath)
	}

	events, _ := got["events"].([]map[string]any)
	if len(events) != 2 {
		t.Fatalf("events = %v", got["events"])
	}
	if events[0]["summary"] != "Standup" || events[0]["start"] != "2026-09-01T09:00:00Z" {
		t.Errorf("event[0] = %v", events[0])
	}
	if events[1]["start"] != "2026-09-02" {
		t.Errorf("all-day event start = %v", events[1]["start"])
	}
}

func TestCreateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["summary"] != "Gym session" {
			t.Errorf("summary = %v", body["summary"])
		}
		start, _ := body["start"].(map[string]any)
		if start["timeZone"] != "Europe/Rome" {
			t.Errorf("start timeZone = %v", start["timeZone"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "created-1", "summary": "Gym session", "htmlLink": "https://cal/e/1"}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), srv.URL, "Europe/Rome")
	got, err := c.CreateEvent(context.Background(), "Gym session", "2026-09-01T18:00:00Z", "2026-09-01T18:30:00Z", "")
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	event, _ := got["event"].(map[string]any)
	if event["id"] != "created-1" {
		t.Errorf("event = %v", event)
	}
}

func TestDoJSONSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "insufficient permissions"}}`))
	}))
	defer srv.Close()

	c := NewClientWithHTTP(srv.Client(), srv.URL, "UTC")
	_, err := c.ListUpcomingEvents(context.Background(), 5)
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
}

func TestSuggestBlockIsLocal(t *testing.T) {
	c := NewClientWithHTTP(nil, "http://unused", "UTC")
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	got, err := c.SuggestBlock(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("SuggestBlock: %v", err)
	}
	suggestion, _ := got["suggestion"].(map[string]any)
	if suggestion["summary"] != "Focus Block" {
		t.Errorf("summary = %v", suggestion["summary"])
	}
	if suggestion["start"] != "2026-08-31T12:30:00Z" {
		t.Errorf("start = %v", suggestion["start"])
	}
	if suggestion["end"] != "2026-08-31T13:00:00Z" {
		t.Errorf("end = %v", suggestion["end"])
	}
}
