package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/empowering-agents/server/internal/agent/model"
)

type fakeCalendar struct {
	listErr    error
	createErr  error
	created    map[string]any
	lastEvent  string
	lastStart  string
	lastEnd    string
	lastZone   string
	listResult map[string]any
}

func (f *fakeCalendar) ListUpcomingEvents(_ context.Context, _ int) (map[string]any, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, summary, startISO, endISO, timeZone string) (map[string]any, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastEvent, f.lastStart, f.lastEnd, f.lastZone = summary, startISO, endISO, timeZone
	return f.created, nil
}

func (f *fakeCalendar) SuggestBlock(_ context.Context, _ string, _ int) (map[string]any, error) {
	return map[string]any{"day": "tomorrow"}, nil
}

func TestUseToolRejectsUnlistedTool(t *testing.T) {
	r := NewRegistry([]string{ToolKnowledgeBase})

	got := r.UseTool(context.Background(), ToolCalendar, "u1", model.Intent{}, nil)
	want := "tool calendar not registered"
	if got["error"] != want {
		t.Errorf("error = %v, want %q", got["error"], want)
	}
}

func TestKnowledgeBaseTool(t *testing.T) {
	r := NewRegistry([]string{ToolKnowledgeBase})

	tests := []struct {
		name    string
		intent  string
		wantHit bool
	}{
		{name: "matched query", intent: "explain Correlation vs causation", wantHit: true},
		{name: "unmatched query", intent: "best running shoes", wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.UseTool(context.Background(), ToolKnowledgeBase, "u1", model.Intent{SurfaceIntent: tt.intent}, nil)
			kb, _ := got["kb"].(string)
			if tt.wantHit && kb == "No specific article found; try refining your query." {
				t.Errorf("expected a knowledge hit, got %q", kb)
			}
			if !tt.wantHit && kb != "No specific article found; try refining your query." {
				t.Errorf("expected the not-found answer, got %q", kb)
			}
		})
	}
}

func TestCalendarToolDisabledPlaceholder(t *testing.T) {
	r := NewRegistry([]string{ToolCalendar})

	got := r.UseTool(context.Background(), ToolCalendar, "u1", model.Intent{}, nil)
	if got["enabled"] != false {
		t.Errorf("enabled = %v, want false", got["enabled"])
	}
	block, ok := got["suggested_block"].(map[string]any)
	if !ok {
		t.Fatalf("suggested_block missing: %v", got)
	}
	if block["day"] != "tomorrow" || block["time"] != "18:00-18:30" {
		t.Errorf("suggested_block = %v", block)
	}
}

func TestCalendarToolFailureFoldsIntoPayload(t *testing.T) {
	cal := &fakeCalendar{listErr: errors.New("token expired")}
	r := NewRegistry([]string{ToolCalendar}, WithCalendar(cal, true, "UTC"))

	got := r.UseTool(context.Background(), ToolCalendar, "u1", model.Intent{}, nil)
	if got["enabled"] != false {
		t.Errorf("enabled = %v, want false", got["enabled"])
	}
	if got["reason"] != "token expired" {
		t.Errorf("reason = %v", got["reason"])
	}
}

func TestCalendarToolCreatesRequestedBlock(t *testing.T) {
	cal := &fakeCalendar{created: map[string]any{"id": "evt-1"}}
	r := NewRegistry([]string{ToolCalendar}, WithCalendar(cal, true, "Europe/Rome"))

	turnCtx := map[string]any{
		"schedule_block": map[string]any{
			"summary": "Gym session",
			"start":   "2026-09-01T18:00:00Z",
			"end":     "2026-09-01T18:30:00Z",
		},
	}
	got := r.UseTool(context.Background(), ToolCalendar, "u1", model.Intent{}, turnCtx)
	if got["enabled"] != true {
		t.Fatalf("enabled = %v, payload %v", got["enabled"], got)
	}
	if cal.lastEvent != "Gym session" {
		t.Errorf("summary = %q", cal.lastEvent)
	}
	if cal.lastZone != "Europe/Rome" {
		t.Errorf("timeZone = %q, want registry default", cal.lastZone)
	}
}

func TestExternalAPITool(t *testing.T) {
	r := NewRegistry([]string{ToolExternalAPI}, WithExternalAPIDelay(0))

	got := r.UseTool(context.Background(), ToolExternalAPI, "u1", model.Intent{}, nil)
	if got["status"] != "called_external_api" {
		t.Errorf("status = %v", got["status"])
	}
	details, _ := got["details"].(map[string]any)
	if details["service"] != "example" {
		t.Errorf("details = %v", details)
	}
}

func TestExternalAPIToolHonorsContext(t *testing.T) {
	r := NewRegistry([]string{ToolExternalAPI})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := r.UseTool(ctx, ToolExternalAPI, "u1", model.Intent{}, nil)
	if got["error"] == nil {
		t.Errorf("cancelled context should surface in payload, got %v", got)
	}
}

func TestResourceFinderTool(t *testing.T) {
	r := NewRegistry([]string{ToolResourceFinder})

	got := r.UseTool(context.Background(), ToolResourceFinder, "u1", model.Intent{}, nil)
	resources, ok := got["resources"].([]string)
	if !ok || len(resources) == 0 {
		t.Errorf("resources = %v", got["resources"])
	}
}
