package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/integrations/calendar"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// Built-in tool names. The set configured at construction time is a
// capability allow-list, not a discovery mechanism.
const (
	ToolCalendar        = "calendar"
	ToolKnowledgeBase   = "knowledge_base"
	ToolExternalAPI     = "external_api"
	ToolProgressTracker = "progress_tracker"
	ToolResourceFinder  = "resource_finder"
)

const defaultExternalAPIDelay = 50 * time.Millisecond

// Registry dispatches tool invocations by name. Handlers never return Go
// errors to the loop; every failure is folded into the payload map.
type Registry struct {
	allowed          map[string]struct{}
	calendarService  calendar.Service
	calendarEnabled  bool
	timeZone         string
	externalAPIDelay time.Duration
}

type Option func(*Registry)

// WithCalendar wires the external calendar integration. When absent or
// disabled the calendar handler degrades to static suggestions.
func WithCalendar(svc calendar.Service, enabled bool, timeZone string) Option {
	return func(r *Registry) {
		r.calendarService = svc
		r.calendarEnabled = enabled && svc != nil
		if timeZone != "" {
			r.timeZone = timeZone
		}
	}
}

// WithExternalAPIDelay overrides the placeholder delay. Test hook.
func WithExternalAPIDelay(d time.Duration) Option {
	return func(r *Registry) {
		r.externalAPIDelay = d
	}
}

func NewRegistry(allowed []string, opts ...Option) *Registry {
	r := &Registry{
		allowed:          make(map[string]struct{}, len(allowed)),
		timeZone:         "UTC",
		externalAPIDelay: defaultExternalAPIDelay,
	}
	for _, name := range allowed {
		r.allowed[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allowed reports whether the tool name is in the allow-list.
func (r *Registry) Allowed(name string) bool {
	_, ok := r.allowed[name]
	return ok
}

// UseTool dispatches by name. Unknown or unlisted names yield an error
// payload rather than a Go error.
func (r *Registry) UseTool(ctx context.Context, name, userID string, intent model.Intent, turnCtx map[string]any) map[string]any {
	if !r.Allowed(name) {
		return map[string]any{"error": fmt.Sprintf("tool %s not registered", name)}
	}

	switch name {
	case ToolCalendar:
		return r.calendarTool(ctx, userID, turnCtx)
	case ToolKnowledgeBase:
		return r.knowledgeBaseTool(intent)
	case ToolExternalAPI:
		return r.externalAPITool(ctx)
	case ToolProgressTracker:
		return map[string]any{"ok": true}
	case ToolResourceFinder:
		return map[string]any{
			"resources": []string{
				"Intro to Data Analysis (Free)",
				"Practical Statistics Crash Course",
			},
		}
	}

	return map[string]any{"ok": true}
}

// calendarTool creates the caller-supplied block when one is present and the
// integration is enabled; otherwise lists upcoming events plus a suggestion,
// or falls back to a static placeholder. Integration failures are swallowed
// and surfaced as {enabled:false, reason}.
func (r *Registry) calendarTool(ctx context.Context, userID string, turnCtx map[string]any) map[string]any {
	block, _ := turnCtx["schedule_block"].(map[string]any)
	if block != nil && r.calendarEnabled {
		summary, _ := block["summary"].(string)
		if summary == "" {
			summary = "Focus Block"
		}
		startISO, _ := block["start"].(string)
		endISO, _ := block["end"].(string)
		tz, _ := block["timeZone"].(string)
		if tz == "" {
			tz = r.timeZone
		}

		if startISO != "" && endISO != "" {
			created, err := r.calendarService.CreateEvent(ctx, summary, startISO, endISO, tz)
			if err != nil {
				logx.Warn().Err(err).Str("user_id", userID).Msg("calendar event creation failed")
				return map[string]any{"enabled": false, "reason": err.Error()}
			}
			return map[string]any{"enabled": true, "result": created}
		}
	}

	if r.calendarEnabled {
		listing, err := r.calendarService.ListUpcomingEvents(ctx, 5)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", userID).Msg("calendar listing failed")
			return map[string]any{"enabled": false, "reason": err.Error()}
		}
		suggestion, err := r.calendarService.SuggestBlock(ctx, "Focus Block", 30)
		if err != nil {
			return map[string]any{"enabled": false, "reason": err.Error()}
		}
		return map[string]any{"enabled": true, "upcoming": listing, "suggestion": suggestion}
	}

	// Keep demos working without any Google setup.
	return map[string]any{
		"enabled":         false,
		"suggested_block": map[string]any{"day": "tomorrow", "time": "18:00-18:30"},
	}
}

// knowledgeBaseTool is a keyword-matched stub, not a real search index.
func (r *Registry) knowledgeBaseTool(intent model.Intent) map[string]any {
	query := strings.ToLower(intent.SurfaceIntent)
	if strings.Contains(query, "correlation") {
		return map[string]any{"kb": "Correlation is not causation; controlled experiments establish causality."}
	}
	return map[string]any{"kb": "No specific article found; try refining your query."}
}

// externalAPITool is a placeholder for third-party calls: an artificial
// delay followed by a fixed acknowledgment.
func (r *Registry) externalAPITool(ctx context.Context) map[string]any {
	select {
	case <-time.After(r.externalAPIDelay):
	case <-ctx.Done():
		return map[string]any{"error": ctx.Err().Error()}
	}
	return map[string]any{"status": "called_external_api", "details": map[string]any{"service": "example"}}
}
