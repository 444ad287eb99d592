package parsers

import "testing"

func TestParseAgentResponseStructured(t *testing.T) {
	content := `{
		"message": "Start with two short runs this week.",
		"actions": [{"type": "next_step", "details": "Run 2km on Tuesday."}],
		"goal_updates": [{"goal_id": "g1", "progress": 0.2}],
		"personalization_learned": {"prefers": "morning sessions"}
	}`

	got := ParseAgentResponse(content)
	if !got.Structured {
		t.Fatal("conforming JSON should be tagged structured")
	}
	if got.Response.Message != "Start with two short runs this week." {
		t.Errorf("Message = %q", got.Response.Message)
	}
	if len(got.Response.Actions) != 1 {
		t.Errorf("Actions = %v", got.Response.Actions)
	}
	if len(got.Response.GoalUpdates) != 1 || got.Response.GoalUpdates[0].GoalID != "g1" {
		t.Errorf("GoalUpdates = %v", got.Response.GoalUpdates)
	}
}

func TestParseAgentResponseRawPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "plain text", content: "Just keep showing up, that's the whole trick."},
		{name: "json without message key", content: `{"reply": "hello"}`},
		{name: "json array", content: `["a", "b"]`},
		{name: "empty output", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAgentResponse(tt.content)
			if got.Structured {
				t.Fatal("non-conforming output must not be tagged structured")
			}
			if got.Response.Message != tt.content {
				t.Errorf("Message = %q, want the raw text %q", got.Response.Message, tt.content)
			}
			if got.Response.Actions == nil || got.Response.GoalUpdates == nil || got.Response.PersonalizationLearned == nil {
				t.Error("degraded response must carry empty (non-nil) collections")
			}
			if len(got.Response.Actions) != 0 || len(got.Response.GoalUpdates) != 0 {
				t.Errorf("degraded response must carry no actions or updates: %v", got.Response)
			}
		})
	}
}

func TestParseAgentResponseFencedStructured(t *testing.T) {
	content := "```json\n{\"message\": \"ok\"}\n```"

	got := ParseAgentResponse(content)
	if !got.Structured {
		t.Fatal("fenced conforming JSON should be tagged structured")
	}
	if got.Response.Message != "ok" {
		t.Errorf("Message = %q", got.Response.Message)
	}
}
