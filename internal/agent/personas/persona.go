package personas

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/empowering-agents/server/internal/agent/model"
)

// Profile is the static descriptive metadata of one agent variant.
type Profile struct {
	ID        string
	Name      string
	Role      string
	Style     string
	Expertise []string
	Values    []string
}

// Persona defines one agent variant. Adding a persona means implementing
// exactly these capabilities and declaring a tool allow-list; there are no
// other extension points.
type Persona interface {
	Profile() Profile

	// Tools is the capability allow-list handed to the tool registry.
	Tools() []string

	// PersonalityContext is the static system context for the response call.
	PersonalityContext() string

	// BuildResponsePrompt renders the persona-specific prompt embedding the
	// message, intent, memory summary, active goals and tool results.
	BuildResponsePrompt(message string, intent model.Intent, memory *model.UserMemory, goals []model.UserGoal, toolResults map[string]any) string
}

// All returns the shipped personas. The set is closed.
func All() []Persona {
	return []Persona{NewFitnessCoach(), NewLearningNavigator()}
}

// ByID resolves a persona id to its implementation.
func ByID(id string) (Persona, bool) {
	for _, p := range All() {
		if p.Profile().ID == id {
			return p, true
		}
	}
	return nil, false
}

// renderPrompt fills the shared template tokens. Tokens are replaced with
// strings.NewReplacer so JSON braces inside templates stay untouched.
func renderPrompt(template, personalityContext, message string, intent model.Intent, memory *model.UserMemory, goals []model.UserGoal, toolResults map[string]any) string {
	intentJSON, _ := json.Marshal(intent)
	toolJSON, _ := json.MarshalIndent(toolResults, "", "  ")

	var style, topics string
	if memory != nil {
		styleJSON, _ := json.Marshal(memory.Summary.UserStyle)
		style = string(styleJSON)
		topicsJSON, _ := json.Marshal(memory.Summary.CommonTopics)
		topics = string(topicsJSON)
	}

	return strings.NewReplacer(
		"{personality_context}", personalityContext,
		"{user_message}", message,
		"{intent_json}", string(intentJSON),
		"{user_style}", style,
		"{common_topics}", topics,
		"{goals_context}", goalsContext(goals),
		"{tool_results}", string(toolJSON),
	).Replace(template)
}

func goalsContext(goals []model.UserGoal) string {
	if len(goals) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Active goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- %s (%d%%)\n", g.Description, int(g.Progress*100))
	}
	return b.String()
}
