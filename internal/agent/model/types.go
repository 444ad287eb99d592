package model

// UserGoal is a tracked user objective. A goal has no explicit state flag:
// it is active while Progress < 1.0 and completed once Progress >= 1.0.
// Progress is never clamped.
type UserGoal struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	TargetDate  string         `json:"target_date"`
	Progress    float64        `json:"current_progress"`
	Milestones  []string       `json:"milestones"`
	Context     map[string]any `json:"context,omitempty"`
}

// Completed reports whether the goal has crossed the completion threshold.
func (g UserGoal) Completed() bool {
	return g.Progress >= 1.0
}

// GoalUpdate is one goal-progress entry from the model's structured reply.
// A missing goal_id decodes to "" and a missing progress to 0.0.
type GoalUpdate struct {
	GoalID   string  `json:"goal_id"`
	Progress float64 `json:"progress"`
}

// AgentResponse is the structured result of one turn. It is constructed once
// from the parsed model output and immutable afterwards.
type AgentResponse struct {
	Message                string           `json:"message"`
	Actions                []map[string]any `json:"actions"`
	GoalUpdates            []GoalUpdate     `json:"goal_updates"`
	PersonalizationLearned map[string]any   `json:"personalization_learned"`
}

// Intent is the structured interpretation of a user message produced by the
// intent-analysis model call.
type Intent struct {
	SurfaceIntent          string `json:"surface_intent"`
	DeeperNeeds            string `json:"deeper_needs"`
	GoalRelevance          string `json:"goal_relevance"`
	EmpowermentOpportunity string `json:"empowerment_opportunity"`
	NeedsScheduling        bool   `json:"needs_scheduling"`
	NeedsDataLookup        bool   `json:"needs_data_lookup"`
	NeedsExternalService   bool   `json:"needs_external_service"`
}

// IntentOutcome tags whether the intent came from the model (parsed) or from
// the static heuristic fallback, so callers and tests can tell the two apart.
type IntentOutcome struct {
	Intent   Intent
	Fallback bool
}

// ResponseOutcome tags whether the agent reply was structured model output or
// a raw-text passthrough degradation.
type ResponseOutcome struct {
	Response   *AgentResponse
	Structured bool
}
