package model

// TurnState stores per-turn state for the agent graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
type TurnState struct {
	UserID      string
	Message     string
	Context     map[string]any
	Memory      *UserMemory    // snapshot loaded at the start of the turn
	ActiveGoals []UserGoal     // snapshot loaded at the start of the turn
	Intent      *IntentOutcome // set by the intent parser post-handler
	ToolResults map[string]any // keyed by tool name, one entry per dispatched tool
	Structured  bool           // whether the final reply parsed as structured JSON

	// Accumulated total LLM cost (USD) across model invocations for this turn
	TotalCostUSD float64
}

// TurnInput represents one call into the interaction loop.
type TurnInput struct {
	UserID  string         `json:"user_id"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}
