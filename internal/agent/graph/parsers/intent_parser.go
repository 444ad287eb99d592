package parsers

import (
	"encoding/json"
	"strings"

	"github.com/empowering-agents/server/internal/agent/model"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// lookupKeywords trigger needs_data_lookup in the heuristic fallback.
var lookupKeywords = []string{"what", "how", "resource", "find"}

// ParseIntentResponse decodes the seven-key intent object from the model.
// Any decode failure degrades to the static heuristic; the outcome is tagged
// so callers can tell parsed output from the fallback.
func ParseIntentResponse(content, userMessage string) model.IntentOutcome {
	var intent model.Intent
	if err := json.Unmarshal([]byte(stripFences(content)), &intent); err == nil {
		return model.IntentOutcome{Intent: intent, Fallback: false}
	}

	logx.Debug().Str("component", "intent_parser").Msg("intent output not valid JSON, using heuristic fallback")
	return model.IntentOutcome{Intent: HeuristicIntent(userMessage), Fallback: true}
}

// HeuristicIntent is the static fallback applied when the model's intent
// output cannot be decoded. needs_external_service is always false here.
func HeuristicIntent(userMessage string) model.Intent {
	low := strings.ToLower(userMessage)

	needsLookup := false
	for _, kw := range lookupKeywords {
		if strings.Contains(low, kw) {
			needsLookup = true
			break
		}
	}

	return model.Intent{
		SurfaceIntent:          userMessage,
		DeeperNeeds:            "help user progress toward their goal",
		GoalRelevance:          "unknown",
		EmpowermentOpportunity: "provide next steps and resources",
		NeedsScheduling:        strings.Contains(low, "schedule"),
		NeedsDataLookup:        needsLookup,
		NeedsExternalService:   false,
	}
}

// stripFences removes a surrounding markdown code fence, which some models
// wrap around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
