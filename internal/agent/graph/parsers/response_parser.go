package parsers

import (
	"encoding/json"

	"github.com/empowering-agents/server/internal/agent/model"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// ParseAgentResponse decodes the model's structured reply. Output is treated
// as structured only when it is a JSON object containing a "message" key;
// anything else degrades to the whole raw text as the message with empty
// actions/updates/personalization. This is the universal fallback for
// non-conforming model output.
func ParseAgentResponse(content string) model.ResponseOutcome {
	raw := stripFences(content)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err == nil {
		if _, hasMessage := probe["message"]; hasMessage {
			var resp model.AgentResponse
			if err := json.Unmarshal([]byte(raw), &resp); err == nil {
				normalize(&resp)
				return model.ResponseOutcome{Response: &resp, Structured: true}
			}
			logx.Debug().Str("component", "response_parser").Msg("structured reply had a message key but did not decode, passing raw text through")
		}
	}

	resp := &model.AgentResponse{Message: content}
	normalize(resp)
	return model.ResponseOutcome{Response: resp, Structured: false}
}

func normalize(resp *model.AgentResponse) {
	if resp.Actions == nil {
		resp.Actions = []map[string]any{}
	}
	if resp.GoalUpdates == nil {
		resp.GoalUpdates = []model.GoalUpdate{}
	}
	if resp.PersonalizationLearned == nil {
		resp.PersonalizationLearned = map[string]any{}
	}
}
