package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	logx "github.com/empowering-agents/server/pkg/logger"
)

// Hints are precomputed planning fragments keyed by topic. They bias the
// planner prompts when the optional hints file is present.
type Hints struct {
	Topics map[string][]string `json:"topics"`
}

// LoadHints reads the hints file if configured. A missing or unreadable file
// is not an error, planning just runs without hints.
func LoadHints(path string) *Hints {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("planning hints unavailable")
		return nil
	}
	var h Hints
	if err := json.Unmarshal(data, &h); err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("planning hints malformed")
		return nil
	}
	return &h
}

func (h *Hints) forMessage(message string) []string {
	if h == nil || len(h.Topics) == 0 {
		return nil
	}
	lower := strings.ToLower(message)
	for topic, lines := range h.Topics {
		if strings.Contains(lower, topic) {
			return lines
		}
	}
	return nil
}

// GoalPlanner turns a free-form aspiration into a structured long-horizon
// plan. With a nil chat model it produces a deterministic template plan.
type GoalPlanner struct {
	cm    einomodel.BaseChatModel
	hints *Hints
}

func NewGoalPlanner(cm einomodel.BaseChatModel, hints *Hints) *GoalPlanner {
	return &GoalPlanner{cm: cm, hints: hints}
}

// Plan produces the structured plan for the given aspiration. Model failures
// degrade to the template plan rather than surfacing an error.
func (p *GoalPlanner) Plan(ctx context.Context, message string) map[string]any {
	if p.cm != nil {
		msgs := []*schema.Message{
			schema.SystemMessage("You are a goal planner. Produce a JSON object with keys: objective, why, timeframe, milestones (array of strings)." + p.hintSuffix(message)),
			schema.UserMessage(fmt.Sprintf("Aspiration: %s", message)),
		}
		out, err := p.cm.Generate(ctx, msgs)
		if err == nil && out != nil {
			var plan map[string]any
			if jsonErr := json.Unmarshal([]byte(out.Content), &plan); jsonErr == nil && plan["objective"] != nil {
				return plan
			}
		}
		if err != nil {
			logx.Warn().Err(err).Msg("goal planner model call failed, using template plan")
		}
	}
	return map[string]any{
		"objective":  message,
		"why":        "Progress toward the user's long-term goal",
		"timeframe":  "90 days",
		"milestones": []string{"Define syllabus", "Schedule weekly sessions", "Complete first project"},
	}
}

func (p *GoalPlanner) hintSuffix(message string) string {
	lines := p.hints.forMessage(message)
	if len(lines) == 0 {
		return ""
	}
	return " Consider these proven patterns: " + strings.Join(lines, "; ")
}

// ActionPlanner turns a plan objective into small concrete next steps the
// user can act on today.
type ActionPlanner struct {
	cm    einomodel.BaseChatModel
	hints *Hints
}

func NewActionPlanner(cm einomodel.BaseChatModel, hints *Hints) *ActionPlanner {
	return &ActionPlanner{cm: cm, hints: hints}
}

// Steps returns an ordered list of immediate actions for the objective.
func (p *ActionPlanner) Steps(ctx context.Context, objective string) []string {
	if p.cm != nil {
		msgs := []*schema.Message{
			schema.SystemMessage("You are an action planner. Produce a JSON array of 2-4 short, concrete action strings." + p.hintSuffix(objective)),
			schema.UserMessage(fmt.Sprintf("Objective: %s", objective)),
		}
		out, err := p.cm.Generate(ctx, msgs)
		if err == nil && out != nil {
			var steps []string
			if jsonErr := json.Unmarshal([]byte(out.Content), &steps); jsonErr == nil && len(steps) > 0 {
				return steps
			}
		}
		if err != nil {
			logx.Warn().Err(err).Msg("action planner model call failed, using template steps")
		}
	}
	return []string{
		"Block 25 minutes today for focused practice",
		"Complete a bite-sized lesson related to your goal",
		"Log one takeaway and one question to revisit",
	}
}

func (p *ActionPlanner) hintSuffix(objective string) string {
	lines := p.hints.forMessage(objective)
	if len(lines) == 0 {
		return ""
	}
	return " Consider these proven patterns: " + strings.Join(lines, "; ")
}
