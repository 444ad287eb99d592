package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/empowering-agents/server/internal/agent/goals"
	"github.com/empowering-agents/server/internal/agent/graph/parsers"
	"github.com/empowering-agents/server/internal/agent/graph/prompts"
	"github.com/empowering-agents/server/internal/agent/memory"
	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/personas"
	"github.com/empowering-agents/server/internal/agent/tools"
	"github.com/empowering-agents/server/internal/integrations/analytics"
	"github.com/empowering-agents/server/internal/observability"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// Graph node keys. The turn is a straight line through these, in order.
const (
	NodeContextLoader     = "ContextLoader"
	NodeIntentModel       = "IntentChatModel"
	NodeIntentParser      = "IntentParser"
	NodeToolDispatch      = "ToolDispatch"
	NodeResponseAssembler = "ResponseAssembler"
	NodeResponseModel     = "ResponseChatModel"
	NodeResponseParser    = "ResponseParser"
)

// NewContextLoaderPreHandler records the turn input in state and resets the
// per-turn accumulators.
func NewContextLoaderPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.UserID = in.UserID
		s.Message = in.Message
		if in.Context != nil {
			s.Context = in.Context
		} else {
			s.Context = map[string]any{}
		}
		s.Intent = nil
		s.ToolResults = nil
		s.Structured = false
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewContextLoaderNode loads the user's memory and active goals (read-only at
// this point), stashes both in state, and builds the intent-analysis
// messages.
func NewContextLoaderNode(store *memory.Store, tracker *goals.Tracker) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.TurnInput) ([]*schema.Message, error) {
		mem, err := store.Load(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("load user memory: %w", err)
		}
		active := tracker.GetActiveGoals(input.UserID)

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			state.Memory = mem
			state.ActiveGoals = active
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		summaryJSON, err := json.Marshal(mem.Summary)
		if err != nil {
			return nil, fmt.Errorf("encode memory summary: %w", err)
		}

		return prompts.RenderIntentMessages(ctx, input.Message, string(summaryJSON))
	})
}

// NewModelCostPostHandler computes and logs usage cost for a chat model node.
// Shared by the intent and response model nodes.
func NewModelCostPostHandler(nodeName, modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		if model.CostEnabled() && out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			pricing := model.ResolvePricing(modelName)
			inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
				"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
				"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			logx.Debug().
				Str("user_id", state.UserID).
				Str("node", nodeName).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")

			state.TotalCostUSD += totalC
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}
		return out, nil
	}
}

// NewIntentParserNode decodes the intent model output, degrading to the
// static heuristic on any decode failure.
func NewIntentParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.IntentOutcome, error) {
		var userMessage string
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			userMessage = state.Message
			return nil
		})
		if err != nil {
			return model.IntentOutcome{}, fmt.Errorf("failed to access state: %w", err)
		}

		return parsers.ParseIntentResponse(resp.Content, userMessage), nil
	})
}

// NewIntentParserPostHandler saves the intent outcome into state.
func NewIntentParserPostHandler(metrics *observability.Metrics) func(context.Context, model.IntentOutcome, *model.TurnState) (model.IntentOutcome, error) {
	return func(ctx context.Context, out model.IntentOutcome, state *model.TurnState) (model.IntentOutcome, error) {
		state.Intent = &out
		if out.Fallback {
			metrics.IncParseFallback("intent")
			logx.Debug().
				Str("user_id", state.UserID).
				Msg("intent analysis degraded to heuristic fallback")
		}
		return out, nil
	}
}

// NewToolDispatchNode maps intent flags to tools and invokes each selected
// tool once, sequentially. Results are keyed by tool name.
func NewToolDispatchNode(registry *tools.Registry, metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, outcome model.IntentOutcome) (map[string]any, error) {
		var userID string
		var turnCtx map[string]any
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			userID = state.UserID
			turnCtx = state.Context
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		var selected []string
		if outcome.Intent.NeedsScheduling {
			selected = append(selected, tools.ToolCalendar)
		}
		if outcome.Intent.NeedsDataLookup {
			selected = append(selected, tools.ToolKnowledgeBase)
		}
		if outcome.Intent.NeedsExternalService {
			selected = append(selected, tools.ToolExternalAPI)
		}

		results := map[string]any{}
		for _, name := range selected {
			metrics.IncTool(name)
			logx.Debug().Str("user_id", userID).Str("tool", name).Msg("dispatching tool")
			results[name] = registry.UseTool(ctx, name, userID, outcome.Intent, turnCtx)
		}

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			state.ToolResults = results
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return results, nil
	})
}

// NewResponseAssemblerNode builds the persona prompt from the turn state and
// tool results.
func NewResponseAssemblerNode(persona personas.Persona) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, toolResults map[string]any) ([]*schema.Message, error) {
		var message string
		var intent model.Intent
		var mem *model.UserMemory
		var active []model.UserGoal
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			if state.Intent == nil {
				return fmt.Errorf("missing intent analysis in state")
			}
			message = state.Message
			intent = state.Intent.Intent
			mem = state.Memory
			active = state.ActiveGoals
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		personaPrompt := persona.BuildResponsePrompt(message, intent, mem, active, toolResults)
		return prompts.RenderResponseMessages(ctx, persona.PersonalityContext(), personaPrompt)
	})
}

// NewResponseParserNode decodes the final model output into the structured
// agent response, passing raw text through when the output does not conform.
func NewResponseParserNode(metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (*model.AgentResponse, error) {
		outcome := parsers.ParseAgentResponse(out.Content)
		if !outcome.Structured {
			metrics.IncParseFallback("response")
		}

		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			state.Structured = outcome.Structured
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return outcome.Response, nil
	})
}

// NewResponseParserPostHandler performs the end-of-turn state update: the
// interaction is appended to durable memory and every goal update is applied.
// A storage failure here is fatal for the turn and propagates to the caller.
func NewResponseParserPostHandler(store *memory.Store, tracker *goals.Tracker, sink *analytics.Sink) func(context.Context, *model.AgentResponse, *model.TurnState) (*model.AgentResponse, error) {
	return func(ctx context.Context, out *model.AgentResponse, state *model.TurnState) (*model.AgentResponse, error) {
		if err := store.AddInteraction(ctx, state.UserID, state.Message, out.Message, state.Context); err != nil {
			logx.Error().Err(err).Str("user_id", state.UserID).Msg("failed to persist interaction")
			return nil, err
		}

		for _, gu := range out.GoalUpdates {
			tracker.UpdateGoalProgress(state.UserID, gu.GoalID, gu.Progress)
		}

		if sink != nil {
			if err := sink.Record("interaction", map[string]any{
				"user_id":      state.UserID,
				"structured":   state.Structured,
				"goal_updates": len(out.GoalUpdates),
				"cost_usd":     state.TotalCostUSD,
			}); err != nil {
				logx.Warn().Err(err).Msg("failed to record analytics event")
			}
		}

		logx.Debug().
			Str("user_id", state.UserID).
			Bool("structured", state.Structured).
			Int("goal_updates", len(out.GoalUpdates)).
			Msg("turn state updated")
		return out, nil
	}
}
