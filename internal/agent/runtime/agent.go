package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/empowering-agents/server/internal/agent/goals"
	"github.com/empowering-agents/server/internal/agent/graph"
	"github.com/empowering-agents/server/internal/agent/graph/nodes"
	"github.com/empowering-agents/server/internal/agent/memory"
	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/personas"
	"github.com/empowering-agents/server/internal/agent/planning"
	"github.com/empowering-agents/server/internal/agent/tools"
	"github.com/empowering-agents/server/internal/integrations/analytics"
	"github.com/empowering-agents/server/internal/integrations/calendar"
	"github.com/empowering-agents/server/internal/integrations/crm"
	"github.com/empowering-agents/server/internal/observability"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// Config wires one persona agent together.
type Config struct {
	Persona    personas.Persona
	ChatModels *nodes.ChatModels
	Memory     *memory.Store
	Goals      *goals.Tracker
	Calendar   calendar.Service
	CalendarOn bool
	TimeZone   string
	Analytics  *analytics.Sink
	CRM        *crm.Store
	Metrics    *observability.Metrics
	Hints      *planning.Hints
}

// Agent runs the full interaction loop for a single persona. It owns the
// compiled graph, the planners, and the empowerment counters. One Agent
// serves many users.
type Agent struct {
	persona personas.Persona
	runner  graph.Runner
	memory  *memory.Store
	goals   *goals.Tracker
	crm     *crm.Store
	metrics *observability.Metrics

	goalPlanner   *planning.GoalPlanner
	actionPlanner *planning.ActionPlanner

	mu                  sync.Mutex
	interactionCount    int
	goalsHelpedComplete int
	satisfactionTotal   float64
	satisfactionCount   int
}

// New builds the tool registry and turn graph for the persona and returns a
// ready Agent.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	registry := tools.NewRegistry(cfg.Persona.Tools(),
		tools.WithCalendar(cfg.Calendar, cfg.CalendarOn, cfg.TimeZone),
	)

	runner, err := graph.BuildTurnGraph(ctx, graph.Config{
		Persona:    cfg.Persona,
		ChatModels: cfg.ChatModels,
		Memory:     cfg.Memory,
		Goals:      cfg.Goals,
		Tools:      registry,
		Analytics:  cfg.Analytics,
		Metrics:    cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Agent{
		persona:       cfg.Persona,
		runner:        runner,
		memory:        cfg.Memory,
		goals:         cfg.Goals,
		crm:           cfg.CRM,
		metrics:       cfg.Metrics,
		goalPlanner:   planning.NewGoalPlanner(cfg.ChatModels.Response, cfg.Hints),
		actionPlanner: planning.NewActionPlanner(cfg.ChatModels.Response, cfg.Hints),
	}, nil
}

// Persona returns the agent's persona.
func (a *Agent) Persona() personas.Persona { return a.persona }

// Interact runs one turn of the interaction loop for the user. Model and
// tool problems never surface as errors here, only storage failures do.
func (a *Agent) Interact(ctx context.Context, userID, message string, turnCtx map[string]any) (*model.AgentResponse, error) {
	start := time.Now()
	a.metrics.IncTurn(a.persona.Profile().ID)

	completedBefore := len(a.goals.GetCompletedGoals(userID))

	resp, err := a.runner.Invoke(ctx, model.TurnInput{
		UserID:  userID,
		Message: message,
		Context: turnCtx,
	})
	if err != nil {
		a.metrics.IncTurnError(a.persona.Profile().ID)
		return nil, err
	}

	completedAfter := len(a.goals.GetCompletedGoals(userID))

	a.mu.Lock()
	a.interactionCount++
	if completedAfter > completedBefore {
		a.goalsHelpedComplete += completedAfter - completedBefore
	}
	a.mu.Unlock()

	if a.crm != nil && completedAfter > completedBefore {
		if err := a.crm.UpsertContact(userID, map[string]any{
			"goals_completed":   completedAfter,
			"last_completed_at": time.Now().UTC().Format(time.RFC3339),
			"persona":           a.persona.Profile().ID,
		}); err != nil {
			logx.Warn().Err(err).Str("user_id", userID).Msg("failed to update crm contact")
		}
	}

	a.metrics.ObserveTurnLatency(time.Since(start))
	logx.Info().
		Str("persona", a.persona.Profile().ID).
		Str("user_id", userID).
		Dur("latency", time.Since(start)).
		Msg("interaction complete")
	return resp, nil
}

// PlanGoal produces a structured long-horizon plan plus immediate next steps
// for a free-form aspiration, and registers the goal with the tracker.
func (a *Agent) PlanGoal(ctx context.Context, userID, aspiration string) (model.UserGoal, map[string]any, []string) {
	plan := a.goalPlanner.Plan(ctx, aspiration)
	objective, _ := plan["objective"].(string)
	if objective == "" {
		objective = aspiration
	}
	steps := a.actionPlanner.Steps(ctx, objective)

	goal := a.goals.AddGoal(userID, model.UserGoal{
		Description: objective,
		Context:     map[string]any{"plan": plan},
	})
	return goal, plan, steps
}

// RecordSatisfaction stores a user-reported satisfaction score in [0, 1].
func (a *Agent) RecordSatisfaction(score float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.satisfactionTotal += score
	a.satisfactionCount++
}

// EmpowermentMetrics summarizes how well the agent has served its users so
// far. The score blends goal completion with reported satisfaction.
func (a *Agent) EmpowermentMetrics() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	var completionRate float64
	if a.interactionCount > 0 {
		completionRate = float64(a.goalsHelpedComplete) / float64(a.interactionCount)
	}
	var avgSatisfaction float64
	if a.satisfactionCount > 0 {
		avgSatisfaction = a.satisfactionTotal / float64(a.satisfactionCount)
	}
	score := completionRate*0.6 + avgSatisfaction*0.4

	return map[string]any{
		"interactions":          a.interactionCount,
		"goals_helped_complete": a.goalsHelpedComplete,
		"goal_completion_rate":  completionRate,
		"avg_satisfaction":      avgSatisfaction,
		"empowerment_score":     score,
	}
}
