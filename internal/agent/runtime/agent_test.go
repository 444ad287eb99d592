package runtime

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/empowering-agents/server/internal/agent/goals"
	"github.com/empowering-agents/server/internal/agent/graph/nodes"
	"github.com/empowering-agents/server/internal/agent/memory"
	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/personas"
	"github.com/empowering-agents/server/internal/agent/repo"
	"github.com/empowering-agents/server/internal/integrations/crm"
)

type fixture struct {
	agent    *Agent
	store    *memory.Store
	tracker  *goals.Tracker
	models   *nodes.ChatModels
	contacts *crm.Store
}

func newFixture(t *testing.T, personaID string) *fixture {
	t.Helper()
	ctx := context.Background()

	r, err := repo.NewFileMemoryRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileMemoryRepository: %v", err)
	}
	store := memory.NewStore(r)
	tracker := goals.NewTracker()

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{})
	if err != nil {
		t.Fatalf("NewChatModels: %v", err)
	}

	persona, ok := personas.ByID(personaID)
	if !ok {
		t.Fatalf("unknown persona %q", personaID)
	}

	contacts := crm.NewStore(filepath.Join(t.TempDir(), "crm.json"))
	agent, err := New(ctx, Config{
		Persona:    persona,
		ChatModels: cms,
		Memory:     store,
		Goals:      tracker,
		CRM:        contacts,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &fixture{agent: agent, store: store, tracker: tracker, models: cms, contacts: contacts}
}

func TestInteractEndToEnd(t *testing.T) {
	f := newFixture(t, "learning_navigator")
	ctx := context.Background()

	resp, err := f.agent.Interact(ctx, "u1", "I only have 10 minutes.", nil)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("empty reply message")
	}
	if resp.Actions == nil {
		t.Error("Actions is nil, want at least an empty list")
	}

	m, err := f.store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Interactions) != 1 {
		t.Fatalf("got %d persisted interactions, want 1", len(m.Interactions))
	}
	if m.Interactions[0].UserMessage != "I only have 10 minutes." {
		t.Errorf("persisted UserMessage = %q", m.Interactions[0].UserMessage)
	}
	if m.Interactions[0].AgentResponse != resp.Message {
		t.Errorf("persisted AgentResponse = %q, want %q", m.Interactions[0].AgentResponse, resp.Message)
	}
}

func TestInteractIncrementsInteractionCount(t *testing.T) {
	f := newFixture(t, "fitness_coach")
	ctx := context.Background()

	for i, msg := range []string{"hello", "I want a workout plan"} {
		if _, err := f.agent.Interact(ctx, "u1", msg, nil); err != nil {
			t.Fatalf("Interact %d: %v", i, err)
		}
		m, err := f.store.Load(ctx, "u1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if m.Summary.InteractionCount != i+1 {
			t.Errorf("after turn %d: InteractionCount = %d", i+1, m.Summary.InteractionCount)
		}
	}
}

func TestInteractAppliesGoalUpdates(t *testing.T) {
	f := newFixture(t, "learning_navigator")
	ctx := context.Background()

	f.tracker.AddGoal("u1", model.UserGoal{ID: "g1", Description: "learn SQL", Progress: 0.8})
	f.models.Response.(*nodes.ScriptedChatModel).Enqueue(
		`{"message":"Great progress, that finishes the course!","actions":[],"goal_updates":[{"goal_id":"g1","progress":1.0}],"personalization_learned":{}}`,
	)

	resp, err := f.agent.Interact(ctx, "u1", "I finished the last module", nil)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if resp.Message != "Great progress, that finishes the course!" {
		t.Errorf("Message = %q", resp.Message)
	}

	if got := f.tracker.GetActiveGoals("u1"); len(got) != 0 {
		t.Errorf("goal still active after completing update: %v", got)
	}
	completed := f.tracker.GetCompletedGoals("u1")
	if len(completed) != 1 || completed[0].Progress != 1.0 {
		t.Errorf("completed = %v", completed)
	}

	metrics := f.agent.EmpowermentMetrics()
	if metrics["goals_helped_complete"] != 1 {
		t.Errorf("goals_helped_complete = %v, want 1", metrics["goals_helped_complete"])
	}

	contact, err := f.contacts.GetContact("u1")
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if contact == nil || contact["goals_completed"] != 1.0 {
		t.Errorf("crm contact = %v, want goals_completed 1", contact)
	}
}

func TestInteractRawModelOutputPassesThrough(t *testing.T) {
	f := newFixture(t, "fitness_coach")
	ctx := context.Background()

	raw := "Take a short walk and stretch for five minutes."
	f.models.Response.(*nodes.ScriptedChatModel).Enqueue(raw)

	resp, err := f.agent.Interact(ctx, "u1", "any quick tip?", nil)
	if err != nil {
		t.Fatalf("Interact: %v", err)
	}
	if resp.Message != raw {
		t.Errorf("Message = %q, want the raw text", resp.Message)
	}
	if len(resp.Actions) != 0 || len(resp.GoalUpdates) != 0 {
		t.Errorf("degraded reply must carry no actions or updates: %v", resp)
	}
}

func TestEmpowermentMetrics(t *testing.T) {
	f := newFixture(t, "learning_navigator")
	ctx := context.Background()

	m := f.agent.EmpowermentMetrics()
	if m["empowerment_score"] != 0.0 {
		t.Errorf("score with no interactions = %v, want 0", m["empowerment_score"])
	}

	if _, err := f.agent.Interact(ctx, "u1", "hi", nil); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	f.agent.RecordSatisfaction(1.0)

	m = f.agent.EmpowermentMetrics()
	if m["interactions"] != 1 {
		t.Errorf("interactions = %v", m["interactions"])
	}
	if m["avg_satisfaction"] != 1.0 {
		t.Errorf("avg_satisfaction = %v", m["avg_satisfaction"])
	}
	// completion rate 0, satisfaction 1.0 weighted at 0.4
	if m["empowerment_score"] != 0.4 {
		t.Errorf("empowerment_score = %v, want 0.4", m["empowerment_score"])
	}
}

func TestPlanGoalRegistersGoal(t *testing.T) {
	f := newFixture(t, "learning_navigator")
	ctx := context.Background()

	goal, plan, steps := f.agent.PlanGoal(ctx, "u1", "become fluent in Spanish")
	if goal.ID == "" {
		t.Error("planned goal was not assigned an ID")
	}
	if goal.Description != "become fluent in Spanish" {
		t.Errorf("Description = %q", goal.Description)
	}
	if plan["timeframe"] == nil {
		t.Errorf("plan = %v", plan)
	}
	if len(steps) == 0 {
		t.Error("no next steps planned")
	}

	active := f.tracker.GetActiveGoals("u1")
	if len(active) != 1 || active[0].ID != goal.ID {
		t.Errorf("tracker goals = %v", active)
	}
}
