package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/empowering-agents/server/internal/agent/model"
)

type stubAgent struct {
	lastUserID  string
	lastMessage string
	lastPersona string
	interactErr error
}

func (s *stubAgent) Interact(_ context.Context, userID, message string, _ map[string]any) (*model.AgentResponse, error) {
	if s.interactErr != nil {
		return nil, s.interactErr
	}
	s.lastUserID = userID
	s.lastMessage = message
	return &model.AgentResponse{
		Message:                "stub reply",
		Actions:                []map[string]any{},
		GoalUpdates:            []model.GoalUpdate{},
		PersonalizationLearned: map[string]any{},
	}, nil
}

func (s *stubAgent) PlanGoal(_ context.Context, userID, aspiration string) (model.UserGoal, map[string]any, []string) {
	return model.UserGoal{ID: "g1", Description: aspiration},
		map[string]any{"objective": aspiration},
		[]string{"first step"}
}

func (s *stubAgent) EmpowermentMetrics() map[string]any {
	return map[string]any{"interactions": 3}
}

func newTestServer() (*Server, *stubAgent, *stubAgent) {
	learning := &stubAgent{}
	fitness := &stubAgent{}
	srv := New(map[string]InteractionAgent{
		"learning_navigator": learning,
		"fitness_coach":      fitness,
	}, nil)
	return srv, learning, fitness
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleInteract(t *testing.T) {
	srv, learning, fitness := newTestServer()
	router := srv.Router()

	rec := postJSON(t, router, "/v1/interact", map[string]any{
		"user_id": "u1",
		"message": "hello",
		"persona": "fitness_coach",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp model.AgentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "stub reply" {
		t.Errorf("Message = %q", resp.Message)
	}
	if fitness.lastUserID != "u1" || fitness.lastMessage != "hello" {
		t.Errorf("fitness agent saw user=%q message=%q", fitness.lastUserID, fitness.lastMessage)
	}
	if learning.lastUserID != "" {
		t.Error("request was routed to the wrong persona")
	}
}

func TestHandleInteractDefaultsPersona(t *testing.T) {
	srv, learning, _ := newTestServer()

	rec := postJSON(t, srv.Router(), "/v1/interact", map[string]any{
		"user_id": "u1",
		"message": "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if learning.lastUserID != "u1" {
		t.Error("omitted persona should route to the learning navigator")
	}
}

func TestHandleInteractValidation(t *testing.T) {
	srv, _, _ := newTestServer()
	router := srv.Router()

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{name: "missing user_id", body: map[string]any{"message": "hi"}, want: http.StatusBadRequest},
		{name: "missing message", body: map[string]any{"user_id": "u1"}, want: http.StatusBadRequest},
		{name: "unknown persona", body: map[string]any{"user_id": "u1", "message": "hi", "persona": "nope"}, want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/v1/interact", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var er errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Code == "" {
				t.Errorf("expected a structured error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestHandlePlanGoal(t *testing.T) {
	srv, _, _ := newTestServer()

	rec := postJSON(t, srv.Router(), "/v1/goals/plan", map[string]any{
		"user_id":    "u1",
		"aspiration": "run a marathon",
		"persona":    "fitness_coach",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	goal, _ := body["goal"].(map[string]any)
	if goal["description"] != "run a marathon" {
		t.Errorf("goal = %v", goal)
	}
	steps, _ := body["next_steps"].([]any)
	if len(steps) == 0 {
		t.Errorf("next_steps = %v", body["next_steps"])
	}
}

func TestHandleEmpowerment(t *testing.T) {
	srv, _, _ := newTestServer()
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/personas/learning_navigator/empowerment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/personas/nope/empowerment", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown persona status = %d, want 404", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}
