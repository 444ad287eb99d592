package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/observability"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// DefaultPersona is used when a request omits the persona field.
const DefaultPersona = "learning_navigator"

// InteractionAgent is the slice of the runtime agent the HTTP layer needs.
type InteractionAgent interface {
	Interact(ctx context.Context, userID, message string, turnCtx map[string]any) (*model.AgentResponse, error)
	PlanGoal(ctx context.Context, userID, aspiration string) (model.UserGoal, map[string]any, []string)
	EmpowermentMetrics() map[string]any
}

type Server struct {
	agents  map[string]InteractionAgent
	metrics *observability.Metrics
}

func New(agents map[string]InteractionAgent, metrics *observability.Metrics) *Server {
	return &Server{agents: agents, metrics: metrics}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/interact", s.handleInteract)
	r.Post("/v1/goals/plan", s.handlePlanGoal)
	r.Get("/v1/personas/{id}/empowerment", s.handleEmpowerment)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"personas": len(s.agents),
	})
}

type interactRequest struct {
	UserID  string         `json:"user_id"`
	Message string         `json:"message"`
	Persona string         `json:"persona"`
	Context map[string]any `json:"context,omitempty"`
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req interactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	agent, ok := s.agentFor(req.Persona)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_persona", "persona not found: "+req.Persona)
		return
	}

	resp, err := agent.Interact(r.Context(), req.UserID, req.Message, req.Context)
	if err != nil {
		logx.Error().Err(err).Str("user_id", req.UserID).Msg("interaction failed")
		respondError(w, http.StatusInternalServerError, "interaction_failed", "interaction could not be completed")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

type planGoalRequest struct {
	UserID     string `json:"user_id"`
	Aspiration string `json:"aspiration"`
	Persona    string `json:"persona"`
}

func (s *Server) handlePlanGoal(w http.ResponseWriter, r *http.Request) {
	var req planGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Aspiration) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id and aspiration are required")
		return
	}

	agent, ok := s.agentFor(req.Persona)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_persona", "persona not found: "+req.Persona)
		return
	}

	goal, plan, steps := agent.PlanGoal(r.Context(), req.UserID, req.Aspiration)
	respondJSON(w, http.StatusOK, map[string]any{
		"goal":       goal,
		"plan":       plan,
		"next_steps": steps,
	})
}

func (s *Server) handleEmpowerment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, ok := s.agents[id]
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_persona", "persona not found: "+id)
		return
	}
	respondJSON(w, http.StatusOK, agent.EmpowermentMetrics())
}

func (s *Server) agentFor(persona string) (InteractionAgent, bool) {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	agent, ok := s.agents[persona]
	return agent, ok
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
