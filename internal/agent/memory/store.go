package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/empowering-agents/server/internal/agent/model"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// topicKeywords maps a summary topic tag to the keywords that trigger it.
// Matching is a case-insensitive substring scan over the concatenated user
// messages of the summary window.
var topicKeywords = []struct {
	topic    string
	keywords []string
}{
	{topic: "fitness", keywords: []string{"fitness", "workout", "gym"}},
	{topic: "learning", keywords: []string{"learn", "study", "course"}},
	{topic: "finance", keywords: []string{"money", "budget", "finance"}},
}

// detailedStyleThreshold is the mean-message-length cutoff (strict inequality)
// above which the communication style is classified as "detailed".
const detailedStyleThreshold = 50

// Store is the per-user memory system. Documents are cached in-process for
// the lifetime of the store (the cache itself is never evicted, so it grows
// with the number of distinct users) and persisted through the repository on
// every mutation.
//
// The mutex only keeps the cache map safe for Go; it does not serialize whole
// turns. Two concurrent turns for the same user still race read-modify-write
// and the later Save wins.
type Store struct {
	repo model.MemoryRepository
	now  func() time.Time

	mu    sync.Mutex
	cache map[string]*model.UserMemory
}

func NewStore(repo model.MemoryRepository) *Store {
	return &Store{
		repo:  repo,
		now:   time.Now,
		cache: make(map[string]*model.UserMemory),
	}
}

// WithClock overrides the timestamp source. Test hook.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Load returns the user's memory record, creating and persisting an empty one
// when none exists on durable storage. Subsequent calls within the same
// process are served from the cache.
func (s *Store) Load(ctx context.Context, userID string) (*model.UserMemory, error) {
	s.mu.Lock()
	if m, ok := s.cache[userID]; ok {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	m, err := s.repo.Load(ctx, userID)
	if err != nil {
		if err != model.ErrMemoryNotFound {
			return nil, err
		}
		m = &model.UserMemory{
			UserID:       userID,
			CreatedAt:    s.now().UTC().Format(time.RFC3339),
			Interactions: []model.Interaction{},
			Preferences:  map[string]any{},
		}
		if err := s.repo.Save(ctx, m); err != nil {
			return nil, err
		}
		logx.Debug().Str("user_id", userID).Msg("created empty memory document")
	}

	s.mu.Lock()
	s.cache[userID] = m
	s.mu.Unlock()
	return m, nil
}

// AddInteraction appends one turn record, truncates the history to the most
// recent bound, recomputes the summary from the trailing window and persists.
// A persistence failure is fatal for the turn and propagates.
func (s *Store) AddInteraction(ctx context.Context, userID, userMessage, agentReply string, turnCtx map[string]any) error {
	m, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if turnCtx == nil {
		turnCtx = map[string]any{}
	}

	m.Interactions = append(m.Interactions, model.Interaction{
		Timestamp:     s.now().UTC().Format(time.RFC3339),
		UserMessage:   userMessage,
		AgentResponse: agentReply,
		Context:       turnCtx,
	})
	if n := len(m.Interactions); n > model.MaxInteractions {
		m.Interactions = m.Interactions[n-model.MaxInteractions:]
	}

	m.Summary = summarize(m.Interactions)

	return s.repo.Save(ctx, m)
}

// UpdatePreferences merges the given preferences into the user's record with
// shallow key overwrite, then persists.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) error {
	m, err := s.Load(ctx, userID)
	if err != nil {
		return err
	}
	if m.Preferences == nil {
		m.Preferences = map[string]any{}
	}
	for k, v := range prefs {
		m.Preferences[k] = v
	}
	return s.repo.Save(ctx, m)
}

// summarize recomputes the summary in full from the trailing window. It is
// not maintained incrementally; the last write wins.
func summarize(interactions []model.Interaction) model.MemorySummary {
	window := interactions
	if len(window) > model.SummaryWindow {
		window = window[len(window)-model.SummaryWindow:]
	}

	var joined strings.Builder
	totalLen := 0
	for i, it := range window {
		if i > 0 {
			joined.WriteString(" ")
		}
		joined.WriteString(it.UserMessage)
		totalLen += len(it.UserMessage)
	}
	low := strings.ToLower(joined.String())

	topics := []string{}
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(low, kw) {
				topics = append(topics, tk.topic)
				break
			}
		}
	}

	style := "concise"
	if len(window) > 0 {
		if float64(totalLen)/float64(len(window)) > detailedStyleThreshold {
			style = "detailed"
		}
	}

	summary := model.MemorySummary{
		InteractionCount: len(interactions),
		CommonTopics:     topics,
		UserStyle:        model.UserStyle{CommunicationStyle: style},
	}
	if len(window) > 0 {
		summary.LastInteraction = window[len(window)-1].Timestamp
	}
	return summary
}
