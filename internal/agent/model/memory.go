package model

import (
	"context"
	"errors"
)

// ErrMemoryNotFound is returned by repositories when no document exists yet
// for a user. The store treats it as "lazily create an empty record".
var ErrMemoryNotFound = errors.New("user memory not found")

// MaxInteractions bounds the per-user interaction history. Oldest entries are
// evicted first; the list never exceeds this after any write.
const MaxInteractions = 100

// SummaryWindow is how many trailing interactions feed the derived summary.
const SummaryWindow = 10

// Interaction is one append-only turn record. Immutable once written.
type Interaction struct {
	Timestamp     string         `json:"timestamp"`
	UserMessage   string         `json:"user_message"`
	AgentResponse string         `json:"agent_response"`
	Context       map[string]any `json:"context"`
}

// UserStyle is the coarse communication-style classifier in the summary.
type UserStyle struct {
	CommunicationStyle string `json:"communication_style"`
}

// MemorySummary is recomputed in full from the trailing interactions on every
// write; it is never maintained incrementally.
type MemorySummary struct {
	InteractionCount int       `json:"interaction_count"`
	LastInteraction  string    `json:"last_interaction"`
	CommonTopics     []string  `json:"common_topics"`
	UserStyle        UserStyle `json:"user_style"`
}

// UserMemory is the per-user durable record. It is persisted as one
// standalone document per user; every write overwrites the prior document.
type UserMemory struct {
	UserID       string         `json:"user_id"`
	CreatedAt    string         `json:"created_at"`
	Interactions []Interaction  `json:"interactions"`
	Preferences  map[string]any `json:"preferences"`
	Summary      MemorySummary  `json:"summary"`
}

// MemoryRepository persists user memory documents. Implementations overwrite
// the full document on Save; there is no partial update or append log, and no
// guard against concurrent writers for the same user.
type MemoryRepository interface {
	// Load retrieves the document for a user, or ErrMemoryNotFound.
	Load(ctx context.Context, userID string) (*UserMemory, error)

	// Save overwrites the document for memory.UserID.
	Save(ctx context.Context, memory *UserMemory) error
}
