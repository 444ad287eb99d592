package goals

import (
	"sync"

	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/google/uuid"
)

// Tracker keeps per-user goals entirely in memory. Unlike interaction history
// there is no durable persistence; goals do not survive a process restart.
// Active/completed status is derived purely from the 1.0 progress threshold.
//
// The mutex keeps the shared map safe for Go. Concurrent turns for the same
// user still apply updates last-writer-wins; there is no turn-level lock.
type Tracker struct {
	mu    sync.Mutex
	goals map[string][]model.UserGoal
}

func NewTracker() *Tracker {
	return &Tracker{goals: make(map[string][]model.UserGoal)}
}

// AddGoal appends a goal for the user, minting an id when none was supplied.
// Goals are never deleted.
func (t *Tracker) AddGoal(userID string, goal model.UserGoal) model.UserGoal {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.Milestones == nil {
		goal.Milestones = []string{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.goals[userID] = append(t.goals[userID], goal)
	return goal
}

// UpdateGoalProgress sets the progress of the first goal matching the id.
// Progress is not clamped. An unknown id is a silent no-op.
func (t *Tracker) UpdateGoalProgress(userID, goalID string, progress float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.goals[userID]
	for i := range list {
		if list[i].ID == goalID {
			list[i].Progress = progress
			return
		}
	}
}

// GetActiveGoals returns the goals with progress below 1.0.
func (t *Tracker) GetActiveGoals(userID string) []model.UserGoal {
	return t.partition(userID, false)
}

// GetCompletedGoals returns the goals with progress at or above 1.0.
func (t *Tracker) GetCompletedGoals(userID string) []model.UserGoal {
	return t.partition(userID, true)
}

func (t *Tracker) partition(userID string, completed bool) []model.UserGoal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []model.UserGoal{}
	for _, g := range t.goals[userID] {
		if g.Completed() == completed {
			out = append(out, g)
		}
	}
	return out
}
