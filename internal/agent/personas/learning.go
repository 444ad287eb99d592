package personas

import (
	_ "embed"

	"github.com/empowering-agents/server/internal/agent/model"
	"github.com/empowering-agents/server/internal/agent/tools"
)

//go:embed template/learning_prompt.txt
var learningPromptTemplate string

// LearningNavigator is Alex: an encouraging guide toward learning goals.
type LearningNavigator struct{}

func NewLearningNavigator() *LearningNavigator {
	return &LearningNavigator{}
}

func (LearningNavigator) Profile() Profile {
	return Profile{
		ID:        "learning_navigator",
		Name:      "Alex",
		Role:      "Learning Navigator",
		Style:     "encouraging, knowledgeable, adaptive",
		Expertise: []string{"education", "skill development", "career growth"},
		Values:    []string{"lifelong learning", "practical application", "individual growth"},
	}
}

func (LearningNavigator) Tools() []string {
	return []string{tools.ToolKnowledgeBase, tools.ToolCalendar, tools.ToolProgressTracker, tools.ToolResourceFinder}
}

func (LearningNavigator) PersonalityContext() string {
	return "You are Alex, a Learning Navigator AI. Focus on helping users achieve learning goals. " +
		"Be clear, encouraging, and practical. Recommend free resources when useful. " +
		"Celebrate small wins and propose next steps."
}

func (p LearningNavigator) BuildResponsePrompt(message string, intent model.Intent, memory *model.UserMemory, goals []model.UserGoal, toolResults map[string]any) string {
	return renderPrompt(learningPromptTemplate, p.PersonalityContext(), message, intent, memory, goals, toolResults)
}

var _ Persona = (*LearningNavigator)(nil)
