package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

// RenderIntentMessages builds the fixed-shape intent-analysis messages via
// the Eino prompt component (enables prompt callbacks). The system prompt
// asks for the seven-key JSON intent object; the user message carries the
// text to analyze plus the memory summary.
func RenderIntentMessages(ctx context.Context, userMessage, summaryJSON string) ([]*schema.Message, error) {
	userContent := strings.NewReplacer(
		"{user_message}", userMessage,
		"{user_summary}", summaryJSON,
	).Replace("Message: \"{user_message}\"\nUser Summary: {user_summary}")

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("intent_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"intent_messages": []*schema.Message{
			schema.SystemMessage(intentSystemPrompt),
			schema.UserMessage(userContent),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("intent prompt callbacks: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("intent prompt callbacks: empty result")
	}
	return msgs, nil
}
