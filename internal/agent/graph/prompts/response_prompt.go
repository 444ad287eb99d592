package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// RenderResponseMessages wraps the persona's system context and rendered
// prompt through the Eino prompt component so prompt callbacks fire for the
// response call as well.
func RenderResponseMessages(ctx context.Context, personalityContext, personaPrompt string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("response_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"response_messages": []*schema.Message{
			schema.SystemMessage(personalityContext),
			schema.UserMessage(personaPrompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("response prompt callbacks: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("response prompt callbacks: empty result")
	}
	return msgs, nil
}
