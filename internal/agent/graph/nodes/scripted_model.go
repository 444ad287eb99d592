package nodes

import (
	"context"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	scriptedIntentJSON = `{"surface_intent":"general request","deeper_needs":"help user progress toward their goal","goal_relevance":"unknown","empowerment_opportunity":"provide next steps and resources","needs_scheduling":false,"needs_data_lookup":false,"needs_external_service":false}`

	scriptedResponseJSON = `{"message":"Here's a helpful next step based on your request.","actions":[{"type":"next_step","details":"Start with a 25-minute focused session today."}],"goal_updates":[],"personalization_learned":{}}`

	scriptedPlainText = "Helpful suggestion: break your goal into small daily steps."
)

// ScriptedChatModel is the deterministic offline provider. With no queued
// replies it answers JSON-friendly canned output keyed off the prompt shape,
// mirroring what a cooperative model would return. Queued replies are
// consumed first, which lets tests drive exact model output per call.
type ScriptedChatModel struct {
	mu      sync.Mutex
	replies []string
}

func NewScriptedChatModel(replies ...string) *ScriptedChatModel {
	return &ScriptedChatModel{replies: replies}
}

// Enqueue appends replies to be returned by upcoming calls, one per call.
func (m *ScriptedChatModel) Enqueue(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *ScriptedChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	if len(m.replies) > 0 {
		reply := m.replies[0]
		m.replies = m.replies[1:]
		m.mu.Unlock()
		return schema.AssistantMessage(reply, nil), nil
	}
	m.mu.Unlock()

	return schema.AssistantMessage(m.cannedReply(input), nil), nil
}

func (m *ScriptedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(out, nil)
	sw.Close()
	return sr, nil
}

func (m *ScriptedChatModel) cannedReply(input []*schema.Message) string {
	var all strings.Builder
	for _, msg := range input {
		if msg == nil {
			continue
		}
		all.WriteString(msg.Content)
		all.WriteString("\n")
	}
	prompt := all.String()

	switch {
	case strings.Contains(prompt, "intent analyzer"):
		return scriptedIntentJSON
	case strings.Contains(prompt, "Return JSON"):
		return scriptedResponseJSON
	default:
		return scriptedPlainText
	}
}

var _ einomodel.BaseChatModel = (*ScriptedChatModel)(nil)
