package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/empowering-agents/server/internal/agent/model"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	Provider     model.ProviderConfig
	IntentConfig *model.IntentModelConfig
	RespConfig   *model.ResponseModelConfig
}

// ChatModels holds both intent-analysis and response chat models.
type ChatModels struct {
	Intent            einomodel.BaseChatModel
	Response          einomodel.BaseChatModel
	IntentModelName   string
	ResponseModelName string
}

// NewChatModels creates the intent and response chat models for the
// configured provider. Unknown providers fall back to the scripted model so
// demos and tests run without credentials.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	switch config.Provider.Provider {
	case "gemini":
		return newGeminiChatModels(ctx, config)
	case "", "scripted":
		return &ChatModels{
			Intent:            NewScriptedChatModel(),
			Response:          NewScriptedChatModel(),
			IntentModelName:   "scripted",
			ResponseModelName: "scripted",
		}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", config.Provider.Provider)
	}
}

func newGeminiChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.Provider.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.Provider.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.Provider.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModelIntent, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.IntentConfig.Model,
		Temperature: &config.IntentConfig.Temperature,
		MaxTokens:   &config.IntentConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}

	chatModelResponse, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.RespConfig.Model,
		Temperature: &config.RespConfig.Temperature,
		MaxTokens:   &config.RespConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating response model")
		return nil, fmt.Errorf("error creating response model: %w", err)
	}

	return &ChatModels{
		Intent:            newTextFallbackModel("intent model", chatModelIntent),
		Response:          newTextFallbackModel("response model", chatModelResponse),
		IntentModelName:   config.IntentConfig.Model,
		ResponseModelName: config.RespConfig.Model,
	}, nil
}

// textFallbackModel converts provider failures into a descriptive assistant
// message instead of raising them into the loop. Downstream parsers then
// degrade the same way they do for any non-conforming output, so the caller
// sees an error-describing reply rather than an error.
type textFallbackModel struct {
	name  string
	inner einomodel.BaseChatModel
}

func newTextFallbackModel(name string, inner einomodel.BaseChatModel) *textFallbackModel {
	return &textFallbackModel{name: name, inner: inner}
}

func (m *textFallbackModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		logx.Warn().Err(err).Str("model", m.name).Msg("model call failed, degrading to text reply")
		return schema.AssistantMessage(fmt.Sprintf("%s error: %v", m.name, err), nil), nil
	}
	return out, nil
}

func (m *textFallbackModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.inner.Stream(ctx, input, opts...)
	if err != nil {
		logx.Warn().Err(err).Str("model", m.name).Msg("model stream failed, degrading to text reply")
		sr, sw := schema.Pipe[*schema.Message](1)
		sw.Send(schema.AssistantMessage(fmt.Sprintf("%s error: %v", m.name, err), nil), nil)
		sw.Close()
		return sr, nil
	}
	return out, nil
}

var _ einomodel.BaseChatModel = (*textFallbackModel)(nil)
