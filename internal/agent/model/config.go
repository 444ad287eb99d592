package model

// ================ Config ================

// ProviderConfig selects the chat-model backend. "gemini" talks to the real
// API; "scripted" is the deterministic offline provider used in tests and
// local demos.
type ProviderConfig struct {
	Provider string `envconfig:"LLM_PROVIDER" default:"scripted"`
	APIKey   string `envconfig:"GEMINI_API_KEY"`
	BaseURL  string `envconfig:"GEMINI_BASE_URL"`
}

type IntentModelConfig struct {
	Model       string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"INTENT_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"INTENT_TEMPERATURE" default:"0.1"`
}

type ResponseModelConfig struct {
	Model       string  `envconfig:"RESPONSE_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.4"`
}

type MemoryConfig struct {
	// Dir holds one JSON document per user when the file repository is used.
	Dir string `envconfig:"MEMORY_DIR" default:"./.mem"`
	// TTL applies to the Redis repository only; zero keeps documents forever.
	TTL string `envconfig:"MEMORY_TTL" default:"0"`
}

type CalendarConfig struct {
	Enabled   bool   `envconfig:"GOOGLE_CALENDAR_ENABLED" default:"false"`
	TokenPath string `envconfig:"GOOGLE_TOKEN_PATH" default:"~/.empowering_agents/google_token.json"`
	TimeZone  string `envconfig:"GOOGLE_CALENDAR_TIMEZONE" default:"UTC"`
}

type PlanningConfig struct {
	HintsPath string `envconfig:"COMPILED_HINTS_PATH" default:"experiments/.artifacts/compiled_hints.json"`
}

type AnalyticsConfig struct {
	Path string `envconfig:"ANALYTICS_LOG" default:"./analytics_events.jsonl"`
}

type CRMConfig struct {
	Path string `envconfig:"CRM_FILE" default:"./crm.json"`
}
