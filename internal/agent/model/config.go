package model

import "time"

// ================ Config ================
type LLMConfig struct {
	Provider string `envconfig:"LLM_PROVIDER" default:"gemini"`
	APIKey   string `envconfig:"LLM_API_KEY" required:"true"`
	BaseURL  string `envconfig:"LLM_BASE_URL"`
}

type RouterModelConfig struct {
	Model          string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens      int     `envconfig:"ROUTER_MAX_TOKENS" default:"1000"`
	Temperature    float32 `envconfig:"ROUTER_TEMPERATURE" default:"0"`
	ThinkingBudget int32   `envconfig:"ROUTER_THINKING_BUDGET" default:"0"`
}

type GeneralModelConfig struct {
	Model          string        `envconfig:"GENERAL_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int           `envconfig:"GENERAL_MAX_TOKENS" default:"2000"`
	Temperature    float32       `envconfig:"GENERAL_TEMPERATURE" default:"0"`
	ThinkingBudget int32         `envconfig:"GENERAL_THINKING_BUDGET" default:"1000"`
	Timeout        time.Duration `envconfig:"GENERAL_TIMEOUT" default:"60s"`
}

type HistoryConfig struct {
	Backend string        `envconfig:"HISTORY_BACKEND" default:"redis"`
	Limit   int           `envconfig:"CHAT_HISTORY_LIMIT" default:"10"`
	TTL     time.Duration `envconfig:"CHAT_HISTORY_TTL" default:"720h"`
}

type ToolConfig struct {
	SimulatedLatency time.Duration `envconfig:"TOOL_SIMULATED_LATENCY" default:"5s"`
}

type ServerConfig struct {
	Port      string `envconfig:"SERVER_PORT" default:"8000"`
	BodyLimit int    `envconfig:"SERVER_BODY_LIMIT" default:"1048576"`
}
