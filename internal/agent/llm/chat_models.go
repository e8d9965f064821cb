package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	LLM     model.LLMConfig
	Router  *model.RouterModelConfig
	General *model.GeneralModelConfig
}

// ChatModels holds the router and general-knowledge chat models
type ChatModels struct {
	Router           einomodel.BaseChatModel
	General          einomodel.BaseChatModel
	RouterModelName  string
	GeneralModelName string
}

// NewChatModels creates both chat models for the configured provider
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Router == nil || config.General == nil {
		return nil, fmt.Errorf("router and general model configs are required")
	}

	switch strings.ToLower(strings.TrimSpace(config.LLM.Provider)) {
	case ProviderGemini, "":
		return newGeminiModels(ctx, config)
	case ProviderOpenAI:
		return newOpenAIModels(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.LLM.Provider)
	}
}

func newGeminiModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.LLM.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.LLM.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	router, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Router.Model,
		Temperature: &config.Router.Temperature,
		MaxTokens:   &config.Router.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.Router.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}

	general, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.General.Model,
		Temperature: &config.General.Temperature,
		MaxTokens:   &config.General.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(config.General.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating general model")
		return nil, fmt.Errorf("error creating general model: %w", err)
	}

	return &ChatModels{
		Router:           router,
		General:          general,
		RouterModelName:  config.Router.Model,
		GeneralModelName: config.General.Model,
	}, nil
}

func newOpenAIModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.LLM.BaseURL), "/")
	apiKey := strings.TrimSpace(config.LLM.APIKey)

	router, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       config.Router.Model,
		MaxTokens:   &config.Router.MaxTokens,
		Temperature: &config.Router.Temperature,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}

	general, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       config.General.Model,
		MaxTokens:   &config.General.MaxTokens,
		Temperature: &config.General.Temperature,
		Timeout:     config.General.Timeout,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating general model")
		return nil, fmt.Errorf("error creating general model: %w", err)
	}

	return &ChatModels{
		Router:           router,
		General:          general,
		RouterModelName:  config.Router.Model,
		GeneralModelName: config.General.Model,
	}, nil
}
