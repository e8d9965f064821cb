package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/longevity-agent/server/internal/agent/graph/observers"
	"github.com/longevity-agent/server/internal/agent/graph/parsers"
	"github.com/longevity-agent/server/internal/agent/graph/prompts"
	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

var (
	_ model.RouteClassifier = (*Assistant)(nil)
	_ model.GeneralAnswerer = (*Assistant)(nil)
)

// Assistant is the language-model side of the agent: it classifies queries and
// answers general-knowledge ones. Each capability is a compiled prompt -> model chain.
type Assistant struct {
	router       compose.Runnable[map[string]any, *schema.Message]
	general      compose.Runnable[map[string]any, *schema.Message]
	routerModel  string
	generalModel string
	toolInfos    []*schema.ToolInfo
	timeout      time.Duration
}

type AssistantConfig struct {
	ChatModels *ChatModels
	// ToolInfos are listed in the general-knowledge system prompt.
	ToolInfos []*schema.ToolInfo
	// GeneralTimeout bounds a single general-knowledge answer. Zero means no limit.
	GeneralTimeout time.Duration
}

func NewAssistant(ctx context.Context, cfg AssistantConfig) (*Assistant, error) {
	cms := cfg.ChatModels
	if cms == nil || cms.Router == nil || cms.General == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}

	router, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(prompts.RoutingTemplate(), compose.WithNodeName("routing_prompt")).
		AppendChatModel(cms.Router, compose.WithNodeName("router_model")).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error compiling router chain: %w", err)
	}

	general, err := compose.NewChain[map[string]any, *schema.Message]().
		AppendChatTemplate(prompts.GeneralTemplate(), compose.WithNodeName("general_prompt")).
		AppendChatModel(cms.General, compose.WithNodeName("general_model")).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("error compiling general chain: %w", err)
	}

	return &Assistant{
		router:       router,
		general:      general,
		routerModel:  cms.RouterModelName,
		generalModel: cms.GeneralModelName,
		toolInfos:    cfg.ToolInfos,
		timeout:      cfg.GeneralTimeout,
	}, nil
}

// DecideRoute never fails on bad model output; only a failed model call is
// returned as an error.
func (a *Assistant) DecideRoute(ctx context.Context, userInput, chatHistory string) (model.RouterOutput, error) {
	logx.Info().Msg("LLM: Deciding route: start")

	msg, err := a.router.Invoke(ctx, prompts.RoutingVars(userInput, chatHistory),
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return model.RouterOutput{}, fmt.Errorf("decide route: %w", err)
	}
	logUsage("router", a.routerModel, msg)

	content := ""
	if msg != nil {
		content = strings.TrimSpace(msg.Content)
	}
	logx.Debug().Str("content", content).Msg("LLM: Deciding route")

	return parsers.ParseRoutingDecision(content), nil
}

func (a *Assistant) AnswerGeneral(ctx context.Context, userInput string) (string, error) {
	logx.Info().Msg("LLM: Answering general: start")

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	msg, err := a.general.Invoke(ctx, prompts.GeneralVars(userInput, a.toolInfos),
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", fmt.Errorf("answer general: %w", err)
	}
	logUsage("general", a.generalModel, msg)

	if msg == nil {
		return "", nil
	}
	return strings.TrimSpace(msg.Content), nil
}

func logUsage(stage, modelName string, msg *schema.Message) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	usage := msg.ResponseMeta.Usage
	pricing, known := model.PricingFor(modelName)
	cost := pricing.Cost(usage)
	logx.Info().
		Str("stage", stage).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Bool("priced", known).
		Float64("input_cost_usd", cost.Input).
		Float64("output_cost_usd", cost.Output).
		Float64("total_cost_usd", cost.Total()).
		Msg("LLM usage")
}
