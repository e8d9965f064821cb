package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/longevity-agent/server/internal/agent/model"
)

const (
	routingSystemPrompt = "You are a routing system for a longevity research chat agent."

	// Template variable names.
	VarUserQuestion = "user_question"
	VarChatHistory  = "chat_history"
	VarTools        = "tools"
)

//go:embed template/routing_prompt.txt
var routingPrompt string

//go:embed template/general_prompt.txt
var generalSystemPrompt string

// ToolLine is one entry of the tool listing in the general system prompt.
type ToolLine struct {
	Index int
	Name  string
	Desc  string
}

// RoutingTemplate is the chat template for the router model.
func RoutingTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(routingSystemPrompt),
		schema.UserMessage(routingPrompt),
	)
}

// RoutingVars builds the variables RoutingTemplate expects.
func RoutingVars(userInput, chatHistory string) map[string]any {
	return map[string]any{
		VarUserQuestion:        userInput,
		VarChatHistory:         chatHistory,
		"biomarker_route":      model.RouteAgingBiomarker.String(),
		"clinical_trial_route": model.RouteClinicalTrial.String(),
		"general_route":        model.RouteGeneralKnowledge.String(),
		"rejection_route":      model.RouteRejected.String(),
	}
}

// GeneralTemplate is the chat template for the general-knowledge model. The
// system message lists the research tools so the model can refer users to them.
func GeneralTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(generalSystemPrompt),
		schema.UserMessage("{{.user_question}}"),
	)
}

func GeneralVars(userInput string, tools []*schema.ToolInfo) map[string]any {
	lines := make([]ToolLine, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		lines = append(lines, ToolLine{Index: len(lines) + 1, Name: t.Name, Desc: strings.TrimSpace(t.Desc)})
	}
	return map[string]any{
		VarUserQuestion: userInput,
		VarTools:        lines,
	}
}

// Render formats tpl with vars. It is used outside a compiled graph, e.g. in tests
// or for logging the final prompt.
func Render(ctx context.Context, tpl prompt.ChatTemplate, vars map[string]any) ([]*schema.Message, error) {
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("prompt render: empty result")
	}
	return msgs, nil
}
