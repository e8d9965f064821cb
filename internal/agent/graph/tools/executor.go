package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/longevity-agent/server/internal/agent/graph/observers"
	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

// Executor runs research tools through an eino tools node so tool callbacks fire
// the same way they would for model-issued tool calls.
type Executor struct {
	runnable compose.Runnable[*schema.Message, []*schema.Message]
	names    map[string]struct{}
}

func NewExecutor(ctx context.Context, tools []tool.BaseTool) (*Executor, error) {
	infos, err := GetToolInfos(ctx, tools)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		names[info.Name] = struct{}{}
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               tools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().Str("tool_name", name).Str("arguments", input).Msg("Unknown tool call")
			return fmt.Sprintf(`{"status":"error","error":"unknown tool %s"}`, name), nil
		},
		ToolArgumentsHandler: sanitizeArguments,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tools node: %w", err)
	}

	chain := compose.NewChain[*schema.Message, []*schema.Message]()
	chain.AppendToolsNode(toolsNode)
	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tools chain: %w", err)
	}

	return &Executor{runnable: runnable, names: names}, nil
}

// Tool returns a ResearchTool bound to name.
func (e *Executor) Tool(name string) (model.ResearchTool, error) {
	if _, ok := e.names[name]; !ok {
		return nil, fmt.Errorf("unknown research tool %q", name)
	}
	return &researchTool{name: name, exec: e}, nil
}

func (e *Executor) run(ctx context.Context, name, query, userID string) model.ToolResult {
	args, err := json.Marshal(ResearchInput{Query: query, UserID: userID})
	if err != nil {
		return model.ToolResult{Status: model.ToolStatusError, Error: err.Error()}
	}

	call := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       uuid.NewString(),
			Type:     "function",
			Function: schema.FunctionCall{Name: name, Arguments: string(args)},
		}},
	}

	out, err := e.runnable.Invoke(ctx, call, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return model.ToolResult{Status: model.ToolStatusError, Error: err.Error()}
	}
	if len(out) == 0 || out[0] == nil {
		return model.ToolResult{Status: model.ToolStatusError, Error: name + ": empty tool output"}
	}

	var res model.ToolResult
	if err := json.Unmarshal([]byte(out[0].Content), &res); err != nil {
		return model.ToolResult{Status: model.ToolStatusError, Error: fmt.Sprintf("%s: invalid tool output: %v", name, err)}
	}
	if res.Status != model.ToolStatusOK {
		res.Status = model.ToolStatusError
		if res.Error == "" {
			res.Error = name + ": tool reported failure"
		}
	}
	return res
}

type researchTool struct {
	name string
	exec *Executor
}

func (t *researchTool) Name() string { return t.name }

func (t *researchTool) Run(ctx context.Context, query, userID string) model.ToolResult {
	return t.exec.run(ctx, t.name, query, userID)
}

// sanitizeArguments trims string arguments and coerces non-string values.
// It never fails; unparseable arguments pass through unchanged.
func sanitizeArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments, nil
	}

	for _, key := range []string{"query", "user_id"} {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch vv := v.(type) {
		case string:
			m[key] = strings.TrimSpace(vv)
		case nil:
			delete(m, key)
		default:
			m[key] = strings.TrimSpace(fmt.Sprint(v))
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return arguments, nil
	}
	return string(b), nil
}
