package model

import "context"

type ToolStatus string

const (
	ToolStatusOK    ToolStatus = "ok"
	ToolStatusError ToolStatus = "error"
)

// ToolResult is the envelope every research tool returns.
type ToolResult struct {
	Status   ToolStatus `json:"status"`
	Response string     `json:"response,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ResearchTool is a long-running external lookup keyed by query and user.
type ResearchTool interface {
	Name() string
	Run(ctx context.Context, query, userID string) ToolResult
}

// RouteClassifier decides which strategy handles a query. Parse failures are
// reported through RouterOutput.Error; the returned error is reserved for
// failures invoking the model itself.
type RouteClassifier interface {
	DecideRoute(ctx context.Context, userInput, chatHistory string) (RouterOutput, error)
}

// GeneralAnswerer answers a query without any research tool.
type GeneralAnswerer interface {
	AnswerGeneral(ctx context.Context, userInput string) (string, error)
}
