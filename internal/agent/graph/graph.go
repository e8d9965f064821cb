package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/longevity-agent/server/internal/agent/graph/conversations"
	"github.com/longevity-agent/server/internal/agent/graph/nodes"
	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

const graphName = "longevity_chat_agent"

// ErrStreamClosed is returned to a node's progress writer once the consumer has
// closed its end of the stream.
var ErrStreamClosed = errors.New("progress stream closed by consumer")

// Runner executes the compiled graph for one turn.
type Runner interface {
	// Invoke runs the turn to completion and returns its result. Node-level
	// failures are reported in TurnResult.Errors, not as an error.
	Invoke(ctx context.Context, in model.QueryInput) (model.TurnResult, error)

	// Stream runs the turn in the background and returns its progress events.
	// The last event has CurrentStep "Done" and carries the TurnResult.
	Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[model.ProgressEvent], error)
}

// Config holds everything needed to compose the full response graph end-to-end.
type Config struct {
	Classifier    model.RouteClassifier
	Answerer      model.GeneralAnswerer
	Biomarker     model.ResearchTool
	ClinicalTrial model.ResearchTool
	HistoryRepo   model.HistoryRepository
	History       model.HistoryConfig
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Classifier     model.RouteClassifier
	Answerer       model.GeneralAnswerer
	Biomarker      model.ResearchTool
	ClinicalTrial  model.ResearchTool
	HistoryManager *conversations.HistoryManager
}

// GraphBuilder handles the construction of the agent conversation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[*model.ConversationState, *model.ConversationState]
}

type graphRunner struct {
	runnable compose.Runnable[*model.ConversationState, *model.ConversationState]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (model.TurnResult, error) {
	in.EnableStreaming = false
	state := model.NewConversationState(in)

	logx.Info().Str("user_id", in.UserID).Str("session_id", in.SessionID).Msg("run_chat_agent: normal mode")
	out, err := r.runnable.Invoke(ctx, state)
	if err != nil {
		return model.TurnResult{}, fmt.Errorf("run graph: %w", err)
	}
	if out == nil {
		out = state
	}
	return out.Result(), nil
}

func (r *graphRunner) Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[model.ProgressEvent], error) {
	in.EnableStreaming = true
	state := model.NewConversationState(in)

	logx.Info().Str("user_id", in.UserID).Str("session_id", in.SessionID).Msg("run_chat_agent: streaming mode")

	// Unbuffered: every Send blocks until the consumer takes the event.
	sr, sw := schema.Pipe[model.ProgressEvent](0)
	writer := func(_ context.Context, ev model.ProgressEvent) error {
		if closed := sw.Send(ev, nil); closed {
			return ErrStreamClosed
		}
		return nil
	}

	// Side effects run to completion even if the caller goes away.
	runCtx := nodes.WithProgressWriter(context.WithoutCancel(ctx), writer)

	go func() {
		defer sw.Close()
		defer func() {
			if p := recover(); p != nil {
				logx.Error().Msgf("graph stream panic: %v", p)
				sw.Send(model.ProgressEvent{}, fmt.Errorf("graph panic: %v", p))
			}
		}()

		if _, err := r.runnable.Invoke(runCtx, state); err != nil {
			logx.Error().Err(err).Msg("graph stream failed")
			sw.Send(model.ProgressEvent{}, fmt.Errorf("run graph: %w", err))
		}
	}()

	return sr, nil
}

// BuildResponseGraph validates the collaborators, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.HistoryRepo == nil {
		return nil, fmt.Errorf("history repo is nil")
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Classifier:     cfg.Classifier,
		Answerer:       cfg.Answerer,
		Biomarker:      cfg.Biomarker,
		ClinicalTrial:  cfg.ClinicalTrial,
		HistoryManager: conversations.NewHistoryManager(cfg.HistoryRepo, cfg.History),
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and returns the compiled agent graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Classifier == nil || config.Answerer == nil {
		return nil, fmt.Errorf("classifier and answerer are required")
	}
	if config.Biomarker == nil || config.ClinicalTrial == nil {
		return nil, fmt.Errorf("research tools are required")
	}
	if config.HistoryManager == nil {
		return nil, fmt.Errorf("history manager is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph:  compose.NewGraph[*model.ConversationState, *model.ConversationState](),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	cfg := b.config
	lambdas := []struct {
		name   string
		lambda *compose.Lambda
	}{
		{nodes.NodeGetChatHistory, nodes.NewGetChatHistoryNode(cfg.HistoryManager)},
		{nodes.NodeClassifyAndRoute, nodes.NewClassifyAndRouteNode(cfg.Classifier)},
		{nodes.NodeAgingBiomarker, nodes.NewResearchNode(nodes.NodeAgingBiomarker, cfg.Biomarker)},
		{nodes.NodeClinicalTrial, nodes.NewResearchNode(nodes.NodeClinicalTrial, cfg.ClinicalTrial)},
		{nodes.NodeGeneralKnowledge, nodes.NewGeneralKnowledgeNode(cfg.Answerer)},
		{nodes.NodeRejectionHandler, nodes.NewRejectionHandlerNode()},
		{nodes.NodeSaveChatHistory, nodes.NewSaveChatHistoryNode(cfg.HistoryManager)},
		{nodes.NodeStreamFinalResponse, nodes.NewStreamFinalResponseNode()},
	}

	for _, l := range lambdas {
		if err := b.graph.AddLambdaNode(l.name, l.lambda, compose.WithNodeName(l.name)); err != nil {
			logx.Error().Err(err).Str("node", l.name).Msg("Error adding node")
			return fmt.Errorf("error adding node %s: %w", l.name, err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeGetChatHistory},
		{nodes.NodeGetChatHistory, nodes.NodeClassifyAndRoute},
		{nodes.NodeAgingBiomarker, nodes.NodeSaveChatHistory},
		{nodes.NodeClinicalTrial, nodes.NodeSaveChatHistory},
		{nodes.NodeGeneralKnowledge, nodes.NodeSaveChatHistory},
		{nodes.NodeRejectionHandler, nodes.NodeSaveChatHistory},
		{nodes.NodeStreamFinalResponse, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	routeBranch := compose.NewGraphBranch(
		nodes.NewRouteCondition(),
		map[string]bool{
			nodes.NodeAgingBiomarker:   true,
			nodes.NodeClinicalTrial:    true,
			nodes.NodeGeneralKnowledge: true,
			nodes.NodeRejectionHandler: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassifyAndRoute, routeBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding route branch")
		return fmt.Errorf("error adding route branch: %w", err)
	}

	streamBranch := compose.NewGraphBranch(
		nodes.NewStreamingCondition(),
		map[string]bool{
			nodes.NodeStreamFinalResponse: true,
			compose.END:                   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeSaveChatHistory, streamBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding streaming branch")
		return fmt.Errorf("error adding streaming branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithMaxRunSteps(20),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
