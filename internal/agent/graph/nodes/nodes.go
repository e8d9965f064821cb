package nodes

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/compose"

	"github.com/longevity-agent/server/internal/agent/graph/conversations"
	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

// NewGetChatHistoryNode loads and compacts prior turns of the session.
func NewGetChatHistoryNode(hm *conversations.HistoryManager) *compose.Lambda {
	return guarded(NodeGetChatHistory, func(ctx context.Context, s *model.ConversationState) error {
		if skipOnError(NodeGetChatHistory, s) {
			return nil
		}
		if s.UserID == "" {
			return errors.New("user_id missing")
		}

		history, err := hm.LoadContext(ctx, s.UserID, s.SessionID)
		if err != nil {
			return err
		}
		s.ChatHistory = history
		return nil
	})
}

// NewClassifyAndRouteNode asks the classifier for a route. A classifier-reported
// error leaves the route unset.
func NewClassifyAndRouteNode(classifier model.RouteClassifier) *compose.Lambda {
	return guarded(NodeClassifyAndRoute, func(ctx context.Context, s *model.ConversationState) error {
		if skipOnError(NodeClassifyAndRoute, s) {
			return nil
		}

		out, err := classifier.DecideRoute(ctx, s.UserInput, s.ChatHistory)
		if err != nil {
			return err
		}
		if out.Error != "" {
			return errors.New(out.Error)
		}
		if err := s.SetRoute(out.Decision); err != nil {
			return err
		}
		if s.Route == model.RouteRejected {
			s.RejectionMessage = out.RejectionMessage
		}
		logx.Info().Str("node", NodeClassifyAndRoute).Str("route", s.Route.String()).Str("reasoning", out.Reasoning).Msg("route decided")
		return nil
	})
}

// NewRouteCondition maps the decided route to its node. Unrouted turns go to the
// rejection handler, which skips because the turn already carries an error.
func NewRouteCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, s *model.ConversationState) (string, error) {
		switch s.Route {
		case model.RouteAgingBiomarker:
			return NodeAgingBiomarker, nil
		case model.RouteClinicalTrial:
			return NodeClinicalTrial, nil
		case model.RouteGeneralKnowledge:
			return NodeGeneralKnowledge, nil
		default:
			return NodeRejectionHandler, nil
		}
	}
}

// NewResearchNode runs one research tool and takes its payload as the answer.
func NewResearchNode(name string, tool model.ResearchTool) *compose.Lambda {
	return guarded(name, func(ctx context.Context, s *model.ConversationState) error {
		if skipOnError(name, s) {
			return nil
		}
		emitProgress(ctx, name, s, StepResearching(tool.Name()), nil)

		logx.Info().Str("node", name).Str("user_id", s.UserID).Msg("invoking research tool")
		res := tool.Run(ctx, s.UserInput, s.UserID)
		if res.Status != model.ToolStatusOK {
			if res.Error == "" {
				return errors.New("tool returned no result")
			}
			return errors.New(res.Error)
		}
		s.FinalAnswer = res.Response
		return nil
	})
}

func NewGeneralKnowledgeNode(answerer model.GeneralAnswerer) *compose.Lambda {
	return guarded(NodeGeneralKnowledge, func(ctx context.Context, s *model.ConversationState) error {
		if skipOnError(NodeGeneralKnowledge, s) {
			return nil
		}
		emitProgress(ctx, NodeGeneralKnowledge, s, StepResearching(model.RouteGeneralKnowledge.String()), nil)

		answer, err := answerer.AnswerGeneral(ctx, s.UserInput)
		if err != nil {
			return err
		}
		s.FinalAnswer = answer
		return nil
	})
}

func NewRejectionHandlerNode() *compose.Lambda {
	return guarded(NodeRejectionHandler, func(ctx context.Context, s *model.ConversationState) error {
		if skipOnError(NodeRejectionHandler, s) {
			return nil
		}
		emitProgress(ctx, NodeRejectionHandler, s, StepResearching(model.RouteRejected.String()), nil)

		if s.RejectionMessage != "" {
			s.FinalAnswer = s.RejectionMessage
		} else {
			s.FinalAnswer = RejectionFallback
		}
		return nil
	})
}

// NewSaveChatHistoryNode persists the user message then the assistant message.
// It runs even when the turn already failed; persistence failures are only logged.
func NewSaveChatHistoryNode(hm *conversations.HistoryManager) *compose.Lambda {
	return guarded(NodeSaveChatHistory, func(ctx context.Context, s *model.ConversationState) error {
		logx.Info().Str("node", NodeSaveChatHistory).Msgf("Node %s: start", NodeSaveChatHistory)
		if s.UserID == "" {
			return errors.New("user_id is missing")
		}

		sessionID := s.SessionID
		if s.UserInput != "" {
			sid, err := hm.SaveMessage(ctx, model.PersistRequest{
				UserID:    s.UserID,
				SessionID: sessionID,
				Role:      model.RoleUser,
				Message:   s.UserInput,
			})
			if err != nil {
				logx.Error().Err(err).Str("node", NodeSaveChatHistory).Msg("failed to save user message")
			} else {
				sessionID = sid
			}
		}

		if s.FinalAnswer != "" {
			sid, err := hm.SaveMessage(ctx, model.PersistRequest{
				UserID:    s.UserID,
				SessionID: sessionID,
				Role:      model.RoleAssistant,
				Message:   s.FinalAnswer,
				ToolUsed:  s.Route,
			})
			if err != nil {
				logx.Error().Err(err).Str("node", NodeSaveChatHistory).Msg("failed to save assistant message")
			} else {
				sessionID = sid
			}
		}

		return s.AssignSession(sessionID)
	})
}

// NewStreamingCondition ends the run unless the caller asked for a stream.
func NewStreamingCondition() func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, s *model.ConversationState) (string, error) {
		if s.EnableStreaming {
			return NodeStreamFinalResponse, nil
		}
		return compose.END, nil
	}
}

// NewStreamFinalResponseNode emits the terminal "Done" event.
func NewStreamFinalResponseNode() *compose.Lambda {
	return guarded(NodeStreamFinalResponse, func(ctx context.Context, s *model.ConversationState) error {
		logx.Info().Str("node", NodeStreamFinalResponse).Msgf("Node %s: start", NodeStreamFinalResponse)
		emitProgress(ctx, NodeStreamFinalResponse, s, model.StepDone, s.Result())
		return nil
	})
}
