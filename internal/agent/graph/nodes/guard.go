package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

type stepFunc func(ctx context.Context, s *model.ConversationState) error

// guarded wraps a node body so that returned errors and panics are recorded as
// "Node <name>: <detail>" and never escape the node.
func guarded(name string, fn stepFunc) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s *model.ConversationState) (out *model.ConversationState, err error) {
		if s == nil {
			return nil, fmt.Errorf("Node %s: nil state", name)
		}
		defer func() {
			if r := recover(); r != nil {
				logx.Error().Str("node", name).Msgf("Node %s: panic recovered: %v", name, r)
				s.AddError(fmt.Sprintf("Node %s: %v", name, r))
				out, err = s, nil
			}
		}()

		if ferr := fn(ctx, s); ferr != nil {
			logx.Error().Err(ferr).Str("node", name).Str("user_id", s.UserID).Msgf("Node %s: exception", name)
			s.AddError(fmt.Sprintf("Node %s: %v", name, ferr))
		}
		return s, nil
	})
}

// skipOnError reports whether the node should pass the state through untouched.
func skipOnError(name string, s *model.ConversationState) bool {
	if !s.HasErrors() {
		logx.Info().Str("node", name).Msgf("Node %s: start", name)
		return false
	}
	logx.Info().Str("node", name).Msgf("Node %s: skipped due to prior error", name)
	return true
}
