package nodes

import (
	"context"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

// ProgressWriter delivers one progress event to the caller. It must block until
// the event is handed off so emission order matches node order.
type ProgressWriter func(ctx context.Context, ev model.ProgressEvent) error

type progressWriterKey struct{}

// WithProgressWriter attaches w to ctx for the duration of one graph run.
func WithProgressWriter(ctx context.Context, w ProgressWriter) context.Context {
	return context.WithValue(ctx, progressWriterKey{}, w)
}

func progressWriterFrom(ctx context.Context) ProgressWriter {
	w, _ := ctx.Value(progressWriterKey{}).(ProgressWriter)
	return w
}

// emitProgress is a no-op unless streaming was requested and a writer is attached.
// Delivery failures never fail the node.
func emitProgress(ctx context.Context, node string, s *model.ConversationState, step string, response any) {
	if !s.EnableStreaming {
		return
	}
	w := progressWriterFrom(ctx)
	if w == nil {
		logx.Warn().Str("node", node).Msg("streaming requested but no progress writer attached")
		return
	}
	if response == nil {
		response = map[string]any{}
	}
	if err := w(ctx, model.ProgressEvent{CurrentStep: step, Response: response}); err != nil {
		logx.Warn().Err(err).Str("node", node).Str("step", step).Msg("progress event dropped")
	}
}
