package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longevity-agent/server/internal/agent/model"
)

// runLambda compiles a single lambda into a chain and invokes it once.
func runLambda(ctx context.Context, t *testing.T, l *compose.Lambda, s *model.ConversationState) (*model.ConversationState, error) {
	t.Helper()
	r, err := compose.NewChain[*model.ConversationState, *model.ConversationState]().
		AppendLambda(l).
		Compile(ctx)
	require.NoError(t, err)
	return r.Invoke(ctx, s)
}

type recordedEvents struct {
	events []model.ProgressEvent
	err    error
}

func (r *recordedEvents) writer() ProgressWriter {
	return func(ctx context.Context, ev model.ProgressEvent) error {
		r.events = append(r.events, ev)
		return r.err
	}
}

func TestEmitProgress(t *testing.T) {
	t.Run("blocking turn emits nothing", func(t *testing.T) {
		rec := &recordedEvents{}
		ctx := WithProgressWriter(context.Background(), rec.writer())
		emitProgress(ctx, "n", model.NewConversationState(model.QueryInput{UserID: "u"}), "step", nil)
		assert.Empty(t, rec.events)
	})

	t.Run("nil response becomes empty object", func(t *testing.T) {
		rec := &recordedEvents{}
		ctx := WithProgressWriter(context.Background(), rec.writer())
		s := model.NewConversationState(model.QueryInput{UserID: "u", EnableStreaming: true})
		emitProgress(ctx, "n", s, StepResearching("general_knowledge"), nil)

		require.Len(t, rec.events, 1)
		assert.Equal(t, "Researching information using general_knowledge", rec.events[0].CurrentStep)
		assert.Equal(t, map[string]any{}, rec.events[0].Response)
	})

	t.Run("writer failure does not fail the turn", func(t *testing.T) {
		rec := &recordedEvents{err: errors.New("closed")}
		ctx := WithProgressWriter(context.Background(), rec.writer())
		s := model.NewConversationState(model.QueryInput{UserID: "u", EnableStreaming: true})
		emitProgress(ctx, "n", s, "step", nil)
		assert.Len(t, rec.events, 1)
		assert.False(t, s.HasErrors())
	})

	t.Run("missing writer is tolerated", func(t *testing.T) {
		s := model.NewConversationState(model.QueryInput{UserID: "u", EnableStreaming: true})
		assert.NotPanics(t, func() { emitProgress(context.Background(), "n", s, "step", nil) })
	})
}

func TestGuarded(t *testing.T) {
	ctx := context.Background()

	t.Run("error is recorded with node prefix", func(t *testing.T) {
		fn := func(ctx context.Context, s *model.ConversationState) error { return errors.New("boom") }
		s := model.NewConversationState(model.QueryInput{UserID: "u"})
		out, err := runLambda(ctx, t, guarded("demo", fn), s)
		require.NoError(t, err)
		assert.Equal(t, []string{"Node demo: boom"}, out.Errors)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		fn := func(ctx context.Context, s *model.ConversationState) error { panic("kaboom") }
		s := model.NewConversationState(model.QueryInput{UserID: "u"})
		out, err := runLambda(ctx, t, guarded("demo", fn), s)
		require.NoError(t, err)
		assert.Equal(t, []string{"Node demo: kaboom"}, out.Errors)
	})
}

func TestRejectionHandlerFallback(t *testing.T) {
	node := NewRejectionHandlerNode()

	s := model.NewConversationState(model.QueryInput{UserID: "u"})
	out, err := runLambda(context.Background(), t, node, s)
	require.NoError(t, err)
	assert.Equal(t, RejectionFallback, out.FinalAnswer)

	s = model.NewConversationState(model.QueryInput{UserID: "u"})
	s.RejectionMessage = "Only longevity topics, please."
	out, err = runLambda(context.Background(), t, node, s)
	require.NoError(t, err)
	assert.Equal(t, "Only longevity topics, please.", out.FinalAnswer)
}

func TestRouteCondition(t *testing.T) {
	cond := NewRouteCondition()
	cases := map[model.Route]string{
		model.RouteAgingBiomarker:   NodeAgingBiomarker,
		model.RouteClinicalTrial:    NodeClinicalTrial,
		model.RouteGeneralKnowledge: NodeGeneralKnowledge,
		model.RouteRejected:         NodeRejectionHandler,
		model.RouteUnrouted:         NodeRejectionHandler,
	}
	for route, want := range cases {
		got, err := cond(context.Background(), &model.ConversationState{Route: route})
		require.NoError(t, err)
		assert.Equal(t, want, got, "route %q", route)
	}
}
