package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoute(t *testing.T) {
	r, err := ParseRoute(" general_knowledge ")
	require.NoError(t, err)
	assert.Equal(t, RouteGeneralKnowledge, r)

	_, err = ParseRoute("weather_tool")
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = ParseRoute("")
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestConversationState_SetRouteIsWriteOnce(t *testing.T) {
	s := NewConversationState(QueryInput{UserID: "u1", UserInput: "hi"})

	require.NoError(t, s.SetRoute(RouteClinicalTrial))
	err := s.SetRoute(RouteRejected)
	assert.ErrorIs(t, err, ErrRouteAlreadySet)
	assert.Equal(t, RouteClinicalTrial, s.Route)
}

func TestConversationState_SetRouteRejectsUnknown(t *testing.T) {
	s := NewConversationState(QueryInput{UserID: "u1"})
	assert.ErrorIs(t, s.SetRoute(Route("nope")), ErrInvalidRoute)
	assert.Equal(t, RouteUnrouted, s.Route)
}

func TestConversationState_AssignSession(t *testing.T) {
	t.Run("allocates once", func(t *testing.T) {
		s := NewConversationState(QueryInput{UserID: "u1"})
		require.NoError(t, s.AssignSession(""))
		assert.Empty(t, s.SessionID)

		require.NoError(t, s.AssignSession("sess-1"))
		require.NoError(t, s.AssignSession("sess-1"))
		assert.ErrorIs(t, s.AssignSession("sess-2"), ErrSessionAlreadyAssigned)
		assert.Equal(t, "sess-1", s.SessionID)
	})

	t.Run("caller supplied id is fixed", func(t *testing.T) {
		s := NewConversationState(QueryInput{UserID: "u1", SessionID: "given"})
		assert.ErrorIs(t, s.AssignSession("other"), ErrSessionAlreadyAssigned)
		assert.Equal(t, "given", s.SessionID)
	})
}

func TestConversationState_Result(t *testing.T) {
	s := NewConversationState(QueryInput{UserID: "u1", SessionID: "s1"})
	s.FinalAnswer = "answer"
	s.AddError("Node x: boom")

	res := s.Result()
	assert.Equal(t, TurnResult{Answer: "answer", SessionID: "s1", Errors: []string{"Node x: boom"}}, res)

	res.Errors[0] = "mutated"
	assert.Equal(t, "Node x: boom", s.Errors[0])
	assert.True(t, s.HasErrors())
}

func TestConversationState_ResultErrorsNeverNil(t *testing.T) {
	res := NewConversationState(QueryInput{UserID: "u1"}).Result()
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Errors)
}

func TestPricingCost(t *testing.T) {
	p, ok := PricingFor("gemini-2.5-flash")
	require.True(t, ok)

	cost := p.Cost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000})
	assert.InDelta(t, 0.30, cost.Input, 1e-9)
	assert.InDelta(t, 1.25, cost.Output, 1e-9)
	assert.InDelta(t, 1.55, cost.Total(), 1e-9)

	assert.Zero(t, p.Cost(nil).Total())

	unknown, ok := PricingFor("unknown-model")
	assert.False(t, ok)
	assert.Zero(t, unknown.Cost(&schema.TokenUsage{PromptTokens: 10}).Total())
}
