package llm

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longevity-agent/server/internal/agent/model"
)

type fakeChatModel struct {
	content string
	err     error
	got     []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.got = input
	if f.err != nil {
		return nil, f.err
	}
	msg := schema.AssistantMessage(f.content, nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		Usage: &schema.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestAssistant(t *testing.T, router, general *fakeChatModel) *Assistant {
	t.Helper()
	a, err := NewAssistant(context.Background(), AssistantConfig{
		ChatModels: &ChatModels{
			Router:           router,
			General:          general,
			RouterModelName:  "gemini-2.5-flash-lite",
			GeneralModelName: "gemini-2.5-flash",
		},
		ToolInfos: []*schema.ToolInfo{{Name: "aging_biomarker_tool", Desc: "biomarkers"}},
	})
	require.NoError(t, err)
	return a
}

func TestDecideRoute(t *testing.T) {
	router := &fakeChatModel{content: "```json\n{\"decision\": \"aging_biomarker_tool\", \"reasoning\": \"biomarkers\"}\n```"}
	a := newTestAssistant(t, router, &fakeChatModel{})

	out, err := a.DecideRoute(context.Background(), "What are the latest biomarkers?", "user: hi")
	require.NoError(t, err)
	assert.Equal(t, model.RouteAgingBiomarker, out.Decision)
	assert.Empty(t, out.Error)

	require.Len(t, router.got, 2)
	assert.Contains(t, router.got[1].Content, "What are the latest biomarkers?")
	assert.Contains(t, router.got[1].Content, "user: hi")
}

func TestDecideRouteMalformedOutput(t *testing.T) {
	a := newTestAssistant(t, &fakeChatModel{content: "sure, biomarkers!"}, &fakeChatModel{})

	out, err := a.DecideRoute(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, model.RouteRejected, out.Decision)
	assert.NotEmpty(t, out.Error)
}

func TestDecideRouteModelFailure(t *testing.T) {
	a := newTestAssistant(t, &fakeChatModel{err: errors.New("quota exceeded")}, &fakeChatModel{})

	_, err := a.DecideRoute(context.Background(), "q", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnswerGeneral(t *testing.T) {
	general := &fakeChatModel{content: "  Longevity research studies aging.  "}
	a := newTestAssistant(t, &fakeChatModel{}, general)

	answer, err := a.AnswerGeneral(context.Background(), "What is longevity research?")
	require.NoError(t, err)
	assert.Equal(t, "Longevity research studies aging.", answer)

	require.Len(t, general.got, 2)
	assert.Contains(t, general.got[0].Content, "**aging_biomarker_tool**")
	assert.Equal(t, "What is longevity research?", general.got[1].Content)
}

func TestNewAssistantRequiresModels(t *testing.T) {
	_, err := NewAssistant(context.Background(), AssistantConfig{})
	assert.Error(t, err)
}
