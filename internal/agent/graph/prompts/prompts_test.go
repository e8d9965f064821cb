package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingTemplate(t *testing.T) {
	msgs, err := Render(context.Background(), RoutingTemplate(), RoutingVars("What is NAD+?", "user: hi\nassistant: hello"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "What is NAD+?")
	assert.Contains(t, msgs[1].Content, "assistant: hello")
	assert.Contains(t, msgs[1].Content, `"decision": "aging_biomarker_tool"`)
	assert.Contains(t, msgs[1].Content, "one of: aging_biomarker_tool, longevity_clinical_trial_tool, general_knowledge, rejection_handler")
}

func TestGeneralTemplateListsTools(t *testing.T) {
	tools := []*schema.ToolInfo{
		{Name: "aging_biomarker_tool", Desc: "Aging biomarker database"},
		nil,
		{Name: "longevity_clinical_trial_tool", Desc: "Clinical trial tracker"},
	}

	msgs, err := Render(context.Background(), GeneralTemplate(), GeneralVars("hello", tools))
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Contains(t, msgs[0].Content, "1. **aging_biomarker_tool**: Aging biomarker database")
	assert.Contains(t, msgs[0].Content, "2. **longevity_clinical_trial_tool**: Clinical trial tracker")
	assert.Equal(t, "hello", msgs[1].Content)
}
