package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

const (
	ToolAgingBiomarker = string(model.RouteAgingBiomarker)
	ToolClinicalTrial  = string(model.RouteClinicalTrial)
)

type ResearchInput struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

var researchParams = map[string]*schema.ParameterInfo{
	"query": {
		Type:     "string",
		Desc:     "The user's research question, verbatim.",
		Required: true,
	},
	"user_id": {
		Type:     "string",
		Desc:     "Identifier of the user asking the question.",
		Required: true,
	},
}

// GetResearchTools returns the aging biomarker and clinical trial tools. Both are
// placeholders that wait for latency and return canned text.
func GetResearchTools(latency time.Duration) []tool.BaseTool {
	return []tool.BaseTool{
		newResearchTool(&schema.ToolInfo{
			Name:        ToolAgingBiomarker,
			Desc:        "Aging Biomarker Database. Aggregates and analyzes data related to biomarkers of aging, pulling from scientific studies, clinical trials, and genomic databases to help identify markers linked to longer lifespan and healthy aging.",
			ParamsOneOf: schema.NewParamsOneOfByParams(researchParams),
		}, latency),
		newResearchTool(&schema.ToolInfo{
			Name:        ToolClinicalTrial,
			Desc:        "Longevity Clinical Trial Tracker. Tracks ongoing and completed clinical trials focused on longevity and age-related diseases, filtered by treatment type (e.g., senolytics, gene therapies), trial phases, locations, and demographic information.",
			ParamsOneOf: schema.NewParamsOneOfByParams(researchParams),
		}, latency),
	}
}

func newResearchTool(info *schema.ToolInfo, latency time.Duration) tool.InvokableTool {
	name := info.Name
	return utils.NewTool(info, func(ctx context.Context, in *ResearchInput) (*model.ToolResult, error) {
		if strings.TrimSpace(in.Query) == "" {
			return nil, fmt.Errorf("query is required")
		}
		logx.Info().Str("tool", name).Str("user_id", in.UserID).Msg(name + ": start")

		if latency > 0 {
			timer := time.NewTimer(latency)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return &model.ToolResult{Status: model.ToolStatusError, Error: ctx.Err().Error()}, nil
			}
		}

		return &model.ToolResult{
			Status:   model.ToolStatusOK,
			Response: "Detailed response from " + name,
		}, nil
	})
}

// GetToolInfos collects ToolInfo from tools.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
