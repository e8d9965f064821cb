package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/longevity-agent/server/internal/agent/model"
	logx "github.com/longevity-agent/server/pkg/logger"
)

const maxContentLen = 64 * 1024

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ParseRoutingDecision turns raw router model text into a RouterOutput. It never
// fails: anything it cannot make sense of becomes a rejection carrying Error.
func ParseRoutingDecision(content string) (out model.RouterOutput) {
	defer func() {
		if r := recover(); r != nil {
			out = parseFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "router_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	text := stripFences(strings.TrimSpace(content))

	var raw struct {
		Decision         string  `json:"decision"`
		Reasoning        *string `json:"reasoning"`
		RejectionMessage string  `json:"rejection_message"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		sanitized := trailingComma.ReplaceAllString(text, "$1")
		if err2 := json.Unmarshal([]byte(sanitized), &raw); err2 != nil {
			return parseFailure(err2)
		}
	}

	route, err := model.ParseRoute(raw.Decision)
	if err != nil {
		return parseFailure(err)
	}
	if raw.Reasoning == nil {
		return parseFailure(errors.New("reasoning: field required"))
	}

	logx.Info().
		Str("component", "router_parser").
		Str("route", route.String()).
		Str("reasoning", *raw.Reasoning).
		Msg("routing decision")

	return model.RouterOutput{
		Decision:         route,
		Reasoning:        *raw.Reasoning,
		RejectionMessage: strings.TrimSpace(raw.RejectionMessage),
	}
}

// stripFences unwraps a ```json ... ``` or ``` ... ``` block.
func stripFences(s string) string {
	var rest string
	switch {
	case strings.HasPrefix(s, "```json"):
		rest = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		rest = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	if idx := strings.Index(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

func parseFailure(err error) model.RouterOutput {
	msg := "parse_routing_decision Error: " + err.Error()
	logx.Error().Str("component", "router_parser").Err(err).Msg("parse_routing_decision failed")
	return model.RouterOutput{
		Decision:  model.RouteRejected,
		Reasoning: "error parsing routing decision",
		Error:     msg,
	}
}
