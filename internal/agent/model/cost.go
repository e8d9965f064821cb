package model

import "github.com/cloudwego/eino/schema"

// Pricing is the USD price per one million text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// UsageCost is the USD cost of a single model call.
type UsageCost struct {
	Input  float64
	Output float64
}

func (c UsageCost) Total() float64 {
	return c.Input + c.Output
}

var modelPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gpt-4o":                {InputPerM: 2.50, OutputPerM: 10.00},
	"gpt-4o-mini":           {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4.1-mini":          {InputPerM: 0.40, OutputPerM: 1.60},
}

// PricingFor looks up the price list of a model. Unknown models are free,
// so their calls log tokens with a zero cost.
func PricingFor(modelName string) (Pricing, bool) {
	p, ok := modelPricing[modelName]
	return p, ok
}

// Cost prices the token usage reported by a model response.
func (p Pricing) Cost(usage *schema.TokenUsage) UsageCost {
	if usage == nil {
		return UsageCost{}
	}
	const perM = 1_000_000.0
	return UsageCost{
		Input:  p.InputPerM * float64(usage.PromptTokens) / perM,
		Output: p.OutputPerM * float64(usage.CompletionTokens) / perM,
	}
}
