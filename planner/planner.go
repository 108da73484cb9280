// Package planner classifies user queries into intent categories and
// produces step plans, using fast keyword matching with a generative
// fallback for unmatched input.
package planner

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
)

// rule pairs a plan type with its trigger keywords. Keyword sets carry
// English and Indonesian spellings as alternates within the same category.
type rule struct {
	planType core.PlanType
	keywords []string
}

// rules is evaluated in order, first match wins. The ordering is a
// designed priority: a query matching both weather and plant-care
// keywords classifies as weather_check.
var rules = []rule{
	{core.PlanWeatherCheck, []string{
		"weather", "rain", "temperature", "forecast", "should i water",
		"cuaca", "hujan", "suhu", "ramalan",
	}},
	{core.PlanReminder, []string{
		"remind", "schedule", "set reminder", "notify",
		"jadwal", "ingatkan", "pengingat",
	}},
	{core.PlanCalculation, []string{
		"calculate", "how much", "how many", "liters", "gallons",
		"hitung", "berapa",
	}},
	{core.PlanSearch, []string{
		"search", "find", "look up", "information about",
		"cari", "telusuri",
	}},
	{core.PlanPlantCare, []string{
		"how to", "care for", "grow", "plant", "water frequency", "sunlight",
		"tanaman", "merawat", "menanam",
	}},
}

// Planner builds step plans for queries. The completer is optional; when
// absent, unmatched queries get the static fallback plan directly.
type Planner struct {
	llm    core.Completer
	logger *zap.Logger
}

// New creates a Planner. llm may be nil.
func New(llm core.Completer, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: llm, logger: logger}
}

// CreatePlan classifies the query and returns a step plan. It never
// returns an error: every failure mode degrades to a usable plan.
func (p *Planner) CreatePlan(ctx context.Context, query, contextText string) core.Plan {
	lowered := strings.ToLower(query)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lowered, kw) {
				plan := templatePlan(r.planType, query)
				p.logger.Debug("plan created",
					zap.String("type", string(plan.Type)),
					zap.Strings("steps", plan.Steps))
				return plan
			}
		}
	}

	return p.generativePlan(ctx, query, contextText)
}

// templatePlan fills the fixed step template for a matched category.
func templatePlan(t core.PlanType, query string) core.Plan {
	plan := core.Plan{Query: query, Type: t}

	switch t {
	case core.PlanWeatherCheck:
		plan.Steps = []string{"Check current weather", "Analyze if watering is needed", "Provide recommendation"}
		plan.RequiresTools = true
		plan.Complexity = core.ComplexityMedium
	case core.PlanReminder:
		plan.Steps = []string{"Parse schedule details", "Create reminder", "Confirm with user"}
		plan.RequiresTools = true
		plan.Complexity = core.ComplexityLow
	case core.PlanCalculation:
		plan.Steps = []string{"Parse calculation request", "Execute calculation", "Explain result"}
		plan.RequiresTools = true
		plan.Complexity = core.ComplexityLow
	case core.PlanSearch:
		plan.Steps = []string{"Search for information", "Summarize findings", "Provide answer"}
		plan.RequiresTools = true
		plan.Complexity = core.ComplexityMedium
	case core.PlanPlantCare:
		plan.Steps = []string{"Identify plant", "Retrieve care knowledge", "Provide personalized advice"}
		plan.Complexity = core.ComplexityMedium
	default:
		plan.Steps = []string{"Understand query", "Check memory for context", "Provide helpful response"}
		plan.Complexity = core.ComplexityLow
	}
	return plan
}

// generatedPlan mirrors the JSON object the model is asked to emit.
type generatedPlan struct {
	Type          string   `json:"type"`
	Steps         []string `json:"steps"`
	RequiresTools bool     `json:"requires_tools"`
	Complexity    string   `json:"estimated_complexity"`
}

const planPrompt = `Classify the user query below and produce a short plan.
Respond with a single JSON object of the form:
{"type": "<category>", "steps": ["..."], "requires_tools": <bool>, "estimated_complexity": "low|medium|high"}

Return only the JSON object, no other text.`

// generativePlan asks the model for a structured plan and degrades
// through heuristic parsing to a static default. Three tiers: structured
// parse, line-split heuristic, fixed fallback.
func (p *Planner) generativePlan(ctx context.Context, query, contextText string) core.Plan {
	if p.llm == nil {
		return fallbackPlan(query)
	}

	prompt := planPrompt + "\n\nQuery: " + query
	if contextText != "" {
		prompt += "\n\nContext:\n" + contextText
	}

	reply, err := p.llm.Complete(ctx, []core.Message{
		core.SystemMessage("You are a planning assistant for a garden advisor agent."),
		core.UserMessage(prompt),
	})
	if err != nil {
		p.logger.Warn("plan generation failed", zap.Error(err))
		return fallbackPlan(query)
	}

	if plan, ok := parseGeneratedPlan(query, reply); ok {
		return plan
	}
	return heuristicPlan(query, reply)
}

// parseGeneratedPlan extracts the first brace-balanced JSON substring
// from the reply and decodes it.
func parseGeneratedPlan(query, reply string) (core.Plan, bool) {
	raw, ok := extractJSONObject(reply)
	if !ok {
		return core.Plan{}, false
	}

	var gen generatedPlan
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		return core.Plan{}, false
	}
	if gen.Type == "" || len(gen.Steps) == 0 {
		return core.Plan{}, false
	}

	complexity := core.Complexity(gen.Complexity)
	switch complexity {
	case core.ComplexityLow, core.ComplexityMedium, core.ComplexityHigh:
	default:
		complexity = core.ComplexityMedium
	}

	return core.Plan{
		Query:         query,
		Type:          core.PlanType(gen.Type),
		Steps:         gen.Steps,
		RequiresTools: gen.RequiresTools,
		Complexity:    complexity,
	}, true
}

// extractJSONObject returns the first well-formed brace-delimited
// substring of s. Braces inside JSON strings are not special-cased; the
// subsequent unmarshal rejects any mis-extraction.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// heuristicPlan treats each non-blank reply line as a step.
func heuristicPlan(query, reply string) core.Plan {
	var steps []string
	for _, line := range strings.Split(reply, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	if len(steps) == 0 {
		return fallbackPlan(query)
	}

	return core.Plan{
		Query:      query,
		Type:       core.PlanLLMGenerated,
		Steps:      steps,
		Complexity: core.ComplexityMedium,
	}
}

// fallbackPlan is the static last-resort plan.
func fallbackPlan(query string) core.Plan {
	return core.Plan{
		Query:      query,
		Type:       core.PlanFallbackGeneral,
		Steps:      []string{"Understand query", "Check memory for context", "Provide helpful response"},
		Complexity: core.ComplexityLow,
	}
}

// AdjustPlan returns a copy of plan revised for the given feedback. When
// the feedback carries failure indicators, a retry step is appended and
// the complexity raised to high. Pure: the input plan is not mutated.
func AdjustPlan(plan core.Plan, feedback string) core.Plan {
	lowered := strings.ToLower(feedback)
	if !strings.Contains(lowered, "error") && !strings.Contains(lowered, "failed") {
		return plan
	}

	adjusted := plan
	adjusted.Steps = append(append([]string(nil), plan.Steps...), "Retry with alternative approach")
	adjusted.Complexity = core.ComplexityHigh
	return adjusted
}
