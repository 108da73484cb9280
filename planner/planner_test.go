package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
	"github.com/verdantlabs/gardener/planner"
)

// stubCompleter returns a fixed reply or error.
type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, messages []core.Message) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestCreatePlan_Categories(t *testing.T) {
	p := planner.New(nil, zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		query         string
		wantType      core.PlanType
		requiresTools bool
	}{
		{"Should I water my plants today in New York?", core.PlanWeatherCheck, true},
		{"Remind me to water roses every 3 days", core.PlanReminder, true},
		{"Calculate how much water for 5 plants", core.PlanCalculation, true},
		{"Search for rare orchid care tips", core.PlanSearch, true},
		{"How to grow basil indoors", core.PlanPlantCare, false},
	}

	for _, tc := range cases {
		plan := p.CreatePlan(ctx, tc.query, "")
		assert.Equal(t, tc.wantType, plan.Type, "query %q", tc.query)
		assert.Equal(t, tc.requiresTools, plan.RequiresTools, "query %q", tc.query)
		assert.NotEmpty(t, plan.Steps, "query %q", tc.query)
	}
}

func TestCreatePlan_IndonesianKeywords(t *testing.T) {
	p := planner.New(nil, zap.NewNop())
	ctx := context.Background()

	plan := p.CreatePlan(ctx, "Tolong buat jadwal menyiram mawar", "")
	assert.Equal(t, core.PlanReminder, plan.Type)
	assert.True(t, plan.RequiresTools)

	plan = p.CreatePlan(ctx, "Bagaimana cuaca hari ini?", "")
	assert.Equal(t, core.PlanWeatherCheck, plan.Type)
}

func TestCreatePlan_WeatherWinsTieBreak(t *testing.T) {
	p := planner.New(nil, zap.NewNop())

	// Matches both weather and plant_care keywords; the fixed priority
	// order classifies it as weather_check.
	plan := p.CreatePlan(context.Background(), "Should I water my plant if rain is coming?", "")
	assert.Equal(t, core.PlanWeatherCheck, plan.Type)
}

func TestCreatePlan_GenerativeFallbackJSON(t *testing.T) {
	stub := &stubCompleter{
		reply: `Here is the plan: {"type": "general", "steps": ["Greet the user", "Answer"], "requires_tools": false, "estimated_complexity": "low"}`,
	}
	p := planner.New(stub, zap.NewNop())

	plan := p.CreatePlan(context.Background(), "Hello there!", "")
	require.Equal(t, 1, stub.calls)
	assert.Equal(t, core.PlanGeneral, plan.Type)
	assert.Equal(t, []string{"Greet the user", "Answer"}, plan.Steps)
	assert.Equal(t, core.ComplexityLow, plan.Complexity)
}

func TestCreatePlan_HeuristicFallback(t *testing.T) {
	stub := &stubCompleter{reply: "Greet the user\n\nAsk about their garden\n"}
	p := planner.New(stub, zap.NewNop())

	plan := p.CreatePlan(context.Background(), "Hello there!", "")
	assert.Equal(t, core.PlanLLMGenerated, plan.Type)
	assert.Equal(t, []string{"Greet the user", "Ask about their garden"}, plan.Steps)
}

func TestCreatePlan_StaticFallbackOnCompletionFailure(t *testing.T) {
	stub := &stubCompleter{err: errors.New("rate limited")}
	p := planner.New(stub, zap.NewNop())

	plan := p.CreatePlan(context.Background(), "Hello there!", "")
	assert.Equal(t, core.PlanFallbackGeneral, plan.Type)
	assert.NotEmpty(t, plan.Steps)
}

func TestCreatePlan_NoCompleter(t *testing.T) {
	p := planner.New(nil, zap.NewNop())

	plan := p.CreatePlan(context.Background(), "Hello there!", "")
	assert.Equal(t, core.PlanFallbackGeneral, plan.Type)
}

func TestAdjustPlan(t *testing.T) {
	original := core.Plan{
		Query:      "check weather",
		Type:       core.PlanWeatherCheck,
		Steps:      []string{"Check current weather"},
		Complexity: core.ComplexityMedium,
	}

	adjusted := planner.AdjustPlan(original, "Tool execution failed: timeout")
	assert.Equal(t, core.ComplexityHigh, adjusted.Complexity)
	assert.Equal(t, "Retry with alternative approach", adjusted.Steps[len(adjusted.Steps)-1])

	// Pure: the input plan is untouched.
	assert.Len(t, original.Steps, 1)
	assert.Equal(t, core.ComplexityMedium, original.Complexity)

	unchanged := planner.AdjustPlan(original, "all good")
	assert.Equal(t, original, unchanged)
}
