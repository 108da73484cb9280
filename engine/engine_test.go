package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
	"github.com/verdantlabs/gardener/memory"
	"github.com/verdantlabs/gardener/memory/store/chromem"
	"github.com/verdantlabs/gardener/planner"
	"github.com/verdantlabs/gardener/tools"
	"github.com/verdantlabs/gardener/weather"
)

// scriptedCompleter replies in call order from fixed scripts. A nil
// entry in errs means that call succeeds.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   [][]core.Message
}

func (s *scriptedCompleter) Complete(ctx context.Context, messages []core.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.calls)
	s.calls = append(s.calls, messages)

	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

type fakeWeather struct {
	location string
	report   weather.Report
}

func (f *fakeWeather) Fetch(ctx context.Context, location string) (weather.Report, error) {
	f.location = location
	return f.report, nil
}

func newTestAgent(t *testing.T, llm core.Completer, ws tools.WeatherService) (*Agent, *memory.Manager) {
	t.Helper()
	ctx := context.Background()

	store, err := chromem.New("", memory.LocalEmbedding(64))
	require.NoError(t, err)

	mem, err := memory.NewManager(ctx, store, zap.NewNop())
	require.NoError(t, err)

	reminders, err := tools.NewReminderStore(filepath.Join(t.TempDir(), "reminders.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { reminders.Close() })

	dispatcher, err := tools.NewDispatcher(ws, nil, reminders, false, zap.NewNop())
	require.NoError(t, err)

	return NewAgent(llm, mem, planner.New(llm, zap.NewNop()), dispatcher, zap.NewNop()), mem
}

func TestProcessMessage_WeatherTurn(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Thought: I should check the current weather before advising.\nAction: weather: New York",
		"Observation: It is hot and dry.\nAnswer: It's 35°C with low humidity in New York, so give your plants extra watering today.",
		"It's a hot, dry day in New York, so your plants will appreciate some extra water today.",
	}}
	fw := &fakeWeather{report: weather.Report{
		Temperature: 35, FeelsLike: 37, Humidity: 30, Description: "clear sky", WindSpeed: 2,
	}}
	agent, mem := newTestAgent(t, llm, fw)
	ctx := context.Background()

	reply := agent.ProcessMessage(ctx, "u1", "Should I water my plants today in New York?")

	assert.Equal(t, "New York", fw.location)
	assert.Contains(t, reply, "extra water")

	// The tool observation is fed back for the final completion.
	require.Len(t, llm.calls, 3)
	finalPrompt := llm.calls[1][len(llm.calls[1])-1].Content
	assert.Contains(t, finalPrompt, "Observation:")
	assert.Contains(t, finalPrompt, "extra watering")

	// A successful turn commits both memory tiers.
	buf := mem.ShortTerm("u1")
	require.Len(t, buf, 2)
	assert.Equal(t, "Should I water my plants today in New York?", buf[0].Content)
	assert.Equal(t, reply, buf[1].Content)
	assert.Contains(t, mem.QueryLongTerm(ctx, "u1", "watering in New York", 3), "New York")
}

func TestProcessMessage_NoActionSkipsTools(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Thought: This needs no tool.\nAnswer: Basil loves warm sun and regular watering.",
		"Basil loves warm sun and regular watering.",
	}}
	agent, _ := newTestAgent(t, llm, nil)

	reply := agent.ProcessMessage(context.Background(), "u1", "How to grow basil indoors?")
	assert.Equal(t, "Basil loves warm sun and regular watering.", reply)
	assert.Len(t, llm.calls, 2)
}

func TestProcessMessage_ReflectionFailureKeepsAnswer(t *testing.T) {
	llm := &scriptedCompleter{
		replies: []string{
			"Answer: Basil needs 6 hours of sunlight daily.",
			"",
		},
		errs: []error{nil, errors.New("rate limited")},
	}
	agent, _ := newTestAgent(t, llm, nil)

	reply := agent.ProcessMessage(context.Background(), "u1", "How to grow basil indoors?")
	assert.Equal(t, "Basil needs 6 hours of sunlight daily.", reply)
}

func TestProcessMessage_EmptyReflectionKeepsAnswer(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Answer: Basil needs 6 hours of sunlight daily.",
		"   \n",
	}}
	agent, _ := newTestAgent(t, llm, nil)

	reply := agent.ProcessMessage(context.Background(), "u1", "How to grow basil indoors?")
	assert.Equal(t, "Basil needs 6 hours of sunlight daily.", reply)
}

func TestProcessMessage_CompletionFailureYieldsApology(t *testing.T) {
	llm := &scriptedCompleter{errs: []error{errors.New("connection reset")}}
	agent, mem := newTestAgent(t, llm, nil)

	reply := agent.ProcessMessage(context.Background(), "u1", "How to grow basil indoors?")
	assert.Equal(t, ApologyMessage, reply)

	// Failed turns never reach the memory commit.
	assert.Empty(t, mem.ShortTerm("u1"))
}

func TestProcessMessage_RecoversFromPanic(t *testing.T) {
	agent, mem := newTestAgent(t, panickyCompleter{}, nil)

	reply := agent.ProcessMessage(context.Background(), "u1", "How to grow basil indoors?")
	assert.Equal(t, ApologyMessage, reply)
	assert.Empty(t, mem.ShortTerm("u1"))
}

type panickyCompleter struct{}

func (panickyCompleter) Complete(ctx context.Context, messages []core.Message) (string, error) {
	panic("boom")
}

func TestClearUser(t *testing.T) {
	llm := &scriptedCompleter{replies: []string{
		"Answer: Tomatoes like deep, infrequent watering.",
		"Tomatoes like deep, infrequent watering.",
	}}
	agent, mem := newTestAgent(t, llm, nil)
	ctx := context.Background()

	agent.ProcessMessage(ctx, "u1", "How often should I water my tomato plants?")
	require.NotEmpty(t, mem.ShortTerm("u1"))

	agent.ClearUser(ctx, "u1")
	assert.Empty(t, mem.ShortTerm("u1"))
	assert.Empty(t, agent.UserPlants(ctx, "u1"))
}

func TestExtractAction(t *testing.T) {
	name, params, ok := extractAction("Thought: need weather\nAction: weather: New York\nAnswer: pending")
	require.True(t, ok)
	assert.Equal(t, "weather", name)
	assert.Equal(t, "New York", params)

	// Parameters keep their own colons.
	name, params, ok = extractAction("Action: reminder: Water tomatoes at 08:00 daily")
	require.True(t, ok)
	assert.Equal(t, "reminder", name)
	assert.Equal(t, "Water tomatoes at 08:00 daily", params)

	_, _, ok = extractAction("Thought: no tool needed\nAnswer: done")
	assert.False(t, ok)

	// Marker without a name/params separator is not an action.
	_, _, ok = extractAction("Action: weather")
	assert.False(t, ok)
}

func TestExtractAnswer(t *testing.T) {
	assert.Equal(t, "Water daily.",
		extractAnswer("Thought: x\nObservation: y\nAnswer: Water daily."))
	assert.Equal(t, "Plain reflected text.", extractAnswer("  Plain reflected text. \n"))
}
