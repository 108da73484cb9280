// Package tools holds the callable capabilities the agent can invoke by
// name: weather lookup, arithmetic evaluation, reminder scheduling, and
// web search. Dispatch never lets a handler failure escape: every
// failure mode terminates as a descriptive core.Result.
package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/verdantlabs/gardener/core"
	"github.com/verdantlabs/gardener/search"
	"github.com/verdantlabs/gardener/weather"
)

// Kind enumerates the closed set of tools. Dispatch switches on Kind
// rather than an open-ended name lookup; unknown names still take the
// soft-failure path.
type Kind int

const (
	KindUnknown Kind = iota
	KindWeather
	KindCalculator
	KindReminder
	KindSearch
)

// ParseKind normalizes a tool name (case, surrounding whitespace) and
// maps it onto the closed kind set.
func ParseKind(name string) Kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "weather":
		return KindWeather
	case "calculator":
		return KindCalculator
	case "reminder":
		return KindReminder
	case "search":
		return KindSearch
	default:
		return KindUnknown
	}
}

// WeatherService is the external weather capability.
type WeatherService interface {
	Fetch(ctx context.Context, location string) (weather.Report, error)
}

// SearchService is the external web-search capability.
type SearchService interface {
	Search(ctx context.Context, query string, maxResults int) ([]search.Item, error)
}

const weatherCacheTTL = 10 * time.Minute

// Dispatcher executes tools by name. Construct once with the external
// clients; a nil weather or search client degrades that tool to a
// descriptive failure message.
type Dispatcher struct {
	weather       WeatherService
	searcher      SearchService
	reminders     *ReminderStore
	searchEnabled bool

	cache  *ristretto.Cache
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher. The ristretto cache fronts the
// weather service so repeated location lookups within a turn burst skip
// the network round trip.
func NewDispatcher(ws WeatherService, ss SearchService, reminders *ReminderStore, searchEnabled bool, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create weather cache: %w", err)
	}

	return &Dispatcher{
		weather:       ws,
		searcher:      ss,
		reminders:     reminders,
		searchEnabled: searchEnabled,
		cache:         cache,
		logger:        logger,
	}, nil
}

// Descriptions returns the tool list injected into the system prompt.
func (d *Dispatcher) Descriptions() string {
	return `1. weather: location - Get current weather for a location
   Example: weather: New York

2. calculator: expression - Calculate water needs, pH, etc.
   Example: calculator: 5 * 2.5 (liters per plant)

3. reminder: schedule - Set watering reminder
   Example: reminder: Water tomatoes every 3 days

4. search: query - Search for plant information online
   Example: search: rare orchid care tips`
}

// Execute dispatches a tool by name. It never panics past this boundary
// and never returns an error: tool failure is a value, not a fault of
// the orchestration loop.
func (d *Dispatcher) Execute(ctx context.Context, name, params, userID string) (result core.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
			result = core.SoftFailure(fmt.Sprintf("Tool execution failed: %v", r))
		}
	}()

	kind := ParseKind(name)
	d.logger.Info("executing tool",
		zap.String("tool", name), zap.String("params", params), zap.String("user", userID))

	switch kind {
	case KindWeather:
		return d.getWeather(ctx, params)
	case KindCalculator:
		return calculate(params)
	case KindReminder:
		return d.setReminder(params, userID)
	case KindSearch:
		return d.searchWeb(ctx, params)
	default:
		return core.SoftFailure("Unknown tool: " + strings.TrimSpace(name))
	}
}

// getWeather fetches conditions for a location and derives a watering
// recommendation from simple thresholds.
func (d *Dispatcher) getWeather(ctx context.Context, location string) core.Result {
	location = strings.TrimSpace(location)
	if d.weather == nil {
		return core.SoftFailure("Weather API key not configured")
	}

	cacheKey := strings.ToLower(location)
	if cached, ok := d.cache.Get(cacheKey); ok {
		if report, ok := cached.(weather.Report); ok {
			return core.Success(formatWeather(location, report))
		}
	}

	report, err := d.weather.Fetch(ctx, location)
	if err != nil {
		d.logger.Error("weather fetch failed", zap.String("location", location), zap.Error(err))
		return core.SoftFailure(fmt.Sprintf("Could not retrieve weather for %s. Please check the location name.", location))
	}

	d.cache.SetWithTTL(cacheKey, report, 1, weatherCacheTTL)
	return core.Success(formatWeather(location, report))
}

func formatWeather(location string, r weather.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s:\n", location)
	fmt.Fprintf(&b, "Temperature: %.1f°C (feels like %.1f°C)\n", r.Temperature, r.FeelsLike)
	fmt.Fprintf(&b, "Conditions: %s\n", r.Description)
	fmt.Fprintf(&b, "Humidity: %d%%\n", r.Humidity)
	fmt.Fprintf(&b, "Wind: %.1f m/s\n\n", r.WindSpeed)
	b.WriteString(wateringAdvice(r))
	return b.String()
}

// wateringAdvice maps conditions onto a recommendation: dry or hot means
// extra water, precipitation means skip, anything else keeps the
// routine schedule.
func wateringAdvice(r weather.Report) string {
	switch {
	case r.Humidity < 40 || r.Temperature > 30:
		return "Plants may need extra watering due to dry/hot conditions."
	case isPrecipitation(r.Description):
		return "Rain expected - you can skip watering today."
	default:
		return "Good conditions for regular watering schedule."
	}
}

func isPrecipitation(description string) bool {
	lowered := strings.ToLower(description)
	for _, cond := range []string{"rain", "drizzle", "thunderstorm"} {
		if strings.Contains(lowered, cond) {
			return true
		}
	}
	return false
}

// setReminder appends a reminder for the user. The user key is required;
// its absence is a malformed-input failure, detected before any storage
// access.
func (d *Dispatcher) setReminder(schedule, userID string) core.Result {
	if userID == "" {
		return core.SoftFailure("User ID required for reminders")
	}

	schedule = strings.TrimSpace(schedule)
	r, err := d.reminders.Add(userID, schedule)
	if err != nil {
		d.logger.Error("failed to set reminder", zap.String("user", userID), zap.Error(err))
		return core.SoftFailure(fmt.Sprintf("Failed to set reminder: %v", err))
	}
	return core.Success("Reminder set: " + r.Schedule)
}

// searchWeb queries the search capability for the top results.
func (d *Dispatcher) searchWeb(ctx context.Context, query string) core.Result {
	if !d.searchEnabled || d.searcher == nil {
		return core.SoftFailure("Web search is not enabled. Enable it in the configuration to use this feature.")
	}

	items, err := d.searcher.Search(ctx, query, 3)
	if err != nil {
		d.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return core.SoftFailure(fmt.Sprintf("Search failed: %v", err))
	}
	if len(items) == 0 {
		return core.Success("No results found")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for '%s':\n\n", query)
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item.Title)
		fmt.Fprintf(&b, "   %s\n", snippet(item.Snippet, 150))
		fmt.Fprintf(&b, "   %s\n\n", item.URL)
	}
	return core.Success(b.String())
}

func snippet(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// UserReminders returns the user's stored reminders.
func (d *Dispatcher) UserReminders(userID string) ([]Reminder, error) {
	return d.reminders.ForUser(userID)
}

// ClearUserReminders removes every reminder belonging to the user.
func (d *Dispatcher) ClearUserReminders(userID string) error {
	return d.reminders.Clear(userID)
}
