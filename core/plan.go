package core

// PlanType classifies a query's intent. The keyword categories are
// evaluated in a fixed priority order by the planner; the remaining
// values tag the degradation tiers of the generative fallback.
type PlanType string

const (
	PlanWeatherCheck PlanType = "weather_check"
	PlanReminder     PlanType = "reminder"
	PlanCalculation  PlanType = "calculation"
	PlanSearch       PlanType = "search"
	PlanPlantCare    PlanType = "plant_care"
	PlanGeneral      PlanType = "general"

	// PlanLLMGenerated tags a plan recovered from unstructured model
	// output via the line-split heuristic.
	PlanLLMGenerated PlanType = "llm_generated"

	// PlanFallbackGeneral is the static last-resort plan used when the
	// generative fallback itself fails.
	PlanFallbackGeneral PlanType = "fallback_general"
)

// Complexity is the planner's rough effort estimate for a query.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Plan is the transient per-turn output of the planner. It is used for
// logging and telemetry; it never drives the orchestration control flow.
type Plan struct {
	Query         string
	Type          PlanType
	Steps         []string
	RequiresTools bool
	Complexity    Complexity
}
