package intent

// Category classifies what a user message is asking for.
type Category string

const (
	CategoryGreeting        Category = "greeting"
	CategoryCasual          Category = "casual"
	CategoryWorkQuery       Category = "work_query"
	CategoryComplexAnalysis Category = "complex_analysis"
	CategoryUnknown         Category = "unknown"
)

// Timeframe is a normalized temporal window extracted from a message.
type Timeframe string

const (
	TimeframeToday     Timeframe = "today"
	TimeframeYesterday Timeframe = "yesterday"
	TimeframeThisWeek  Timeframe = "this_week"
	TimeframeThisMonth Timeframe = "this_month"
)

// Scope is the organizational reach a query refers to.
type Scope string

const (
	ScopePersonal     Scope = "personal"
	ScopeTeam         Scope = "team"
	ScopeProject      Scope = "project"
	ScopeOrganization Scope = "organization"
)

// Intent is the classification result for a single message.
// Created fresh per message and never persisted.
type Intent struct {
	Category   Category  `json:"category"`
	Confidence float64   `json:"confidence"`
	Entities   []string  `json:"entities"`
	Timeframe  Timeframe `json:"timeframe,omitempty"`
	Scope      Scope     `json:"scope,omitempty"`
}
