package orchestrator

import (
	"github.com/nidhogg/atrium/internal/intent"
	"github.com/nidhogg/atrium/internal/relevance"
	"github.com/nidhogg/atrium/internal/subagent"
)

// Strategy selects how a request is processed.
type Strategy string

const (
	StrategyDirect   Strategy = "direct_response"
	StrategySingle   Strategy = "single_subagent"
	StrategyMulti    Strategy = "multi_subagent"
	StrategyWorkflow Strategy = "complex_workflow"
	// StrategyFallback is only ever reported, never chosen: it marks a
	// result produced by the top-level failure handler.
	StrategyFallback Strategy = "fallback"
)

// Decision is the processing plan computed once per request and consumed
// immediately; it is not retained afterward.
type Decision struct {
	Strategy        Strategy           `json:"strategy"`
	AssignedAgents  []string           `json:"assigned_agents"`
	ContextSources  []relevance.Source `json:"context_sources"`
	ProcessingPlan  string             `json:"processing_plan"`
	EstimatedTimeMs int                `json:"estimated_time_ms"`
}

// ResultMetadata is the structured half of an orchestration result.
type ResultMetadata struct {
	RequestID        string                     `json:"request_id"`
	Strategy         Strategy                   `json:"strategy"`
	Intent           intent.Intent              `json:"intent"`
	ContextRelevance relevance.ContextRelevance `json:"context_relevance"`
	AgentsUsed       []string                   `json:"agents_used"`
	ProcessingTimeMs int64                      `json:"processing_time_ms"`
	Confidence       float64                    `json:"confidence"`
}

// DebugInfo is attached to results only when the orchestrator was
// constructed with Debug enabled.
type DebugInfo struct {
	Logs            []string           `json:"logs,omitempty"`
	RawAgentResults []*subagent.Result `json:"raw_agent_results,omitempty"`
	Reasoning       string             `json:"reasoning,omitempty"`
}

// Result is the externally visible output of the whole core.
type Result struct {
	Success  bool           `json:"success"`
	Response string         `json:"response"`
	Metadata ResultMetadata `json:"metadata"`
	Debug    *DebugInfo     `json:"debug,omitempty"`
}
