package orchestrator

import (
	"fmt"
	"strings"

	"github.com/nidhogg/atrium/internal/intent"
	"github.com/nidhogg/atrium/internal/relevance"
	"github.com/nidhogg/atrium/internal/subagent"
)

// Per-strategy latency estimates, purely informational.
const (
	estimateDirectMs   = 100
	estimatePerAgentMs = 1500
)

// decide maps a classified intent and its relevance verdict to a
// processing plan. Deterministic: the same inputs always produce the same
// Decision.
func (o *Orchestrator) decide(in intent.Intent, rel relevance.ContextRelevance) Decision {
	switch in.Category {
	case intent.CategoryGreeting, intent.CategoryCasual:
		return Decision{
			Strategy:        StrategyDirect,
			AssignedAgents:  []string{},
			ProcessingPlan:  "reply directly, no external context",
			EstimatedTimeMs: estimateDirectMs,
		}

	case intent.CategoryWorkQuery:
		// One agent even when several sources are required: route through
		// the first mapped source, the best concrete adapter we have.
		first := string(rel.RequiredSources[0])
		return Decision{
			Strategy:        StrategySingle,
			AssignedAgents:  []string{first},
			ContextSources:  rel.RequiredSources,
			ProcessingPlan:  fmt.Sprintf("fetch context from %s, then answer", first),
			EstimatedTimeMs: estimateDirectMs + estimatePerAgentMs,
		}

	case intent.CategoryComplexAnalysis:
		agents := make([]string, len(rel.RequiredSources))
		for i, s := range rel.RequiredSources {
			agents[i] = string(s)
		}
		if len(agents) == 1 {
			return Decision{
				Strategy:        StrategySingle,
				AssignedAgents:  agents,
				ContextSources:  rel.RequiredSources,
				ProcessingPlan:  fmt.Sprintf("deep analysis via %s", agents[0]),
				EstimatedTimeMs: estimateDirectMs + estimatePerAgentMs,
			}
		}
		return Decision{
			Strategy:        StrategyMulti,
			AssignedAgents:  agents,
			ContextSources:  rel.RequiredSources,
			ProcessingPlan:  fmt.Sprintf("query %d sources in parallel, merge results", len(agents)),
			EstimatedTimeMs: estimateDirectMs + estimatePerAgentMs*len(agents),
		}

	default:
		// Unknown intents take the workflow path, which today degrades to
		// one default agent invocation. The name documents the gap: no
		// real multi-step planning happens here.
		return Decision{
			Strategy:        StrategyWorkflow,
			AssignedAgents:  []string{o.opts.DefaultAgent},
			ContextSources:  []relevance.Source{relevance.Source(o.opts.DefaultAgent)},
			ProcessingPlan:  "unclear intent: consult the default collaboration source",
			EstimatedTimeMs: estimateDirectMs + estimatePerAgentMs,
		}
	}
}

// pickAction chooses one agent action by keyword sniffing of the message.
func pickAction(message string, rel relevance.ContextRelevance) subagent.Action {
	lower := strings.ToLower(message)
	switch {
	case rel.ResponseType == relevance.ResponseDetailedAnalysis,
		strings.Contains(lower, "analyze"), strings.Contains(lower, "analyse"),
		strings.Contains(lower, "summarize"), strings.Contains(lower, "分析"),
		strings.Contains(lower, "总结"):
		return subagent.ActionAnalyze
	case strings.Contains(lower, "search"), strings.Contains(lower, "find"),
		strings.Contains(lower, "查"), strings.Contains(lower, "找"):
		return subagent.ActionSearch
	default:
		return subagent.ActionRecent
	}
}
