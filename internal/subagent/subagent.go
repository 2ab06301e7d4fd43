// Package subagent defines the data-source agent contract and the
// concrete adapters that fetch context from external integrations.
package subagent

import (
	"context"
	"fmt"
	"time"
)

// Action is one of the fixed operations every source agent exposes.
type Action string

const (
	ActionSearch          Action = "search"
	ActionRecent          Action = "recent_activity"
	ActionAnalyze         Action = "analyze"
	ActionNotify          Action = "notify"
	ActionChannelActivity Action = "channel_activity"
	ActionKeyDiscussions  Action = "key_discussions"
)

// Params carries the inputs for a single action invocation.
type Params struct {
	Query     string `json:"query,omitempty"`
	Timeframe string `json:"timeframe,omitempty"` // day | week | month
	Channel   string `json:"channel,omitempty"`
	Text      string `json:"text,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Metadata describes one agent invocation.
type Metadata struct {
	AgentType        string `json:"agent_type"`
	Action           Action `json:"action"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	DataSource       string `json:"data_source"`
}

// Result is the outcome of a single agent action. Errors never propagate
// out of an agent; they are folded into Success=false with the same
// metadata shape as success.
type Result struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Metadata Metadata `json:"metadata"`
	Error    string   `json:"error,omitempty"`
}

// Agent is a per-integration adapter over one external data source.
type Agent interface {
	Type() string
	Execute(ctx context.Context, action Action, params Params) *Result
}

// Factory constructs an agent for a source type bound to one workspace.
// The orchestrator caches what a factory returns per (source, contextID).
type Factory func(source, contextID string) Agent

// Message is a normalized chat message from any integration.
type Message struct {
	Channel   string    `json:"channel"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MessagesData is the payload for search / recent-activity style actions.
// Source records where the data came from: local_database, slack_api, or
// none when no connector was available.
type MessagesData struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	Source   string    `json:"source"`
	Query    string    `json:"query,omitempty"`
}

// NameCount is a ranked (name, message count) pair.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// HourCount is a (hour-of-day, message count) bucket.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// AnalysisData is the payload produced by the analyze action.
type AnalysisData struct {
	Sentiment       string      `json:"sentiment"`
	SentimentScore  float64     `json:"sentiment_score"`
	TaskCount       int         `json:"task_count"`
	UrgentTaskCount int         `json:"urgent_task_count"`
	Summary         string      `json:"summary"`
	PeakHours       []HourCount `json:"peak_hours"`
	TopChannels     []NameCount `json:"top_channels"`
	TopUsers        []NameCount `json:"top_users"`
	Insights        []string    `json:"insights"`
	Recommendations []string    `json:"recommendations"`
	TimeframeDays   int         `json:"timeframe_days"`
}

// StubAgent stands in for source types that have no adapter yet. Every
// action reports a structured failure so a multi-agent batch can record
// the gap without aborting siblings.
type StubAgent struct {
	source    string
	contextID string
}

// NewStubAgent creates a placeholder agent for an unimplemented source.
func NewStubAgent(source, contextID string) *StubAgent {
	return &StubAgent{source: source, contextID: contextID}
}

func (a *StubAgent) Type() string { return a.source }

func (a *StubAgent) Execute(_ context.Context, action Action, _ Params) *Result {
	return &Result{
		Success: false,
		Metadata: Metadata{
			AgentType:  a.source,
			Action:     action,
			DataSource: a.source,
		},
		Error: fmt.Sprintf("%s agent not implemented for workspace %s", a.source, a.contextID),
	}
}
