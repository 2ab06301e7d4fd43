// Package orchestrator coordinates the request pipeline: classify the
// message, score its context needs, pick a strategy, invoke source
// agents, and merge their output into one response.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/atrium/internal/intent"
	"github.com/nidhogg/atrium/internal/llm"
	"github.com/nidhogg/atrium/internal/relevance"
	"github.com/nidhogg/atrium/internal/subagent"
	"go.uber.org/zap"
)

// Options configure an Orchestrator.
type Options struct {
	// DefaultAgent is the source consulted by the workflow fallback path.
	DefaultAgent string
	// AgentTimeout bounds each individual agent invocation.
	AgentTimeout time.Duration
	// ProcessTimeout bounds a whole Process call; zero means no deadline.
	ProcessTimeout time.Duration
	// Debug attaches logs and raw agent results to every Result.
	Debug bool
	// CacheSize bounds the per-(source, workspace) agent cache.
	CacheSize int
}

// Orchestrator is the request coordinator. It holds no request-scoped
// mutable state beyond the agent cache, so Process is safe to call from
// concurrent goroutines and idempotent from the caller's point of view.
type Orchestrator struct {
	classifier *intent.Classifier
	scorer     *relevance.Scorer
	factory    subagent.Factory
	cache      *agentCache
	completer  llm.Completer   // optional
	events     *EventPublisher // optional
	opts       Options
	logger     *zap.Logger
}

// New creates an orchestrator. The factory is required; completer and
// events may be nil and the corresponding steps are skipped.
func New(factory subagent.Factory, completer llm.Completer, events *EventPublisher, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.DefaultAgent == "" {
		opts.DefaultAgent = string(relevance.SourceSlack)
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = 15 * time.Second
	}
	return &Orchestrator{
		classifier: intent.NewClassifier(),
		scorer:     relevance.NewScorer(),
		factory:    factory,
		cache:      newAgentCache(opts.CacheSize),
		completer:  completer,
		events:     events,
		opts:       opts,
		logger:     logger,
	}
}

// Process runs the full pipeline for one message. It never returns an
// error or panics to the caller: any internal failure becomes a degraded
// Result with Success=false and a capability-listing response.
func (o *Orchestrator) Process(ctx context.Context, message, contextID, userID string) (res *Result) {
	start := time.Now()
	requestID := uuid.New().String()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestration panic",
				zap.String("request", requestID), zap.Any("panic", r))
			res = o.fallbackResult(requestID, start)
		}
		if o.events != nil && res != nil {
			o.events.publishAsync(res, contextID, userID)
		}
	}()

	if o.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ProcessTimeout)
		defer cancel()
	}

	in := o.classifier.Classify(message)
	rel := o.scorer.Score(in)

	// Boundary contract: without a workspace there is nothing to query,
	// so every category is forced onto the direct path. With one, the
	// decision table owns the routing, including the workflow fallback
	// for unknown intents.
	var decision Decision
	if contextID == "" {
		rel.NeedsContextData = false
		rel.RequiredSources = []relevance.Source{}
		decision = Decision{
			Strategy:        StrategyDirect,
			AssignedAgents:  []string{},
			ProcessingPlan:  "reply directly, no external context",
			EstimatedTimeMs: estimateDirectMs,
		}
	} else {
		decision = o.decide(in, rel)
	}

	o.logger.Debug("decision made",
		zap.String("request", requestID),
		zap.String("category", string(in.Category)),
		zap.String("strategy", string(decision.Strategy)),
		zap.Strings("agents", decision.AssignedAgents))

	var (
		response     string
		agentResults []*subagent.Result
	)

	switch decision.Strategy {
	case StrategyDirect:
		response = directReply(in, message, userID)

	case StrategySingle, StrategyWorkflow:
		// The workflow path is a documented degradation: it reduces to a
		// single default-agent invocation rather than real planning.
		r := o.invokeAgent(ctx, decision.AssignedAgents[0], contextID, message, rel)
		agentResults = append(agentResults, r)
		response = o.formatSingle(ctx, in, rel, r)

	case StrategyMulti:
		agentResults = o.invokeParallel(ctx, decision.AssignedAgents, contextID, message, rel)
		response = o.formatMulti(ctx, in, rel, decision.AssignedAgents, agentResults)
	}

	result := &Result{
		Success:  true,
		Response: response,
		Metadata: ResultMetadata{
			RequestID:        requestID,
			Strategy:         decision.Strategy,
			Intent:           in,
			ContextRelevance: rel,
			AgentsUsed:       decision.AssignedAgents,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Confidence:       in.Confidence,
		},
	}
	if o.opts.Debug {
		result.Debug = &DebugInfo{
			RawAgentResults: agentResults,
			Reasoning:       decision.ProcessingPlan,
		}
	}
	return result
}

// invokeAgent runs one action against one cached agent.
func (o *Orchestrator) invokeAgent(ctx context.Context, source, contextID, message string, rel relevance.ContextRelevance) *subagent.Result {
	agent := o.cache.getOrCreate(source, contextID, o.factory)
	action := pickAction(message, rel)

	params := subagent.Params{Query: message}
	if action == subagent.ActionAnalyze {
		params.Timeframe = "week"
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.AgentTimeout)
	defer cancel()
	return agent.Execute(ctx, action, params)
}

// invokeParallel fans one action out to every assigned agent and waits
// for all of them to settle. A slow or failing agent never blocks the
// others past its own timeout, and failures stay per-agent.
func (o *Orchestrator) invokeParallel(ctx context.Context, sources []string, contextID, message string, rel relevance.ContextRelevance) []*subagent.Result {
	results := make([]*subagent.Result, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i] = o.invokeAgent(ctx, src, contextID, message, rel)
		}(i, src)
	}
	wg.Wait()
	return results
}

// fallbackResult is the degraded whole-request failure shape: a friendly
// capability listing instead of a technical error, with confidence near
// zero so telemetry can tell failures from low-confidence answers.
func (o *Orchestrator) fallbackResult(requestID string, start time.Time) *Result {
	return &Result{
		Success:  false,
		Response: fallbackMessage,
		Metadata: ResultMetadata{
			RequestID:        requestID,
			Strategy:         StrategyFallback,
			AgentsUsed:       []string{},
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Confidence:       0.1,
		},
	}
}
