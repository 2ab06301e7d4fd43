package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nidhogg/atrium/internal/subagent"
)

// fakeAgent returns canned data, or a structured failure when fail is set.
type fakeAgent struct {
	typ  string
	fail bool
	data any
}

func (f *fakeAgent) Type() string { return f.typ }

func (f *fakeAgent) Execute(_ context.Context, action subagent.Action, _ subagent.Params) *subagent.Result {
	meta := subagent.Metadata{AgentType: f.typ, Action: action, DataSource: f.typ}
	if f.fail {
		return &subagent.Result{Metadata: meta, Error: f.typ + " deliberately down"}
	}
	return &subagent.Result{Success: true, Data: f.data, Metadata: meta}
}

// recordingFactory counts constructions per source for cache assertions.
type recordingFactory struct {
	mu      sync.Mutex
	built   map[string]int
	failing map[string]bool
}

func newRecordingFactory(failing ...string) *recordingFactory {
	f := &recordingFactory{built: make(map[string]int), failing: make(map[string]bool)}
	for _, s := range failing {
		f.failing[s] = true
	}
	return f
}

func (f *recordingFactory) factory(source, contextID string) subagent.Agent {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built[source]++
	if f.failing[source] {
		return &fakeAgent{typ: source, fail: true}
	}
	return &fakeAgent{typ: source, data: &subagent.MessagesData{
		Messages: []subagent.Message{{User: "alice", Text: "hello from " + source}},
		Total:    1,
		Source:   "local_database",
	}}
}

func (f *recordingFactory) builds(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.built[source]
}

func TestProcessGreetingDirect(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	res := o.Process(context.Background(), "hi", "ws-1", "u1")
	if !res.Success {
		t.Fatalf("greeting failed: %s", res.Response)
	}
	if res.Metadata.Strategy != StrategyDirect {
		t.Errorf("strategy = %s, want direct_response", res.Metadata.Strategy)
	}
	if len(res.Metadata.AgentsUsed) != 0 {
		t.Errorf("agents used = %v, want none", res.Metadata.AgentsUsed)
	}
	found := false
	for _, tmpl := range greetingTemplates {
		if res.Response == tmpl {
			found = true
		}
	}
	if !found {
		t.Errorf("response %q is not a greeting template", res.Response)
	}
	if f.builds("slack") != 0 {
		t.Error("greeting must not construct agents")
	}
}

func TestProcessWorkQuerySingleAgent(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	res := o.Process(context.Background(), "今天有什么重要邮件吗", "ws-1", "u1")
	if !res.Success {
		t.Fatalf("process failed: %s", res.Response)
	}
	if res.Metadata.Strategy != StrategySingle {
		t.Errorf("strategy = %s, want single_subagent", res.Metadata.Strategy)
	}
	if len(res.Metadata.AgentsUsed) != 1 || res.Metadata.AgentsUsed[0] != "gmail" {
		t.Errorf("agents used = %v, want [gmail]", res.Metadata.AgentsUsed)
	}
	hasGmail := false
	for _, s := range res.Metadata.ContextRelevance.RequiredSources {
		if string(s) == "gmail" {
			hasGmail = true
		}
	}
	if !hasGmail {
		t.Errorf("required sources %v missing gmail", res.Metadata.ContextRelevance.RequiredSources)
	}
}

func TestProcessComplexAnalysisParallel(t *testing.T) {
	f := newRecordingFactory("jira")
	o := newTestOrchestrator(f.factory, Options{Debug: true})

	res := o.Process(context.Background(), "分析一下团队最近的工作情况", "ws-1", "u1")
	if !res.Success {
		t.Fatalf("partial agent failure must not fail the request: %s", res.Response)
	}
	if res.Metadata.Strategy != StrategyMulti {
		t.Fatalf("strategy = %s, want multi_subagent", res.Metadata.Strategy)
	}
	if len(res.Metadata.AgentsUsed) != 3 {
		t.Fatalf("agents used = %v, want slack+gmail+jira", res.Metadata.AgentsUsed)
	}
	for _, src := range []string{"slack", "gmail", "jira"} {
		if f.builds(src) != 1 {
			t.Errorf("%s built %d times, want 1", src, f.builds(src))
		}
	}

	// Succeeding agents get a section; the failed one is omitted.
	if !strings.Contains(res.Response, "slack") || !strings.Contains(res.Response, "gmail") {
		t.Errorf("response missing succeeding agent sections: %q", res.Response)
	}
	if strings.Contains(res.Response, "jira") {
		t.Errorf("response must omit failed agent section: %q", res.Response)
	}
	if res.Debug == nil || len(res.Debug.RawAgentResults) != 3 {
		t.Error("debug mode should carry all raw agent results, including failures")
	}
}

func TestProcessUnknownTakesWorkflowPath(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	res := o.Process(context.Background(), "flibbertigibbet", "ws-1", "u1")
	if !res.Success {
		t.Fatalf("process failed: %s", res.Response)
	}
	if res.Metadata.Strategy != StrategyWorkflow {
		t.Errorf("strategy = %s, want complex_workflow", res.Metadata.Strategy)
	}
	if len(res.Metadata.AgentsUsed) != 1 || res.Metadata.AgentsUsed[0] != "slack" {
		t.Errorf("agents used = %v, want the default [slack]", res.Metadata.AgentsUsed)
	}
	if got := f.builds("slack"); got != 1 {
		t.Errorf("default agent built %d times, want 1", got)
	}
}

func TestProcessUnknownWithoutContextIDStaysDirect(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	res := o.Process(context.Background(), "flibbertigibbet", "", "u1")
	if res.Metadata.Strategy != StrategyDirect {
		t.Errorf("strategy = %s, want direct_response without a workspace", res.Metadata.Strategy)
	}
	if got := f.builds("slack"); got != 0 {
		t.Errorf("no agent may be constructed without a workspace, got %d builds", got)
	}
}

func TestProcessNoContextIDDisablesAgents(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	res := o.Process(context.Background(), "今天有什么重要邮件吗", "", "u1")
	if !res.Success {
		t.Fatalf("process failed: %s", res.Response)
	}
	if res.Metadata.Strategy != StrategyDirect {
		t.Errorf("strategy = %s, want direct_response without a workspace", res.Metadata.Strategy)
	}
	if res.Metadata.ContextRelevance.NeedsContextData {
		t.Error("needs_context_data must be forced false without a contextID")
	}
	total := 0
	for _, src := range []string{"slack", "gmail", "jira", "github"} {
		total += f.builds(src)
	}
	if total != 0 {
		t.Errorf("no agent may be constructed without a workspace, got %d builds", total)
	}
}

func TestProcessIdempotentDecision(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	first := o.Process(context.Background(), "分析一下团队最近的工作情况", "ws-1", "u1")
	second := o.Process(context.Background(), "分析一下团队最近的工作情况", "ws-1", "u1")

	if first.Metadata.Strategy != second.Metadata.Strategy {
		t.Errorf("strategies differ: %s vs %s", first.Metadata.Strategy, second.Metadata.Strategy)
	}
	if len(first.Metadata.AgentsUsed) != len(second.Metadata.AgentsUsed) {
		t.Fatalf("agent lists differ: %v vs %v", first.Metadata.AgentsUsed, second.Metadata.AgentsUsed)
	}
	for i := range first.Metadata.AgentsUsed {
		if first.Metadata.AgentsUsed[i] != second.Metadata.AgentsUsed[i] {
			t.Errorf("agent lists differ: %v vs %v", first.Metadata.AgentsUsed, second.Metadata.AgentsUsed)
		}
	}
}

func TestProcessAgentReuseAcrossRequests(t *testing.T) {
	f := newRecordingFactory()
	o := newTestOrchestrator(f.factory, Options{})

	for i := 0; i < 5; i++ {
		o.Process(context.Background(), "search the deploy messages today", "ws-1", "u1")
	}
	if got := f.builds("slack"); got != 1 {
		t.Errorf("slack agent built %d times for the same workspace, want 1", got)
	}

	o.Process(context.Background(), "search the deploy messages today", "ws-2", "u1")
	if got := f.builds("slack"); got != 2 {
		t.Errorf("different workspace must get its own agent, got %d builds", got)
	}
}

func TestAgentCacheConcurrentFirstUse(t *testing.T) {
	f := newRecordingFactory()
	cache := newAgentCache(16)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.getOrCreate("slack", "ws-1", f.factory)
		}()
	}
	wg.Wait()

	if got := f.builds("slack"); got != 1 {
		t.Errorf("concurrent first use built %d agents, want 1", got)
	}
	if cache.len() != 1 {
		t.Errorf("cache has %d entries, want 1", cache.len())
	}
}

func TestAgentCacheEviction(t *testing.T) {
	f := newRecordingFactory()
	cache := newAgentCache(2)

	cache.getOrCreate("slack", "ws-1", f.factory)
	cache.getOrCreate("slack", "ws-2", f.factory)
	cache.getOrCreate("slack", "ws-3", f.factory)
	if cache.len() != 2 {
		t.Fatalf("cache len = %d, want 2 after eviction", cache.len())
	}
	// ws-1 was evicted; asking again rebuilds it.
	cache.getOrCreate("slack", "ws-1", f.factory)
	if got := f.builds("slack"); got != 4 {
		t.Errorf("builds = %d, want 4", got)
	}
}

func TestProcessPanicBecomesFallback(t *testing.T) {
	panicFactory := func(source, contextID string) subagent.Agent {
		panic("factory exploded")
	}
	o := newTestOrchestrator(panicFactory, Options{})

	res := o.Process(context.Background(), "search the deploy messages today", "ws-1", "u1")
	if res.Success {
		t.Fatal("expected degraded failure result")
	}
	if res.Metadata.Strategy != StrategyFallback {
		t.Errorf("strategy = %s, want fallback", res.Metadata.Strategy)
	}
	if res.Metadata.Confidence != 0.1 {
		t.Errorf("confidence = %v, want 0.1", res.Metadata.Confidence)
	}
	if res.Response != fallbackMessage {
		t.Errorf("response = %q, want the capability listing", res.Response)
	}
}

func TestProcessTimeoutStillReturns(t *testing.T) {
	slowFactory := func(source, contextID string) subagent.Agent {
		return slowAgent{}
	}
	o := newTestOrchestrator(slowFactory, Options{AgentTimeout: 10 * time.Millisecond})

	done := make(chan *Result, 1)
	go func() {
		done <- o.Process(context.Background(), "search the deploy messages today", "ws-1", "u1")
	}()
	select {
	case res := <-done:
		if res == nil {
			t.Fatal("nil result")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process hung on a slow agent")
	}
}

type slowAgent struct{}

func (slowAgent) Type() string { return "slack" }

func (slowAgent) Execute(ctx context.Context, action subagent.Action, _ subagent.Params) *subagent.Result {
	<-ctx.Done()
	return &subagent.Result{
		Metadata: subagent.Metadata{AgentType: "slack", Action: action, DataSource: "slack"},
		Error:    ctx.Err().Error(),
	}
}
