package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nidhogg/atrium/internal/orchestrator"
	"go.uber.org/zap"
)

// fakeAdapter captures outbound messages and lets tests inject inbound ones.
type fakeAdapter struct {
	mu      sync.Mutex
	handler MessageHandler
	sent    []*OutboundMessage
}

func (f *fakeAdapter) Platform() string              { return "fake" }
func (f *fakeAdapter) Connect(context.Context) error { return nil }
func (f *fakeAdapter) OnMessage(h MessageHandler)    { f.handler = h }
func (f *fakeAdapter) Close() error                  { return nil }

func (f *fakeAdapter) Status() AdapterStatus {
	return AdapterStatus{Platform: "fake", Connected: true}
}

func (f *fakeAdapter) Send(_ context.Context, msg *OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeAdapter) sentMessages() []*OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*OutboundMessage(nil), f.sent...)
}

type fakeProcessor struct {
	mu        sync.Mutex
	contextID string
	response  string
}

func (p *fakeProcessor) Process(_ context.Context, message, contextID, userID string) *orchestrator.Result {
	p.mu.Lock()
	p.contextID = contextID
	p.mu.Unlock()
	return &orchestrator.Result{Success: true, Response: p.response}
}

func TestBridgeRepliesOnInboundMessage(t *testing.T) {
	logger := zap.NewNop()
	gw := NewGateway(logger)
	adapter := &fakeAdapter{}
	gw.Register(adapter)

	proc := &fakeProcessor{response: "here is what I found"}
	NewBridge(gw, proc, time.Second, logger)

	adapter.handler(&InboundMessage{
		Platform:  "fake",
		ContextID: "ws-1",
		ChannelID: "C1",
		UserID:    "u1",
		Content:   "what's new today",
		ReplyTo:   "ts-1",
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(adapter.sentMessages()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	sent := adapter.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Content != "here is what I found" {
		t.Errorf("content = %q", sent[0].Content)
	}
	if sent[0].ChannelID != "C1" || sent[0].ReplyTo != "ts-1" {
		t.Errorf("reply routing wrong: %+v", sent[0])
	}
	proc.mu.Lock()
	gotCtx := proc.contextID
	proc.mu.Unlock()
	if gotCtx != "ws-1" {
		t.Errorf("processor contextID = %q, want ws-1", gotCtx)
	}
}

func TestBridgeDropsEmptyResponses(t *testing.T) {
	logger := zap.NewNop()
	gw := NewGateway(logger)
	adapter := &fakeAdapter{}
	gw.Register(adapter)

	proc := &fakeProcessor{response: ""}
	NewBridge(gw, proc, time.Second, logger)

	adapter.handler(&InboundMessage{Platform: "fake", ChannelID: "C1", Content: "hi"})

	time.Sleep(50 * time.Millisecond)
	if got := len(adapter.sentMessages()); got != 0 {
		t.Errorf("sent %d messages, want 0", got)
	}
}
