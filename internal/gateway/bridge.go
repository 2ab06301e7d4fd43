package gateway

import (
	"context"
	"time"

	"github.com/nidhogg/atrium/internal/orchestrator"
	"go.uber.org/zap"
)

// Processor runs one chat request end to end. Satisfied by the
// orchestrator.
type Processor interface {
	Process(ctx context.Context, message, contextID, userID string) *orchestrator.Result
}

// Bridge routes inbound platform messages through the processor and
// sends the response back to the channel they came from.
type Bridge struct {
	gw      *Gateway
	proc    Processor
	timeout time.Duration
	logger  *zap.Logger
}

// NewBridge wires the gateway's inbound handler to the processor. Each
// message is handled in its own goroutine so a slow request never blocks
// the platform event loop.
func NewBridge(gw *Gateway, proc Processor, timeout time.Duration, logger *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	b := &Bridge{gw: gw, proc: proc, timeout: timeout, logger: logger}
	gw.SetHandler(b.handle)
	return b
}

func (b *Bridge) handle(msg *InboundMessage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		result := b.proc.Process(ctx, msg.Content, msg.ContextID, msg.UserID)
		if result == nil || result.Response == "" {
			return
		}

		out := &OutboundMessage{
			Platform:  msg.Platform,
			ChannelID: msg.ChannelID,
			Content:   result.Response,
			ReplyTo:   msg.ReplyTo,
		}
		if err := b.gw.Send(ctx, out); err != nil {
			b.logger.Error("bridge reply failed",
				zap.String("platform", msg.Platform),
				zap.String("channel", msg.ChannelID),
				zap.Error(err))
		}
	}()
}
