package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventStream = "atrium:orchestration:events"

// EventPublisher emits one compact event per processed request to a
// Redis Stream. Persistence and telemetry are external collaborators;
// they consume the stream, this core never reads it back.
type EventPublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewEventPublisher connects to Redis and verifies it is reachable.
func NewEventPublisher(redisURL string, logger *zap.Logger) (*EventPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &EventPublisher{rdb: rdb, logger: logger}, nil
}

// ProcessEvent is the wire shape of one orchestration event.
type ProcessEvent struct {
	RequestID        string    `json:"request_id"`
	ContextID        string    `json:"context_id,omitempty"`
	UserID           string    `json:"user_id,omitempty"`
	Strategy         Strategy  `json:"strategy"`
	AgentsUsed       []string  `json:"agents_used"`
	Success          bool      `json:"success"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// Publish appends an event to the stream.
func (p *EventPublisher) Publish(ctx context.Context, ev *ProcessEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: eventStream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// publishAsync emits the event for a finished result without blocking the
// caller. Publish failures are logged and dropped.
func (p *EventPublisher) publishAsync(res *Result, contextID, userID string) {
	ev := &ProcessEvent{
		RequestID:        res.Metadata.RequestID,
		ContextID:        contextID,
		UserID:           userID,
		Strategy:         res.Metadata.Strategy,
		AgentsUsed:       res.Metadata.AgentsUsed,
		Success:          res.Success,
		Confidence:       res.Metadata.Confidence,
		ProcessingTimeMs: res.Metadata.ProcessingTimeMs,
		Timestamp:        time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			p.logger.Warn("event publish failed", zap.Error(err))
		}
	}()
}

// Close shuts down the Redis connection.
func (p *EventPublisher) Close() error {
	return p.rdb.Close()
}
