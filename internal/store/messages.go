package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nidhogg/atrium/internal/subagent"
)

// SaveMessage archives one inbound workspace message together with the
// ingest-time classification.
func (s *Store) SaveMessage(ctx context.Context, contextID string, msg subagent.Message, category string, importance int) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, context_id, channel, user_name, content, category, importance, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)`,
		contextID, msg.Channel, msg.User, msg.Text, category, importance, ts,
	)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// Search returns archived messages matching any word of the query,
// newest first. The caller re-ranks candidates, so this stays a broad
// ILIKE match rather than full-text search.
func (s *Store) Search(ctx context.Context, contextID, query string, limit int) ([]subagent.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}
	patterns := make([]string, len(words))
	for i, w := range words {
		patterns[i] = "%" + w + "%"
	}

	rows, err := s.db.Query(ctx, `
		SELECT channel, user_name, content, created_at
		FROM messages
		WHERE context_id = $1 AND content ILIKE ANY($2)
		ORDER BY created_at DESC
		LIMIT $3`, contextID, patterns, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Recent returns archived messages newer than since, newest first.
func (s *Store) Recent(ctx context.Context, contextID string, since time.Time, limit int) ([]subagent.Message, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, `
		SELECT channel, user_name, content, created_at
		FROM messages
		WHERE context_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3`, contextID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanMessages(rows rowScanner) ([]subagent.Message, error) {
	var msgs []subagent.Message
	for rows.Next() {
		var m subagent.Message
		if err := rows.Scan(&m.Channel, &m.User, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}
