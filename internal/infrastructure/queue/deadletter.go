package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
)

const deadLetterKey = "failed_tasks"

// DeadLetterList stores abandoned tasks in a capped Redis list, newest
// first. The cap keeps the list from growing without bound; old entries roll
// off the tail.
type DeadLetterList struct {
	client *redis.Client
	cap    int64
}

// NewDeadLetterList creates a dead letter sink. cap <= 0 defaults to 1000.
func NewDeadLetterList(client *redis.Client, cap int64) *DeadLetterList {
	if cap <= 0 {
		cap = 1000
	}
	return &DeadLetterList{client: client, cap: cap}
}

// Record prepends the entry and trims the list to capacity
func (d *DeadLetterList) Record(ctx context.Context, entry pipeline.DeadLetterEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter entry: %w", err)
	}

	pipe := d.client.TxPipeline()
	pipe.LPush(ctx, deadLetterKey, payload)
	pipe.LTrim(ctx, deadLetterKey, 0, d.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record dead letter: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (d *DeadLetterList) List(ctx context.Context, limit int64) ([]pipeline.DeadLetterEntry, error) {
	if limit <= 0 || limit > d.cap {
		limit = d.cap
	}
	payloads, err := d.client.LRange(ctx, deadLetterKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}

	entries := make([]pipeline.DeadLetterEntry, 0, len(payloads))
	for _, payload := range payloads {
		var entry pipeline.DeadLetterEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			// Skip entries written by older formats rather than failing
			// the whole listing.
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
