package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	guardValueProcessing = "processing"
	guardValueCompleted  = "completed"
)

// GuardStore is the key-value backend for the idempotency guard. Redis in
// production, an in-memory store in tests.
type GuardStore interface {
	// SetNX sets key to value only if it does not exist. Returns true when
	// the key was set by this call.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get returns the value for key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set unconditionally writes key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// IdempotencyGuard prevents the same stage from running twice for a meeting.
// A short-lived "processing" marker is claimed atomically before work starts
// and a long-lived "completed" marker replaces it on success. The processing
// TTL doubles as a crash lease: a worker that dies mid-stage leaves a marker
// that expires on its own.
type IdempotencyGuard struct {
	store         GuardStore
	processingTTL time.Duration
	completedTTL  time.Duration
}

// NewIdempotencyGuard creates a guard over the given store
func NewIdempotencyGuard(store GuardStore, processingTTL, completedTTL time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		store:         store,
		processingTTL: processingTTL,
		completedTTL:  completedTTL,
	}
}

func (g *IdempotencyGuard) key(stage StageName, meetingID uuid.UUID) string {
	return fmt.Sprintf("idempotency:%s:%s", stage, meetingID)
}

// Acquire atomically claims the right to run the stage. Returns false when
// another worker holds the claim or the stage already completed.
func (g *IdempotencyGuard) Acquire(ctx context.Context, stage StageName, meetingID uuid.UUID) (bool, error) {
	ok, err := g.store.SetNX(ctx, g.key(stage, meetingID), guardValueProcessing, g.processingTTL)
	if err != nil {
		return false, fmt.Errorf("failed to acquire idempotency guard: %w", err)
	}
	return ok, nil
}

// IsCompleted reports whether the stage already completed for the meeting
func (g *IdempotencyGuard) IsCompleted(ctx context.Context, stage StageName, meetingID uuid.UUID) (bool, error) {
	value, err := g.store.Get(ctx, g.key(stage, meetingID))
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency guard: %w", err)
	}
	return value == guardValueCompleted, nil
}

// MarkCompleted replaces the processing claim with a long-lived completion
// marker so duplicate deliveries after success are skipped cheaply.
func (g *IdempotencyGuard) MarkCompleted(ctx context.Context, stage StageName, meetingID uuid.UUID) error {
	if err := g.store.Set(ctx, g.key(stage, meetingID), guardValueCompleted, g.completedTTL); err != nil {
		return fmt.Errorf("failed to mark stage completed: %w", err)
	}
	return nil
}

// Release drops the processing claim after a failure so a retry can run
// before the TTL would have expired it.
func (g *IdempotencyGuard) Release(ctx context.Context, stage StageName, meetingID uuid.UUID) error {
	if err := g.store.Delete(ctx, g.key(stage, meetingID)); err != nil {
		return fmt.Errorf("failed to release idempotency guard: %w", err)
	}
	return nil
}
