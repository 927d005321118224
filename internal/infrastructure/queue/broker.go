package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
)

const (
	readyKey      = "pipeline:ready"
	delayedKey    = "pipeline:delayed"
	processingKey = "pipeline:processing"
	claimsKey     = "pipeline:claims"
)

// moverScript promotes due delayed messages into the ready list. Runs as a
// single Lua script so a crashed mover never leaves a message in both sets.
var moverScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, payload in ipairs(due) do
    redis.call('RPUSH', KEYS[2], payload)
    redis.call('ZREM', KEYS[1], payload)
end
return #due
`)

// reaperScript re-queues messages whose worker claim has expired, which is
// how deliveries from crashed workers come back for another attempt.
var reaperScript = redis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, payload in ipairs(expired) do
    redis.call('LREM', KEYS[2], 1, payload)
    redis.call('RPUSH', KEYS[3], payload)
    redis.call('ZREM', KEYS[1], payload)
end
return #expired
`)

// reconcileScript adopts processing entries that carry no claim. A worker
// that dies between moving a message into processing and recording its claim
// leaves exactly this state; without adoption the reaper would never see the
// message again. The adopted claim expires like any other, so a dead owner's
// message is requeued one claim TTL later.
var reconcileScript = redis.NewScript(`
local entries = redis.call('LRANGE', KEYS[1], 0, 99)
local adopted = 0
for _, payload in ipairs(entries) do
    if redis.call('ZSCORE', KEYS[2], payload) == false then
        redis.call('ZADD', KEYS[2], ARGV[1], payload)
        adopted = adopted + 1
    end
end
return adopted
`)

// RedisBroker is a Redis-list task queue with delayed delivery and
// at-least-once semantics. Messages move ready -> processing on dequeue and
// are only removed on ack; a background reaper returns abandoned claims.
type RedisBroker struct {
	client   *redis.Client
	logger   *zap.Logger
	claimTTL time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRedisBroker creates a broker. claimTTL bounds how long a dequeued
// message may stay unacked before the reaper recycles it; it must exceed the
// worker's hard stage timeout.
func NewRedisBroker(client *redis.Client, claimTTL time.Duration, logger *zap.Logger) *RedisBroker {
	if claimTTL <= 0 {
		claimTTL = 2 * time.Hour
	}
	return &RedisBroker{
		client:   client,
		logger:   logger,
		claimTTL: claimTTL,
		stopChan: make(chan struct{}),
	}
}

// Enqueue pushes a message for immediate delivery
func (b *RedisBroker) Enqueue(ctx context.Context, msg pipeline.TaskMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}
	if err := b.client.RPush(ctx, readyKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// EnqueueIn schedules a message to become visible after the delay
func (b *RedisBroker) EnqueueIn(ctx context.Context, msg pipeline.TaskMessage, delay time.Duration) error {
	if delay <= 0 {
		return b.Enqueue(ctx, msg)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}
	due := float64(time.Now().Add(delay).Unix())
	if err := b.client.ZAdd(ctx, delayedKey, redis.Z{Score: due, Member: payload}).Err(); err != nil {
		return fmt.Errorf("failed to schedule task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next message. The returned delivery
// stays claimed until Ack or until the claim TTL expires.
func (b *RedisBroker) Dequeue(ctx context.Context, timeout time.Duration) (*pipeline.Delivery, error) {
	payload, err := b.client.BLMove(ctx, readyKey, processingKey, "LEFT", "RIGHT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}

	claimExpiry := float64(time.Now().Add(b.claimTTL).Unix())
	if err := b.client.ZAdd(ctx, claimsKey, redis.Z{Score: claimExpiry, Member: payload}).Err(); err != nil && b.logger != nil {
		// The message sits in processing without a claim entry until the
		// reconciler adopts it on the next maintenance tick.
		b.logger.Warn("⚠️ Failed to record claim", zap.Error(err))
	}

	var msg pipeline.TaskMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		// Unparseable payloads would loop through the reaper forever;
		// drop them from processing and surface the error.
		b.client.LRem(ctx, processingKey, 1, payload)
		b.client.ZRem(ctx, claimsKey, payload)
		return nil, fmt.Errorf("failed to unmarshal task message: %w", err)
	}

	return &pipeline.Delivery{Message: msg, Receipt: payload}, nil
}

// Ack removes a delivered message permanently
func (b *RedisBroker) Ack(ctx context.Context, d *pipeline.Delivery) error {
	pipe := b.client.TxPipeline()
	pipe.LRem(ctx, processingKey, 1, d.Receipt)
	pipe.ZRem(ctx, claimsKey, d.Receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack task: %w", err)
	}
	return nil
}

// Start launches the background mover and reaper loops
func (b *RedisBroker) Start(ctx context.Context) {
	b.wg.Add(1)
	go b.maintenanceLoop(ctx)
	if b.logger != nil {
		b.logger.Info("🚀 Queue maintenance started",
			zap.Duration("claim_ttl", b.claimTTL),
		)
	}
}

// Stop halts the maintenance loop and waits for it
func (b *RedisBroker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
	})
	b.wg.Wait()
}

func (b *RedisBroker) maintenanceLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.maintain(ctx, time.Now())
		}
	}
}

// maintain runs one tick of queue upkeep: promote due delayed messages,
// adopt unclaimed processing entries, then requeue expired claims.
func (b *RedisBroker) maintain(ctx context.Context, now time.Time) {
	nowArg := fmt.Sprintf("%d", now.Unix())

	if _, err := moverScript.Run(ctx, b.client, []string{delayedKey, readyKey}, nowArg).Result(); err != nil && b.logger != nil {
		b.logger.Error("❌ Delayed message mover failed", zap.Error(err))
	}

	claimExpiry := fmt.Sprintf("%d", now.Add(b.claimTTL).Unix())
	adopted, err := reconcileScript.Run(ctx, b.client, []string{processingKey, claimsKey}, claimExpiry).Int()
	if err != nil {
		if b.logger != nil {
			b.logger.Error("❌ Claim reconciler failed", zap.Error(err))
		}
	} else if adopted > 0 && b.logger != nil {
		b.logger.Warn("🩹 Adopted unclaimed deliveries",
			zap.Int("count", adopted),
		)
	}

	reclaimed, err := reaperScript.Run(ctx, b.client, []string{claimsKey, processingKey, readyKey}, nowArg).Int()
	if err != nil {
		if b.logger != nil {
			b.logger.Error("❌ Claim reaper failed", zap.Error(err))
		}
		return
	}
	if reclaimed > 0 && b.logger != nil {
		b.logger.Warn("♻️ Reclaimed abandoned deliveries",
			zap.Int("count", reclaimed),
		)
	}
}
