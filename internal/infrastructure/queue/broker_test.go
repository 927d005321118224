package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
)

const testDequeueWait = 50 * time.Millisecond

func newTestBroker(t *testing.T) (*RedisBroker, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBroker(client, 2*time.Hour, nil), client
}

func TestBrokerEnqueueDequeueAck(t *testing.T) {
	broker, client := newTestBroker(t)
	ctx := context.Background()

	msg := pipeline.NewTaskMessage(pipeline.StageTranscribe, uuid.New())
	if err := broker.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	delivery, err := broker.Dequeue(ctx, testDequeueWait)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if delivery == nil || delivery.Message.TaskID != msg.TaskID {
		t.Fatalf("wrong delivery: %+v", delivery)
	}

	// In flight: held in processing with a live claim.
	if n := client.LLen(ctx, processingKey).Val(); n != 1 {
		t.Errorf("processing length = %d, want 1", n)
	}
	if n := client.ZCard(ctx, claimsKey).Val(); n != 1 {
		t.Errorf("claims size = %d, want 1", n)
	}

	if err := broker.Ack(ctx, delivery); err != nil {
		t.Fatalf("ack failed: %v", err)
	}
	if n := client.LLen(ctx, processingKey).Val(); n != 0 {
		t.Errorf("processing not cleared after ack: %d", n)
	}
	if n := client.ZCard(ctx, claimsKey).Val(); n != 0 {
		t.Errorf("claims not cleared after ack: %d", n)
	}

	if extra, err := broker.Dequeue(ctx, testDequeueWait); err != nil || extra != nil {
		t.Errorf("queue should be empty, got %+v (err %v)", extra, err)
	}
}

func TestBrokerDelayedMessageBecomesVisible(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()
	now := time.Now()

	msg := pipeline.NewTaskMessage(pipeline.StageInsights, uuid.New())
	if err := broker.EnqueueIn(ctx, msg, time.Minute); err != nil {
		t.Fatalf("enqueue-in failed: %v", err)
	}

	broker.maintain(ctx, now)
	if delivery, _ := broker.Dequeue(ctx, testDequeueWait); delivery != nil {
		t.Fatal("message visible before its delay elapsed")
	}

	broker.maintain(ctx, now.Add(time.Minute+time.Second))
	delivery, err := broker.Dequeue(ctx, testDequeueWait)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if delivery == nil || delivery.Message.TaskID != msg.TaskID {
		t.Fatalf("delayed message not delivered: %+v", delivery)
	}
}

func TestBrokerExpiredClaimIsRequeued(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	msg := pipeline.NewTaskMessage(pipeline.StageTranscribe, uuid.New())
	broker.Enqueue(ctx, msg)
	if delivery, _ := broker.Dequeue(ctx, testDequeueWait); delivery == nil {
		t.Fatal("dequeue returned nothing")
	}

	// Claim still live: nothing to reap.
	broker.maintain(ctx, time.Now())
	if delivery, _ := broker.Dequeue(ctx, testDequeueWait); delivery != nil {
		t.Fatal("message requeued while its claim was live")
	}

	// Owner presumed dead once the claim TTL passes.
	broker.maintain(ctx, time.Now().Add(broker.claimTTL+time.Second))
	delivery, err := broker.Dequeue(ctx, testDequeueWait)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if delivery == nil || delivery.Message.TaskID != msg.TaskID {
		t.Fatalf("abandoned message not redelivered: %+v", delivery)
	}
}

func TestBrokerUnclaimedProcessingEntryIsRecovered(t *testing.T) {
	broker, client := newTestBroker(t)
	ctx := context.Background()

	msg := pipeline.NewTaskMessage(pipeline.StageEmbeddings, uuid.New())
	broker.Enqueue(ctx, msg)
	delivery, err := broker.Dequeue(ctx, testDequeueWait)
	if err != nil || delivery == nil {
		t.Fatalf("dequeue failed: %+v (err %v)", delivery, err)
	}

	// A worker that dies after the move into processing but before its claim
	// write leaves the payload in processing with no claim entry.
	if err := client.ZRem(ctx, claimsKey, delivery.Receipt).Err(); err != nil {
		t.Fatalf("failed to strip claim: %v", err)
	}

	// First tick adopts the orphan into the claims set.
	now := time.Now()
	broker.maintain(ctx, now)
	if n := client.ZCard(ctx, claimsKey).Val(); n != 1 {
		t.Fatalf("orphaned delivery not adopted: claims size = %d", n)
	}
	if n := client.LLen(ctx, processingKey).Val(); n != 1 {
		t.Fatalf("processing length = %d, want 1", n)
	}

	// The adopted claim expires like any other and the message comes back.
	broker.maintain(ctx, now.Add(broker.claimTTL+time.Second))
	redelivered, err := broker.Dequeue(ctx, testDequeueWait)
	if err != nil {
		t.Fatalf("dequeue failed: %v", err)
	}
	if redelivered == nil || redelivered.Message.TaskID != msg.TaskID {
		t.Fatalf("orphaned message lost: %+v", redelivered)
	}
	if n := client.LLen(ctx, processingKey).Val(); n != 1 {
		t.Errorf("stale processing copy left behind: length = %d, want 1", n)
	}
}

func TestBrokerLiveClaimNotDisturbedByReconciler(t *testing.T) {
	broker, client := newTestBroker(t)
	ctx := context.Background()

	msg := pipeline.NewTaskMessage(pipeline.StageTranscribe, uuid.New())
	broker.Enqueue(ctx, msg)
	delivery, _ := broker.Dequeue(ctx, testDequeueWait)
	if delivery == nil {
		t.Fatal("dequeue returned nothing")
	}

	before := client.ZScore(ctx, claimsKey, delivery.Receipt).Val()
	broker.maintain(ctx, time.Now())
	after := client.ZScore(ctx, claimsKey, delivery.Receipt).Val()
	if before != after {
		t.Errorf("reconciler rewrote a live claim: %f -> %f", before, after)
	}
	if n := client.ZCard(ctx, claimsKey).Val(); n != 1 {
		t.Errorf("claims size = %d, want 1", n)
	}
}
