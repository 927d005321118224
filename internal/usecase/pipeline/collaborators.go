package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/ai"
)

// Transcriber converts an audio recording into text with timed segments
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (*ai.Transcription, error)
}

// InsightExtractor derives a summary, action items and topics from a transcript
type InsightExtractor interface {
	Extract(ctx context.Context, transcript string) (*ai.Insights, error)
}

// Embedder turns text spans into embedding vectors
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// AudioResolver produces a fetchable URL for a meeting's stored audio
type AudioResolver interface {
	ResolveAudioURL(ctx context.Context, objectKey string) (string, error)
}

// Broker moves task messages between producers and workers
type Broker interface {
	Enqueue(ctx context.Context, msg TaskMessage) error
	// EnqueueIn schedules the message to become visible after the delay
	EnqueueIn(ctx context.Context, msg TaskMessage, delay time.Duration) error
	// Dequeue blocks up to the given timeout for the next visible message.
	// A nil Delivery with nil error means the timeout elapsed empty.
	Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error)
	// Ack removes a delivered message; unacked deliveries are re-queued
	// after their claim expires.
	Ack(ctx context.Context, d *Delivery) error
}

// Delivery is a dequeued message plus the receipt needed to ack it
type Delivery struct {
	Message TaskMessage
	Receipt string
}

// DeadLetterSink records tasks the pipeline has given up on
type DeadLetterSink interface {
	Record(ctx context.Context, entry DeadLetterEntry) error
}

// DeadLetterEntry describes one abandoned task
type DeadLetterEntry struct {
	TaskID    uuid.UUID `json:"task_id"`
	Stage     StageName `json:"stage"`
	MeetingID uuid.UUID `json:"meeting_id"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}

// Stage is one executable step of the chain
type Stage interface {
	Name() StageName
	Execute(ctx context.Context, meetingID uuid.UUID) Outcome
}
