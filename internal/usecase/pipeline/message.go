package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// StageName identifies one step of the processing chain
type StageName string

const (
	StageTranscribe StageName = "transcribe"
	StageInsights   StageName = "insights"
	StageEmbeddings StageName = "embeddings"
)

// Chain is the fixed stage order. Each stage enqueues its successor on
// success; the chain is explicit rather than hidden in callback wiring.
var Chain = []StageName{StageTranscribe, StageInsights, StageEmbeddings}

// Next returns the stage that follows s in the chain, or "" for the last one.
func (s StageName) Next() StageName {
	for i, stage := range Chain {
		if stage == s && i+1 < len(Chain) {
			return Chain[i+1]
		}
	}
	return ""
}

// Valid reports whether s is a known stage
func (s StageName) Valid() bool {
	for _, stage := range Chain {
		if stage == s {
			return true
		}
	}
	return false
}

// TaskMessage is the unit of work carried through the broker. The attempt
// counter travels with the message so retry state survives worker restarts.
type TaskMessage struct {
	TaskID     uuid.UUID `json:"task_id"`
	Stage      StageName `json:"stage"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTaskMessage builds a first-attempt message for a stage
func NewTaskMessage(stage StageName, meetingID uuid.UUID) TaskMessage {
	return TaskMessage{
		TaskID:     uuid.New(),
		Stage:      stage,
		MeetingID:  meetingID,
		Attempt:    0,
		EnqueuedAt: time.Now(),
	}
}

// Retry returns a copy of the message with a fresh task id and the attempt
// counter advanced.
func (m TaskMessage) Retry() TaskMessage {
	return TaskMessage{
		TaskID:     uuid.New(),
		Stage:      m.Stage,
		MeetingID:  m.MeetingID,
		Attempt:    m.Attempt + 1,
		EnqueuedAt: time.Now(),
	}
}
