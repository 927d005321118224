package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptChunk is a bounded span of transcript text with its embedding
// vector, the unit used for semantic search.
type TranscriptChunk struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID  uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ChunkIndex int       `json:"chunk_index" gorm:"type:integer;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	StartTime  *float64  `json:"start_time,omitempty" gorm:"type:double precision"`
	EndTime    *float64  `json:"end_time,omitempty" gorm:"type:double precision"`
	Embedding  []float32 `json:"embedding,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}
