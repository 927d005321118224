package entities

import (
	"time"

	"github.com/google/uuid"
)

// Segment represents a contiguous speech segment with timing info
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the stored transcript model, one per meeting
type Transcript struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	Content   string    `json:"content" gorm:"type:text"`
	Language  string    `json:"language,omitempty" gorm:"type:varchar(20)"`
	Segments  []Segment `json:"segments,omitempty" gorm:"type:jsonb;serializer:json"`
	ModelUsed string    `json:"model_used,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a new transcript
func NewTranscript(meetingID uuid.UUID) *Transcript {
	return &Transcript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
