package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus represents where a meeting sits in the processing lifecycle
type MeetingStatus string

const (
	MeetingStatusPending     MeetingStatus = "pending"     // Uploaded, waiting for the pipeline
	MeetingStatusProcessing  MeetingStatus = "processing"  // Transcription in progress
	MeetingStatusTranscribed MeetingStatus = "transcribed" // Transcript stored, insights/embeddings pending
	MeetingStatusReady       MeetingStatus = "ready"       // Fully processed, searchable
	MeetingStatusError       MeetingStatus = "error"       // Pipeline gave up; manual re-drive required
)

// statusTransitions maps a target status to the statuses it may be entered from.
// Status updates are compare-and-set against this table so a meeting never
// regresses (e.g. ready back to processing) without an explicit re-drive.
var statusTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusProcessing:  {MeetingStatusPending, MeetingStatusError},
	MeetingStatusTranscribed: {MeetingStatusProcessing},
	MeetingStatusReady:       {MeetingStatusTranscribed},
	MeetingStatusError:       {MeetingStatusProcessing, MeetingStatusTranscribed},
}

// AllowedFrom returns the statuses from which the target status may be entered.
func (s MeetingStatus) AllowedFrom() []MeetingStatus {
	return statusTransitions[s]
}

// CanTransitionFrom reports whether moving from `from` to s is a legal transition.
func (s MeetingStatus) CanTransitionFrom(from MeetingStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the automatic pipeline stops at this status.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusReady || s == MeetingStatusError
}

// Meeting represents an uploaded recording and its processing state
type Meeting struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string         `json:"title" gorm:"type:varchar(255);not null"`
	Status          MeetingStatus  `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	AudioURL        *string        `json:"audio_url,omitempty" gorm:"type:text"`
	DurationSeconds *int           `json:"duration_seconds,omitempty" gorm:"type:integer"`
	Metadata        datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a new meeting in the pending state
func NewMeeting(title string, audioURL string) *Meeting {
	m := &Meeting{
		ID:        uuid.New(),
		Title:     title,
		Status:    MeetingStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if audioURL != "" {
		m.AudioURL = &audioURL
	}
	return m
}
