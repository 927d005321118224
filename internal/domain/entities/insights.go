package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItem is a single extracted follow-up from a meeting
type ActionItem struct {
	Text     string `json:"text"`
	Assignee string `json:"assignee,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

// MeetingInsights holds the derived summary, action items and topics, one per meeting
type MeetingInsights struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID    `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	Summary     string       `json:"summary" gorm:"type:text"`
	ActionItems []ActionItem `json:"action_items,omitempty" gorm:"type:jsonb;serializer:json"`
	KeyTopics   []string     `json:"key_topics,omitempty" gorm:"type:jsonb;serializer:json"`
	ModelUsed   string       `json:"model_used,omitempty" gorm:"type:varchar(100)"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (MeetingInsights) TableName() string {
	return "meeting_insights"
}

// NewMeetingInsights creates a new insights record
func NewMeetingInsights(meetingID uuid.UUID) *MeetingInsights {
	return &MeetingInsights{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		ActionItems: []ActionItem{},
		KeyTopics:   []string{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
