package model

import (
	"encoding/json"
	"time"
)

// Interview status values. Transitions are one-directional: an interview
// leaves StatusInProgress exactly once and never returns to it.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusEndedEarly = "ended_early"
)

// Interview is one candidate session.
// swagger:model Interview
type Interview struct {
	BaseModel
	SessionID       string          `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	CandidateName   string          `gorm:"size:255;not null" json:"candidateName"`
	Status          string          `gorm:"size:20;default:'in_progress'" json:"status"`
	CurrentCategory string          `gorm:"size:50" json:"currentCategory"`
	// PendingQuestionID is the single issued-but-unanswered question. Empty
	// when no question is outstanding.
	PendingQuestionID string          `gorm:"size:100" json:"pendingQuestionId"`
	AskedQuestions    json.RawMessage `gorm:"type:json" json:"askedQuestions"` // ordered []string of issued question ids
	TotalScore        float64         `gorm:"default:0" json:"totalScore"`
	CompletedAt       *time.Time      `json:"completedAt,omitempty"`
}

func (Interview) TableName() string {
	return "interviews"
}

func (i *Interview) Finished() bool {
	return i.Status == StatusCompleted || i.Status == StatusEndedEarly
}

// AskedIDs decodes the consumed-question list. A corrupt column is treated
// as empty rather than failing the session.
func (i *Interview) AskedIDs() []string {
	if len(i.AskedQuestions) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(i.AskedQuestions, &ids); err != nil {
		return nil
	}
	return ids
}

func (i *Interview) AppendAskedID(id string) {
	ids := append(i.AskedIDs(), id)
	raw, _ := json.Marshal(ids)
	i.AskedQuestions = raw
}
