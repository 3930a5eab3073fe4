package model

import "encoding/json"

// Evaluation stores the aggregated result of one interview. The deterministic
// columns (scores, label) are reproducible from the interview's responses;
// the narrative columns are best-effort model output.
// swagger:model Evaluation
type Evaluation struct {
	BaseModel
	InterviewID        uint            `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"interviewId"`
	CategoryScores     json.RawMessage `gorm:"type:json" json:"categoryScores"` // map[category]mean
	OverallScore       float64         `gorm:"default:0" json:"overallScore"`
	ProficiencyLevel   string          `gorm:"size:20" json:"proficiencyLevel"`
	Strengths          json.RawMessage `gorm:"type:json" json:"strengths"`
	Weaknesses         json.RawMessage `gorm:"type:json" json:"weaknesses"`
	Recommendations    json.RawMessage `gorm:"type:json" json:"recommendations"`
	DetailedReport     string          `gorm:"type:text" json:"detailedReport"`
	NarrativeAvailable bool            `gorm:"default:false" json:"narrativeAvailable"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
