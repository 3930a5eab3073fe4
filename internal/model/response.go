package model

// InterviewResponse is one scored answer. Rows are immutable once written.
// swagger:model InterviewResponse
type InterviewResponse struct {
	BaseModel
	InterviewID  uint    `gorm:"index;type:bigint unsigned;not null" json:"interviewId"`
	QuestionID   string  `gorm:"size:100;not null" json:"questionId"`
	QuestionText string  `gorm:"type:text;not null" json:"questionText"`
	Category     string  `gorm:"size:50;index" json:"category"`
	Difficulty   string  `gorm:"size:20" json:"difficulty"`
	AnswerText   string  `gorm:"type:text;not null" json:"answerText"`
	Score        float64 `gorm:"not null" json:"score"`
	Feedback     string  `gorm:"type:text" json:"feedback"`
}

func (InterviewResponse) TableName() string {
	return "interview_responses"
}
