package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/model"
	"excel_interviewer_backend/internal/questionbank"
	"excel_interviewer_backend/internal/repository"
	"excel_interviewer_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterviewService tracks session state and sequences questions through the
// fixed category order with a difficulty tier derived from the running
// category average.
type InterviewService struct {
	Repo   *repository.InterviewRepository
	Bank   *questionbank.Bank
	Scorer AnswerScorer
	logger *zap.Logger

	mu     sync.RWMutex
	policy config.InterviewConfig
}

func NewInterviewService(repo *repository.InterviewRepository, bank *questionbank.Bank, scorer AnswerScorer, policy config.InterviewConfig, log *zap.Logger) *InterviewService {
	return &InterviewService{
		Repo:   repo,
		Bank:   bank,
		Scorer: scorer,
		logger: log,
		policy: policy,
	}
}

// UpdatePolicy swaps the tunable thresholds; called by the config watcher.
func (s *InterviewService) UpdatePolicy(policy config.InterviewConfig) {
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()
	s.logger.Info("interview policy updated",
		zap.Float64("low_threshold", policy.LowThreshold),
		zap.Float64("high_threshold", policy.HighThreshold),
		zap.Int("questions_per_category", policy.QuestionsPerCategory))
}

func (s *InterviewService) currentPolicy() config.InterviewConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

type StartResult struct {
	SessionID       string `json:"sessionId"`
	Status          string `json:"status"`
	CurrentCategory string `json:"currentCategory"`
	Message         string `json:"message"`
}

func (s *InterviewService) Start(candidateName string) (*StartResult, error) {
	candidateName = strings.TrimSpace(candidateName)
	if candidateName == "" {
		return nil, util.ErrEmptyCandidateName
	}

	interview := &model.Interview{
		SessionID:       model.GenerateSessionID(),
		CandidateName:   candidateName,
		Status:          model.StatusInProgress,
		CurrentCategory: questionbank.CategoryOrder[0],
	}
	if err := s.Repo.Create(interview); err != nil {
		return nil, err
	}

	s.logger.Info("interview started",
		zap.String("session_id", interview.SessionID),
		zap.String("candidate", candidateName))

	return &StartResult{
		SessionID:       interview.SessionID,
		Status:          interview.Status,
		CurrentCategory: interview.CurrentCategory,
		Message:         welcomeMessage(candidateName),
	}, nil
}

type NextQuestionResult struct {
	Question          *questionbank.Question `json:"question,omitempty"`
	InterviewComplete bool                   `json:"interviewComplete"`
	Message           string                 `json:"message,omitempty"`
}

func (s *InterviewService) NextQuestion(sessionID string) (*NextQuestionResult, error) {
	interview, err := s.findInterview(sessionID)
	if err != nil {
		return nil, err
	}

	if interview.Finished() {
		return &NextQuestionResult{
			InterviewComplete: true,
			Message:           "Interview completed. No more questions available.",
		}, nil
	}

	// At most one question may be outstanding: re-issue the pending one
	// instead of drawing a new question.
	if interview.PendingQuestionID != "" {
		if q := s.Bank.Find(interview.PendingQuestionID); q != nil {
			return &NextQuestionResult{Question: q}, nil
		}
		return nil, util.ErrQuestionNotFound
	}

	responses, err := s.Repo.ListResponses(interview.ID)
	if err != nil {
		return nil, err
	}

	question := s.selectQuestion(interview, responses)
	if question == nil {
		now := time.Now()
		interview.Status = model.StatusCompleted
		interview.CompletedAt = &now
		if err := s.Repo.Update(interview); err != nil {
			return nil, err
		}
		s.logger.Info("interview completed",
			zap.String("session_id", interview.SessionID),
			zap.Int("questions_answered", len(responses)))
		return &NextQuestionResult{
			InterviewComplete: true,
			Message:           "Interview completed. The final report is now available.",
		}, nil
	}

	interview.PendingQuestionID = question.ID
	interview.AppendAskedID(question.ID)
	if err := s.Repo.Update(interview); err != nil {
		return nil, err
	}

	return &NextQuestionResult{Question: question}, nil
}

// selectQuestion walks the category order starting at the interview's current
// category. A category is skipped once its answer cap is reached or its pool
// is exhausted; nil means the interview is over.
func (s *InterviewService) selectQuestion(interview *model.Interview, responses []model.InterviewResponse) *questionbank.Question {
	policy := s.currentPolicy()

	used := make(map[string]bool)
	for _, id := range interview.AskedIDs() {
		used[id] = true
	}

	byCategory := make(map[string][]model.InterviewResponse)
	for _, r := range responses {
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	started := false
	for _, category := range questionbank.CategoryOrder {
		if !started {
			if category != interview.CurrentCategory {
				continue
			}
			started = true
		}

		answered := byCategory[category]
		if len(answered) >= policy.QuestionsPerCategory {
			continue
		}

		tier := difficultyFor(answered, policy.LowThreshold, policy.HighThreshold)
		question := s.Bank.Pick(category, tier, used)
		if question == nil {
			continue
		}

		interview.CurrentCategory = category
		return question
	}

	return nil
}

// difficultyFor derives the tier from the running category average: at or
// above the high threshold hard, at or above the low threshold medium,
// otherwise easy. No scored answers yet means easy.
func difficultyFor(answered []model.InterviewResponse, low, high float64) string {
	if len(answered) == 0 {
		return questionbank.DifficultyEasy
	}
	var sum float64
	for _, r := range answered {
		sum += r.Score
	}
	avg := sum / float64(len(answered))
	switch {
	case avg >= high:
		return questionbank.DifficultyHard
	case avg >= low:
		return questionbank.DifficultyMedium
	default:
		return questionbank.DifficultyEasy
	}
}

type SubmitResult struct {
	QuestionID        string  `json:"questionId"`
	Score             float64 `json:"score"`
	Feedback          string  `json:"feedback"`
	ScoringFallback   bool    `json:"scoringFallback"`
	QuestionsAnswered int     `json:"questionsAnswered"`
}

func (s *InterviewService) SubmitAnswer(ctx context.Context, sessionID, questionID, answerText string) (*SubmitResult, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, util.ErrEmptyAnswer
	}

	interview, err := s.findInterview(sessionID)
	if err != nil {
		return nil, err
	}
	if interview.Finished() {
		return nil, util.ErrInterviewFinished
	}
	if interview.PendingQuestionID == "" {
		return nil, util.ErrNoPendingQuestion
	}
	if questionID != interview.PendingQuestionID {
		return nil, util.ErrQuestionMismatch
	}

	question := s.Bank.Find(questionID)
	if question == nil {
		return nil, util.ErrQuestionNotFound
	}

	result := s.Scorer.ScoreAnswer(ctx, question, answerText)

	answered, err := s.Repo.CountResponses(interview.ID)
	if err != nil {
		return nil, err
	}

	response := &model.InterviewResponse{
		InterviewID:  interview.ID,
		QuestionID:   question.ID,
		QuestionText: question.Text,
		Category:     question.Category,
		Difficulty:   question.Difficulty,
		AnswerText:   answerText,
		Score:        result.Score,
		Feedback:     result.Feedback,
	}
	if err := s.Repo.CreateResponse(response); err != nil {
		return nil, err
	}

	interview.PendingQuestionID = ""
	interview.TotalScore = (interview.TotalScore*float64(answered) + result.Score) / float64(answered+1)
	if err := s.Repo.Update(interview); err != nil {
		return nil, err
	}

	s.logger.Info("answer scored",
		zap.String("session_id", sessionID),
		zap.String("question_id", questionID),
		zap.Float64("score", result.Score),
		zap.Bool("fallback", result.Fallback))

	return &SubmitResult{
		QuestionID:        question.ID,
		Score:             result.Score,
		Feedback:          result.Feedback,
		ScoringFallback:   result.Fallback,
		QuestionsAnswered: int(answered) + 1,
	}, nil
}

func (s *InterviewService) End(sessionID string) (*model.Interview, error) {
	interview, err := s.findInterview(sessionID)
	if err != nil {
		return nil, err
	}
	if interview.Finished() {
		return nil, util.ErrInterviewFinished
	}

	now := time.Now()
	interview.Status = model.StatusEndedEarly
	interview.CompletedAt = &now
	interview.PendingQuestionID = ""
	if err := s.Repo.Update(interview); err != nil {
		return nil, err
	}

	s.logger.Info("interview ended early", zap.String("session_id", sessionID))
	return interview, nil
}

type StatusSnapshot struct {
	SessionID         string  `json:"sessionId"`
	CandidateName     string  `json:"candidateName"`
	Status            string  `json:"status"`
	CurrentCategory   string  `json:"currentCategory"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	TotalQuestions    int     `json:"totalQuestions"`
	CurrentScore      float64 `json:"currentScore"`
	ElapsedMinutes    float64 `json:"elapsedMinutes"`
}

func (s *InterviewService) Status(sessionID string) (*StatusSnapshot, error) {
	interview, err := s.findInterview(sessionID)
	if err != nil {
		return nil, err
	}

	answered, err := s.Repo.CountResponses(interview.ID)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	if interview.CompletedAt != nil {
		end = *interview.CompletedAt
	}

	return &StatusSnapshot{
		SessionID:         interview.SessionID,
		CandidateName:     interview.CandidateName,
		Status:            interview.Status,
		CurrentCategory:   interview.CurrentCategory,
		QuestionsAnswered: int(answered),
		TotalQuestions:    s.totalQuestions(),
		CurrentScore:      interview.TotalScore,
		ElapsedMinutes:    end.Sub(interview.CreatedAt).Minutes(),
	}, nil
}

// totalQuestions estimates the interview length: per category, the smaller of
// the pool size and the cap.
func (s *InterviewService) totalQuestions() int {
	policy := s.currentPolicy()
	total := 0
	for _, category := range questionbank.CategoryOrder {
		size := s.Bank.Size(category)
		if size > policy.QuestionsPerCategory {
			size = policy.QuestionsPerCategory
		}
		total += size
	}
	return total
}

type Transcript struct {
	SessionID     string                    `json:"sessionId"`
	CandidateName string                    `json:"candidateName"`
	Status        string                    `json:"status"`
	StartedAt     time.Time                 `json:"startedAt"`
	CompletedAt   *time.Time                `json:"completedAt,omitempty"`
	Responses     []model.InterviewResponse `json:"responses"`
}

func (s *InterviewService) GetTranscript(sessionID string) (*Transcript, error) {
	interview, err := s.findInterview(sessionID)
	if err != nil {
		return nil, err
	}

	responses, err := s.Repo.ListResponses(interview.ID)
	if err != nil {
		return nil, err
	}

	return &Transcript{
		SessionID:     interview.SessionID,
		CandidateName: interview.CandidateName,
		Status:        interview.Status,
		StartedAt:     interview.CreatedAt,
		CompletedAt:   interview.CompletedAt,
		Responses:     responses,
	}, nil
}

func (s *InterviewService) List(page, limit int) ([]model.Interview, int64, error) {
	return s.Repo.List(page, limit)
}

// Delete purges the session with all of its responses and evaluation.
func (s *InterviewService) Delete(sessionID string) error {
	interview, err := s.findInterview(sessionID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(interview.ID); err != nil {
		return err
	}
	s.logger.Info("interview deleted", zap.String("session_id", sessionID))
	return nil
}

func (s *InterviewService) findInterview(sessionID string) (*model.Interview, error) {
	interview, err := s.Repo.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInterviewNotFound
		}
		return nil, err
	}
	return interview, nil
}

func welcomeMessage(candidateName string) string {
	return fmt.Sprintf("Hello %s! Welcome to the Excel Skills Assessment Interview.\n\n"+
		"I'm your AI interviewer, and I'll be evaluating your Excel knowledge through a series of questions.\n\n"+
		"What to expect:\n"+
		"• The interview will take approximately 25-35 minutes\n"+
		"• Questions will cover different Excel skill levels\n"+
		"• You can explain your answers in detail - the more specific, the better\n"+
		"• There are no trick questions - just demonstrate your knowledge\n\n"+
		"We'll cover:\n"+
		"• Basic Excel operations and navigation\n"+
		"• Formulas and functions\n"+
		"• Data management and analysis\n"+
		"• Advanced features and real-world scenarios\n\n"+
		"Ready to begin? Let's start with some foundational questions!", candidateName)
}
