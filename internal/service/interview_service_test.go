package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/model"
	"excel_interviewer_backend/internal/questionbank"
	"excel_interviewer_backend/internal/repository"
	"excel_interviewer_backend/internal/util"
	"excel_interviewer_backend/pkg/database"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestBank(t *testing.T) *questionbank.Bank {
	t.Helper()
	bank, err := questionbank.New(map[string][]questionbank.Question{
		"basic": {
			{ID: "b-easy", Difficulty: "easy", Text: "basic easy"},
			{ID: "b-med", Difficulty: "medium", Text: "basic medium"},
			{ID: "b-hard", Difficulty: "hard", Text: "basic hard"},
		},
		"intermediate": {
			{ID: "i-easy", Difficulty: "easy", Text: "intermediate easy"},
			{ID: "i-med", Difficulty: "medium", Text: "intermediate medium"},
			{ID: "i-hard", Difficulty: "hard", Text: "intermediate hard"},
		},
		"advanced": {
			{ID: "a-easy", Difficulty: "easy", Text: "advanced easy"},
			{ID: "a-med", Difficulty: "medium", Text: "advanced medium"},
			{ID: "a-hard", Difficulty: "hard", Text: "advanced hard"},
		},
		"scenario": {
			{ID: "s-easy", Difficulty: "easy", Text: "scenario easy"},
			{ID: "s-med", Difficulty: "medium", Text: "scenario medium"},
			{ID: "s-hard", Difficulty: "hard", Text: "scenario hard"},
		},
	})
	if err != nil {
		t.Fatalf("build bank: %v", err)
	}
	return bank
}

// stubScorer returns a fixed score for every answer and a canned narrative.
type stubScorer struct {
	score        float64
	narrativeErr error
}

func (s *stubScorer) ScoreAnswer(_ context.Context, _ *questionbank.Question, _ string) ScoreResult {
	return ScoreResult{Score: s.score, Feedback: "stub feedback"}
}

func (s *stubScorer) GenerateNarrative(_ context.Context, _ []TranscriptEntry, _ map[string]float64, _ float64) (*Narrative, error) {
	if s.narrativeErr != nil {
		return nil, s.narrativeErr
	}
	return &Narrative{
		ExecutiveSummary: "Summary.",
		Strengths:        []string{"formulas"},
		Weaknesses:       []string{"macros"},
		Recommendations:  []string{"practice"},
		DetailedAnalysis: "Detailed analysis.",
	}, nil
}

func testPolicy() config.InterviewConfig {
	return config.InterviewConfig{
		QuestionsPerCategory: 3,
		LowThreshold:         60,
		HighThreshold:        80,
	}
}

func newTestInterviewService(t *testing.T, scorer AnswerScorer) *InterviewService {
	t.Helper()
	repo := repository.NewInterviewRepository(newTestDB(t))
	return NewInterviewService(repo, newTestBank(t), scorer, testPolicy(), zap.NewNop())
}

func TestStartRejectsEmptyName(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	if _, err := svc.Start("   "); !errors.Is(err, util.ErrEmptyCandidateName) {
		t.Fatalf("err = %v, want ErrEmptyCandidateName", err)
	}
}

func TestStartCreatesSession(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})

	result, err := svc.Start("Ada")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if result.SessionID == "" {
		t.Fatal("empty session id")
	}
	if result.Status != model.StatusInProgress {
		t.Errorf("Status = %q, want in_progress", result.Status)
	}
	if result.CurrentCategory != "basic" {
		t.Errorf("CurrentCategory = %q, want basic", result.CurrentCategory)
	}
	if result.Message == "" {
		t.Error("welcome message should not be empty")
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	if _, err := svc.NextQuestion("no-such-session"); !errors.Is(err, util.ErrInterviewNotFound) {
		t.Fatalf("err = %v, want ErrInterviewNotFound", err)
	}
}

func TestFullInterviewFlow(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})

	start, err := svc.Start("Ada")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	seen := map[string]bool{}
	answered := 0
	for {
		next, err := svc.NextQuestion(start.SessionID)
		if err != nil {
			t.Fatalf("NextQuestion #%d failed: %v", answered, err)
		}
		if next.InterviewComplete {
			break
		}
		if seen[next.Question.ID] {
			t.Fatalf("question %q issued twice", next.Question.ID)
		}
		seen[next.Question.ID] = true

		submit, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "my answer")
		if err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		answered++
		if submit.QuestionsAnswered != answered {
			t.Errorf("QuestionsAnswered = %d, want %d", submit.QuestionsAnswered, answered)
		}
		if answered > 20 {
			t.Fatal("interview never completed")
		}
	}

	// Every category holds 3 questions, matching the cap.
	if answered != 12 {
		t.Errorf("answered %d questions, want 12", answered)
	}

	status, err := svc.Status(start.SessionID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Status != model.StatusCompleted {
		t.Errorf("Status = %q, want completed", status.Status)
	}
	if status.QuestionsAnswered != 12 {
		t.Errorf("QuestionsAnswered = %d, want 12", status.QuestionsAnswered)
	}
	if status.CurrentScore != 70 {
		t.Errorf("CurrentScore = %v, want 70", status.CurrentScore)
	}

	// Completed interviews report completion instead of drawing questions.
	next, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion after completion failed: %v", err)
	}
	if !next.InterviewComplete {
		t.Error("expected InterviewComplete after all questions answered")
	}
}

func TestPendingQuestionIsReissued(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	start, _ := svc.Start("Ada")

	first, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	second, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("second NextQuestion failed: %v", err)
	}
	if first.Question.ID != second.Question.ID {
		t.Fatalf("pending question changed: %q then %q", first.Question.ID, second.Question.ID)
	}

	// Answering it clears the pending state and the next draw differs.
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, first.Question.ID, "answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	third, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("third NextQuestion failed: %v", err)
	}
	if third.Question.ID == first.Question.ID {
		t.Fatal("answered question was issued again")
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	start, _ := svc.Start("Ada")

	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, "b-easy", "  "); !errors.Is(err, util.ErrEmptyAnswer) {
		t.Errorf("empty answer: err = %v, want ErrEmptyAnswer", err)
	}

	// Nothing issued yet.
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, "b-easy", "answer"); !errors.Is(err, util.ErrNoPendingQuestion) {
		t.Errorf("no pending: err = %v, want ErrNoPendingQuestion", err)
	}

	next, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}

	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, "i-hard", "answer"); !errors.Is(err, util.ErrQuestionMismatch) {
		t.Errorf("wrong id: err = %v, want ErrQuestionMismatch", err)
	}

	// A second submit for the same question must not double-record.
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "again"); !errors.Is(err, util.ErrNoPendingQuestion) {
		t.Errorf("resubmit: err = %v, want ErrNoPendingQuestion", err)
	}
}

func TestDifficultyEscalatesOnHighScores(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 90})
	start, _ := svc.Start("Ada")

	first, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if first.Question.Difficulty != "easy" {
		t.Fatalf("first question difficulty = %q, want easy", first.Question.Difficulty)
	}
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, first.Question.ID, "great answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	// Running average of 90 is above the high threshold.
	second, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if second.Question.Difficulty != "hard" {
		t.Errorf("second question difficulty = %q, want hard", second.Question.Difficulty)
	}
	if second.Question.Category != "basic" {
		t.Errorf("second question category = %q, want basic", second.Question.Category)
	}
}

func TestDifficultyStaysEasyOnLowScores(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 40})
	start, _ := svc.Start("Ada")

	first, _ := svc.NextQuestion(start.SessionID)
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, first.Question.ID, "weak answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	second, err := svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	// The easy slot is used up, so the tier falls back to the next unused
	// question rather than jumping to hard.
	if second.Question.Difficulty == "hard" {
		t.Errorf("second question difficulty = hard, want easy or medium after a low score")
	}
}

func TestEndInterviewEarly(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	start, _ := svc.Start("Ada")

	next, _ := svc.NextQuestion(start.SessionID)
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	interview, err := svc.End(start.SessionID)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if interview.Status != model.StatusEndedEarly {
		t.Errorf("Status = %q, want ended_early", interview.Status)
	}
	if interview.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	// Terminal states reject further transitions and answers.
	if _, err := svc.End(start.SessionID); !errors.Is(err, util.ErrInterviewFinished) {
		t.Errorf("second End: err = %v, want ErrInterviewFinished", err)
	}
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, "b-easy", "answer"); !errors.Is(err, util.ErrInterviewFinished) {
		t.Errorf("submit after end: err = %v, want ErrInterviewFinished", err)
	}

	next, err = svc.NextQuestion(start.SessionID)
	if err != nil {
		t.Fatalf("NextQuestion after end failed: %v", err)
	}
	if !next.InterviewComplete {
		t.Error("expected InterviewComplete after early end")
	}
}

func TestUpdatePolicyTakesEffect(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	start, _ := svc.Start("Ada")

	policy := testPolicy()
	policy.QuestionsPerCategory = 1
	svc.UpdatePolicy(policy)

	// One answer per category, four categories.
	answered := 0
	for {
		next, err := svc.NextQuestion(start.SessionID)
		if err != nil {
			t.Fatalf("NextQuestion failed: %v", err)
		}
		if next.InterviewComplete {
			break
		}
		if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "answer"); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
		answered++
		if answered > 10 {
			t.Fatal("interview never completed")
		}
	}
	if answered != 4 {
		t.Errorf("answered %d questions, want 4 with a cap of 1", answered)
	}
}

func TestDeletePurgesResponses(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewInterviewRepository(db)
	svc := NewInterviewService(repo, newTestBank(t), &stubScorer{score: 70}, testPolicy(), zap.NewNop())

	start, _ := svc.Start("Ada")
	next, _ := svc.NextQuestion(start.SessionID)
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	if err := svc.Delete(start.SessionID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Status(start.SessionID); !errors.Is(err, util.ErrInterviewNotFound) {
		t.Errorf("Status after delete: err = %v, want ErrInterviewNotFound", err)
	}

	var count int64
	if err := db.Model(&model.InterviewResponse{}).Count(&count).Error; err != nil {
		t.Fatalf("count responses: %v", err)
	}
	if count != 0 {
		t.Errorf("responses left after delete: %d", count)
	}
}

func TestGetTranscript(t *testing.T) {
	svc := newTestInterviewService(t, &stubScorer{score: 70})
	start, _ := svc.Start("Ada")

	next, _ := svc.NextQuestion(start.SessionID)
	if _, err := svc.SubmitAnswer(context.Background(), start.SessionID, next.Question.ID, "my answer"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	transcript, err := svc.GetTranscript(start.SessionID)
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}
	if transcript.CandidateName != "Ada" {
		t.Errorf("CandidateName = %q", transcript.CandidateName)
	}
	if len(transcript.Responses) != 1 {
		t.Fatalf("Responses = %d, want 1", len(transcript.Responses))
	}
	r := transcript.Responses[0]
	if r.QuestionID != next.Question.ID || r.AnswerText != "my answer" || r.Score != 70 {
		t.Errorf("unexpected response row: %+v", r)
	}
}
