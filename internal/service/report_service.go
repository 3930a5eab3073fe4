package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"excel_interviewer_backend/internal/model"
	"excel_interviewer_backend/internal/repository"
	"excel_interviewer_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Proficiency bands over the overall score.
const (
	ProficiencyExpert       = "advanced"
	ProficiencyIntermediate = "intermediate"
	ProficiencyBeginner     = "beginner"
	ProficiencyNovice       = "novice"

	advancedMin     = 85.0
	intermediateMin = 70.0
	beginnerMin     = 55.0
)

const narrativeUnavailable = "Narrative generation was unavailable. The scores above are computed from the recorded answers."

// Report is the final aggregated result. The deterministic fields
// (categoryScores, overallScore, proficiencyLevel) are a pure function of the
// stored responses; the narrative fields are best-effort model output.
// swagger:model Report
type Report struct {
	SessionID                string             `json:"sessionId"`
	CandidateName            string             `json:"candidateName"`
	Status                   string             `json:"status"`
	OverallScore             float64            `json:"overallScore"`
	ProficiencyLevel         string             `json:"proficiencyLevel"`
	CategoryScores           map[string]float64 `json:"categoryScores"`
	ExecutiveSummary         string             `json:"executiveSummary"`
	Strengths                []string           `json:"strengths"`
	Weaknesses               []string           `json:"weaknesses"`
	Recommendations          []string           `json:"recommendations"`
	DetailedFeedback         string             `json:"detailedFeedback"`
	NarrativeAvailable       bool               `json:"narrativeAvailable"`
	InterviewDurationMinutes float64            `json:"interviewDurationMinutes"`
}

// ReportService aggregates responses into the final report and caches the
// result. The redis client may be nil; caching is then skipped.
type ReportService struct {
	Repo     *repository.InterviewRepository
	Scorer   AnswerScorer
	Redis    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewReportService(repo *repository.InterviewRepository, scorer AnswerScorer, rdb *redis.Client, cacheTTLMinutes int, log *zap.Logger) *ReportService {
	return &ReportService{
		Repo:     repo,
		Scorer:   scorer,
		Redis:    rdb,
		cacheTTL: time.Duration(cacheTTLMinutes) * time.Minute,
		logger:   log,
	}
}

// GenerateReport returns the report for a completed or early-ended interview.
// The first call computes and persists the evaluation; later calls serve the
// stored (or cached) result.
func (s *ReportService) GenerateReport(ctx context.Context, sessionID string) (*Report, error) {
	interview, err := s.Repo.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInterviewNotFound
		}
		return nil, err
	}
	if !interview.Finished() {
		return nil, util.ErrReportNotReady
	}

	if cached := s.fromCache(ctx, sessionID); cached != nil {
		return cached, nil
	}

	evaluation, err := s.Repo.FindEvaluation(interview.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if evaluation == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		evaluation, err = s.evaluate(ctx, interview)
		if err != nil {
			return nil, err
		}
	}

	report := s.assemble(interview, evaluation)
	s.toCache(ctx, sessionID, report)
	return report, nil
}

// evaluate computes the deterministic aggregates, requests the narrative, and
// persists the evaluation row. Narrative failure degrades to a partial
// report; it never fails the request.
func (s *ReportService) evaluate(ctx context.Context, interview *model.Interview) (*model.Evaluation, error) {
	responses, err := s.Repo.ListResponses(interview.ID)
	if err != nil {
		return nil, err
	}

	categoryScores := CategoryMeans(responses)
	overall := OverallScore(categoryScores)

	evaluation := &model.Evaluation{
		InterviewID:      interview.ID,
		OverallScore:     overall,
		ProficiencyLevel: ProficiencyLabel(overall),
	}
	evaluation.CategoryScores, _ = json.Marshal(categoryScores)

	narrative, err := s.Scorer.GenerateNarrative(ctx, transcriptOf(responses), categoryScores, overall)
	if err != nil {
		s.logger.Warn("narrative generation unavailable, producing partial report",
			zap.String("session_id", interview.SessionID), zap.Error(err))
		evaluation.DetailedReport = narrativeUnavailable
		evaluation.Strengths, _ = json.Marshal([]string{})
		evaluation.Weaknesses, _ = json.Marshal([]string{})
		evaluation.Recommendations, _ = json.Marshal([]string{})
	} else {
		evaluation.NarrativeAvailable = true
		evaluation.DetailedReport = narrative.DetailedAnalysis
		evaluation.Strengths, _ = json.Marshal(narrative.Strengths)
		evaluation.Weaknesses, _ = json.Marshal(narrative.Weaknesses)
		evaluation.Recommendations, _ = json.Marshal(narrative.Recommendations)
		if narrative.ExecutiveSummary != "" {
			evaluation.DetailedReport = narrative.ExecutiveSummary + "\n\n" + narrative.DetailedAnalysis
		}
	}

	if err := s.Repo.CreateEvaluation(evaluation); err != nil {
		return nil, err
	}

	interview.TotalScore = overall
	if err := s.Repo.Update(interview); err != nil {
		return nil, err
	}

	s.logger.Info("final report generated",
		zap.String("session_id", interview.SessionID),
		zap.Float64("overall_score", overall),
		zap.String("proficiency", evaluation.ProficiencyLevel),
		zap.Bool("narrative_available", evaluation.NarrativeAvailable))

	return evaluation, nil
}

func (s *ReportService) assemble(interview *model.Interview, ev *model.Evaluation) *Report {
	report := &Report{
		SessionID:          interview.SessionID,
		CandidateName:      interview.CandidateName,
		Status:             interview.Status,
		OverallScore:       ev.OverallScore,
		ProficiencyLevel:   ev.ProficiencyLevel,
		CategoryScores:     map[string]float64{},
		Strengths:          []string{},
		Weaknesses:         []string{},
		Recommendations:    []string{},
		DetailedFeedback:   ev.DetailedReport,
		NarrativeAvailable: ev.NarrativeAvailable,
	}
	json.Unmarshal(ev.CategoryScores, &report.CategoryScores)
	json.Unmarshal(ev.Strengths, &report.Strengths)
	json.Unmarshal(ev.Weaknesses, &report.Weaknesses)
	json.Unmarshal(ev.Recommendations, &report.Recommendations)

	if interview.CompletedAt != nil {
		report.InterviewDurationMinutes = interview.CompletedAt.Sub(interview.CreatedAt).Minutes()
	}
	return report
}

func (s *ReportService) fromCache(ctx context.Context, sessionID string) *Report {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(ctx, reportCacheKey(sessionID)).Bytes()
	if err != nil {
		return nil
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil
	}
	return &report
}

func (s *ReportService) toCache(ctx context.Context, sessionID string, report *Report) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, reportCacheKey(sessionID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("report cache write failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// InvalidateCache drops a cached report; used when a session is deleted.
func (s *ReportService) InvalidateCache(ctx context.Context, sessionID string) {
	if s.Redis == nil {
		return
	}
	s.Redis.Del(ctx, reportCacheKey(sessionID))
}

func reportCacheKey(sessionID string) string {
	return "interview:report:" + sessionID
}

// CategoryMeans computes the arithmetic mean per category. Categories with no
// responses are omitted.
func CategoryMeans(responses []model.InterviewResponse) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range responses {
		sums[r.Category] += r.Score
		counts[r.Category]++
	}

	means := make(map[string]float64, len(sums))
	for category, sum := range sums {
		means[category] = sum / float64(counts[category])
	}
	return means
}

// OverallScore is the mean of the category means, zero when nothing was
// answered.
func OverallScore(categoryScores map[string]float64) float64 {
	if len(categoryScores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range categoryScores {
		sum += v
	}
	return sum / float64(len(categoryScores))
}

// ProficiencyLabel maps the overall score onto the fixed bands.
func ProficiencyLabel(overall float64) string {
	switch {
	case overall >= advancedMin:
		return ProficiencyExpert
	case overall >= intermediateMin:
		return ProficiencyIntermediate
	case overall >= beginnerMin:
		return ProficiencyBeginner
	default:
		return ProficiencyNovice
	}
}

func transcriptOf(responses []model.InterviewResponse) []TranscriptEntry {
	entries := make([]TranscriptEntry, len(responses))
	for i, r := range responses {
		entries[i] = TranscriptEntry{
			Category:   r.Category,
			Difficulty: r.Difficulty,
			Question:   r.QuestionText,
			Answer:     r.AnswerText,
			Score:      r.Score,
			Feedback:   r.Feedback,
		}
	}
	return entries
}
