package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/questionbank"
	"excel_interviewer_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// NeutralScore is returned when scoring fails. The interview proceeds; the
// feedback string tells the reader why the score is a placeholder.
const NeutralScore = 60.0

const neutralFeedback = "Automated scoring was unavailable for this answer. " +
	"A neutral placeholder score was assigned; manual review is recommended."

type ScoreResult struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Fallback bool    `json:"-"`
}

// TranscriptEntry is one answered question, used as narrative context.
type TranscriptEntry struct {
	Category   string  `json:"category"`
	Difficulty string  `json:"difficulty"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback,omitempty"`
}

// Narrative is the model-generated part of the final report. The proficiency
// label is deliberately absent: it is derived from score bands, not from the
// model.
type Narrative struct {
	ExecutiveSummary string   `json:"executive_summary"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Recommendations  []string `json:"recommendations"`
	DetailedAnalysis string   `json:"detailed_analysis"`
}

// AnswerScorer is implemented by the scoring client and stubbed in tests.
type AnswerScorer interface {
	// ScoreAnswer never fails: upstream errors are absorbed into a neutral
	// fallback result.
	ScoreAnswer(ctx context.Context, q *questionbank.Question, answer string) ScoreResult
	GenerateNarrative(ctx context.Context, transcript []TranscriptEntry, categoryScores map[string]float64, overall float64) (*Narrative, error)
}

// ScoringService talks to an OpenAI-compatible chat-completions endpoint.
type ScoringService struct {
	cfg    config.AIConfig
	client *http.Client
	logger *zap.Logger
}

func NewScoringService(cfg config.AIConfig, log *zap.Logger) *ScoringService {
	return &ScoringService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []aiChatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message aiChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const scoringSystemPrompt = `You are an expert Excel interviewer evaluating candidate responses.

EVALUATION CRITERIA:
- Technical Accuracy (40%): Is the answer technically correct?
- Completeness (30%): Does it fully address the question?
- Clarity (20%): Is the explanation clear and well-structured?
- Practical Application (10%): Shows real-world understanding?

SCORING SCALE:
- 90-100: Excellent, comprehensive answer with advanced insights
- 80-89: Good answer, covers most key points accurately
- 70-79: Adequate answer, basic understanding demonstrated
- 60-69: Partial answer, some gaps in knowledge
- 50-59: Weak answer, significant misunderstandings
- Below 50: Incorrect or inadequate response

Respond ONLY with a valid JSON object. Do NOT include any explanation, markdown, or extra text.
{"score": <number between 0-100>, "feedback": "<specific, constructive feedback explaining the score>"}`

func (s *ScoringService) ScoreAnswer(ctx context.Context, q *questionbank.Question, answer string) ScoreResult {
	prompt := fmt.Sprintf(
		"QUESTION (category: %s, difficulty: %s):\n%s\n\nEXPECTED TOPICS: %s\n\nCANDIDATE ANSWER:\n%s",
		q.Category, q.Difficulty, q.Text, strings.Join(q.ExpectedTopics, ", "), answer,
	)

	content, err := s.chat(ctx, scoringSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn("scoring call failed, using neutral fallback",
			zap.String("question_id", q.ID), zap.Error(err))
		monitoring.ScoringCalls.WithLabelValues("fallback").Inc()
		return ScoreResult{Score: NeutralScore, Feedback: neutralFeedback, Fallback: true}
	}

	raw, ok := extractJSON(content)
	if !ok {
		s.logger.Warn("scoring response had no parseable JSON",
			zap.String("question_id", q.ID), zap.String("preview", preview(content)))
		monitoring.ScoringCalls.WithLabelValues("fallback").Inc()
		return ScoreResult{Score: NeutralScore, Feedback: neutralFeedback, Fallback: true}
	}

	var result ScoreResult
	if err := json.Unmarshal(raw, &result); err != nil || result.Feedback == "" {
		s.logger.Warn("scoring response failed validation",
			zap.String("question_id", q.ID), zap.Error(err))
		monitoring.ScoringCalls.WithLabelValues("fallback").Inc()
		return ScoreResult{Score: NeutralScore, Feedback: neutralFeedback, Fallback: true}
	}

	result.Score = clampScore(result.Score)
	monitoring.ScoringCalls.WithLabelValues("ok").Inc()
	return result
}

const narrativeSystemPrompt = `You are an expert Excel interviewer writing a final skills assessment report.

REPORT REQUIREMENTS:
- Professional tone
- Specific, actionable feedback
- Evidence-based conclusions
- Clear improvement roadmap

Respond ONLY with a valid JSON object:
{
  "executive_summary": "2-3 sentence professional overview",
  "strengths": ["strength1", "strength2", "strength3"],
  "weaknesses": ["weakness1", "weakness2", "weakness3"],
  "recommendations": ["actionable recommendation1", "actionable recommendation2"],
  "detailed_analysis": "Comprehensive paragraph analyzing performance across all areas"
}`

func (s *ScoringService) GenerateNarrative(ctx context.Context, transcript []TranscriptEntry, categoryScores map[string]float64, overall float64) (*Narrative, error) {
	transcriptJSON, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return nil, err
	}
	scoresJSON, err := json.Marshal(categoryScores)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(
		"INTERVIEW DATA:\n- Total Questions: %d\n- Overall Score: %.1f/100\n- Category Breakdown: %s\n\nTRANSCRIPT:\n%s",
		len(transcript), overall, scoresJSON, transcriptJSON,
	)

	content, err := s.chat(ctx, narrativeSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSON(content)
	if !ok {
		return nil, fmt.Errorf("narrative response had no parseable JSON: %s", preview(content))
	}

	var narrative Narrative
	if err := json.Unmarshal(raw, &narrative); err != nil {
		return nil, fmt.Errorf("decode narrative: %w", err)
	}
	if narrative.DetailedAnalysis == "" && len(narrative.Strengths) == 0 {
		return nil, fmt.Errorf("narrative response was empty")
	}
	return &narrative, nil
}

func (s *ScoringService) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []aiChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, preview(string(body)))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

var jsonBlockRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// extractJSON digs a JSON document out of model text: direct parse first,
// then the widest brace/bracket span, then a fenced code block.
func extractJSON(content string) ([]byte, bool) {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), true
	}

	if m := jsonBlockRe.FindString(trimmed); m != "" && json.Valid([]byte(m)) {
		return []byte(m), true
	}

	if idx := strings.Index(trimmed, "```json"); idx >= 0 {
		rest := trimmed[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if json.Valid([]byte(candidate)) {
				return []byte(candidate), true
			}
		}
	}

	return nil, false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
