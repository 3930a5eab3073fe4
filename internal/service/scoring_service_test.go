package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"excel_interviewer_backend/internal/config"
	"excel_interviewer_backend/internal/questionbank"

	"go.uber.org/zap"
)

var testQuestion = &questionbank.Question{
	ID:             "b1",
	Category:       "basic",
	Difficulty:     "easy",
	Text:           "What is a worksheet?",
	ExpectedTopics: []string{"worksheets"},
}

// chatServer wraps an httptest server that answers every chat-completions call
// with the given assistant message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("missing bearer token, got %q", auth)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScorer(baseURL string) *ScoringService {
	return NewScoringService(config.AIConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestScoreAnswerParsesJSON(t *testing.T) {
	srv := chatServer(t, `{"score": 87.5, "feedback": "Solid explanation."}`)
	s := newTestScorer(srv.URL)

	result := s.ScoreAnswer(context.Background(), testQuestion, "A worksheet is a single sheet of cells.")
	if result.Fallback {
		t.Fatal("expected a real score, got fallback")
	}
	if result.Score != 87.5 {
		t.Errorf("Score = %v, want 87.5", result.Score)
	}
	if result.Feedback != "Solid explanation." {
		t.Errorf("Feedback = %q", result.Feedback)
	}
}

func TestScoreAnswerParsesFencedJSON(t *testing.T) {
	srv := chatServer(t, "Here is my evaluation:\n```json\n{\"score\": 72, \"feedback\": \"Covers the basics.\"}\n```")
	s := newTestScorer(srv.URL)

	result := s.ScoreAnswer(context.Background(), testQuestion, "answer")
	if result.Fallback {
		t.Fatal("expected a real score, got fallback")
	}
	if result.Score != 72 {
		t.Errorf("Score = %v, want 72", result.Score)
	}
}

func TestScoreAnswerClampsOutOfRange(t *testing.T) {
	srv := chatServer(t, `{"score": 140, "feedback": "over-enthusiastic"}`)
	s := newTestScorer(srv.URL)

	result := s.ScoreAnswer(context.Background(), testQuestion, "answer")
	if result.Score != 100 {
		t.Errorf("Score = %v, want clamped to 100", result.Score)
	}

	srv2 := chatServer(t, `{"score": -5, "feedback": "harsh"}`)
	s2 := newTestScorer(srv2.URL)
	result = s2.ScoreAnswer(context.Background(), testQuestion, "answer")
	if result.Score != 0 {
		t.Errorf("Score = %v, want clamped to 0", result.Score)
	}
}

func TestScoreAnswerFallbackOnGarbage(t *testing.T) {
	srv := chatServer(t, "I think this answer deserves a high score!")
	s := newTestScorer(srv.URL)

	result := s.ScoreAnswer(context.Background(), testQuestion, "answer")
	if !result.Fallback {
		t.Fatal("expected fallback for unparseable response")
	}
	if result.Score != NeutralScore {
		t.Errorf("Score = %v, want neutral %v", result.Score, NeutralScore)
	}
	if result.Feedback == "" {
		t.Error("fallback feedback should not be empty")
	}
}

func TestScoreAnswerFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	s := newTestScorer(srv.URL)

	result := s.ScoreAnswer(context.Background(), testQuestion, "answer")
	if !result.Fallback {
		t.Fatal("expected fallback on 502")
	}
	if result.Score != NeutralScore {
		t.Errorf("Score = %v, want neutral %v", result.Score, NeutralScore)
	}
}

func TestScoreAnswerFallbackOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	s := NewScoringService(config.AIConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 20 * time.Millisecond,
	}, zap.NewNop())

	result := s.ScoreAnswer(context.Background(), testQuestion, "answer")
	if !result.Fallback {
		t.Fatal("expected fallback on timeout")
	}
}

func TestGenerateNarrative(t *testing.T) {
	srv := chatServer(t, `{
		"executive_summary": "A capable candidate.",
		"strengths": ["formulas", "pivot tables"],
		"weaknesses": ["macros"],
		"recommendations": ["practice Power Query"],
		"detailed_analysis": "The candidate showed consistent intermediate skills."
	}`)
	s := newTestScorer(srv.URL)

	narrative, err := s.GenerateNarrative(context.Background(),
		[]TranscriptEntry{{Category: "basic", Question: "q", Answer: "a", Score: 80}},
		map[string]float64{"basic": 80}, 80)
	if err != nil {
		t.Fatalf("GenerateNarrative failed: %v", err)
	}
	if narrative.ExecutiveSummary != "A capable candidate." {
		t.Errorf("ExecutiveSummary = %q", narrative.ExecutiveSummary)
	}
	if len(narrative.Strengths) != 2 {
		t.Errorf("Strengths = %v, want 2 entries", narrative.Strengths)
	}
}

func TestGenerateNarrativeErrorSurfaces(t *testing.T) {
	srv := chatServer(t, "not json at all")
	s := newTestScorer(srv.URL)

	if _, err := s.GenerateNarrative(context.Background(), nil, nil, 0); err == nil {
		t.Fatal("expected error for unparseable narrative")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"prefix {\"a\":1} suffix", `{"a":1}`, true},
		{"```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"no json here", "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSON(tc.in)
		if ok != tc.ok {
			t.Errorf("extractJSON(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && string(got) != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
