package questionbank

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	bank, err := Load(filepath.Join("testdata", "questions.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := bank.Total(); got != 4 {
		t.Fatalf("Total = %d, want 4", got)
	}
	if got := bank.Size("basic"); got != 3 {
		t.Fatalf("Size(basic) = %d, want 3", got)
	}
	if got := bank.Size("scenario"); got != 0 {
		t.Fatalf("Size(scenario) = %d, want 0", got)
	}

	q := bank.Find("b2")
	if q == nil {
		t.Fatal("Find(b2) returned nil")
	}
	if q.Category != "basic" {
		t.Errorf("Find(b2).Category = %q, want basic", q.Category)
	}
	if q.Difficulty != DifficultyMedium {
		t.Errorf("Find(b2).Difficulty = %q, want medium", q.Difficulty)
	}
	if len(q.ExpectedTopics) != 2 {
		t.Errorf("Find(b2).ExpectedTopics = %v, want 2 entries", q.ExpectedTopics)
	}

	if bank.Find("nope") != nil {
		t.Error("Find(nope) should return nil")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "does-not-exist.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name       string
		categories map[string][]Question
		wantErr    string
	}{
		{
			name: "unknown category",
			categories: map[string][]Question{
				"expert": {{ID: "x1", Difficulty: DifficultyEasy, Text: "?"}},
			},
			wantErr: "unknown category",
		},
		{
			name: "missing id",
			categories: map[string][]Question{
				"basic": {{Difficulty: DifficultyEasy, Text: "?"}},
			},
			wantErr: "missing id",
		},
		{
			name: "invalid difficulty",
			categories: map[string][]Question{
				"basic": {{ID: "x1", Difficulty: "brutal", Text: "?"}},
			},
			wantErr: "invalid difficulty",
		},
		{
			name: "duplicate id",
			categories: map[string][]Question{
				"basic": {
					{ID: "x1", Difficulty: DifficultyEasy, Text: "?"},
					{ID: "x1", Difficulty: DifficultyHard, Text: "??"},
				},
			},
			wantErr: "duplicate question id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.categories)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestPickPrefersTier(t *testing.T) {
	bank, err := New(map[string][]Question{
		"basic": {
			{ID: "e1", Difficulty: DifficultyEasy, Text: "easy one"},
			{ID: "m1", Difficulty: DifficultyMedium, Text: "medium one"},
			{ID: "h1", Difficulty: DifficultyHard, Text: "hard one"},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	used := map[string]bool{}
	q := bank.Pick("basic", DifficultyHard, used)
	if q == nil || q.ID != "h1" {
		t.Fatalf("Pick(hard) = %v, want h1", q)
	}
}

func TestPickFallsBackWhenTierExhausted(t *testing.T) {
	bank, err := New(map[string][]Question{
		"basic": {
			{ID: "e1", Difficulty: DifficultyEasy, Text: "easy one"},
			{ID: "m1", Difficulty: DifficultyMedium, Text: "medium one"},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	used := map[string]bool{"e1": true}
	q := bank.Pick("basic", DifficultyEasy, used)
	if q == nil || q.ID != "m1" {
		t.Fatalf("Pick with exhausted tier = %v, want fallback m1", q)
	}

	used["m1"] = true
	if q := bank.Pick("basic", DifficultyEasy, used); q != nil {
		t.Fatalf("Pick on empty pool = %v, want nil", q)
	}
}

func TestPickNeverRepeats(t *testing.T) {
	bank, err := New(map[string][]Question{
		"basic": {
			{ID: "e1", Difficulty: DifficultyEasy, Text: "q1"},
			{ID: "e2", Difficulty: DifficultyEasy, Text: "q2"},
			{ID: "e3", Difficulty: DifficultyEasy, Text: "q3"},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	used := map[string]bool{}
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		q := bank.Pick("basic", DifficultyEasy, used)
		if q == nil {
			t.Fatalf("Pick #%d returned nil with %d remaining", i, bank.Remaining("basic", used))
		}
		if seen[q.ID] {
			t.Fatalf("Pick repeated question %q", q.ID)
		}
		seen[q.ID] = true
		used[q.ID] = true
	}

	if got := bank.Remaining("basic", used); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}
}
