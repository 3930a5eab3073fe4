// Package questionbank holds the static interview question catalog. The bank
// is loaded once at startup and never mutated, so it is safe for concurrent
// reads without synchronization.
package questionbank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategoryOrder is the fixed interview progression. The sequencer walks it
// front to back and never revisits a category.
var CategoryOrder = []string{"basic", "intermediate", "advanced", "scenario"}

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// swagger:model Question
type Question struct {
	ID             string   `yaml:"id" json:"questionId"`
	Category       string   `yaml:"-" json:"category"`
	Difficulty     string   `yaml:"difficulty" json:"difficulty"`
	Text           string   `yaml:"question" json:"questionText"`
	ExpectedTopics []string `yaml:"expected_topics" json:"expectedTopics"`
}

type Bank struct {
	categories map[string][]Question
	byID       map[string]*Question
}

// New builds a bank from already-parsed category pools. Mostly useful for
// tests; production code goes through Load.
func New(categories map[string][]Question) (*Bank, error) {
	b := &Bank{
		categories: make(map[string][]Question, len(categories)),
		byID:       make(map[string]*Question),
	}
	known := make(map[string]bool, len(CategoryOrder))
	for _, c := range CategoryOrder {
		known[c] = true
	}

	for category, questions := range categories {
		if !known[category] {
			return nil, fmt.Errorf("question bank: unknown category %q", category)
		}
		pool := make([]Question, len(questions))
		for i, q := range questions {
			if q.ID == "" || q.Text == "" {
				return nil, fmt.Errorf("question bank: category %q entry %d missing id or question text", category, i)
			}
			switch q.Difficulty {
			case DifficultyEasy, DifficultyMedium, DifficultyHard:
			default:
				return nil, fmt.Errorf("question bank: question %q has invalid difficulty %q", q.ID, q.Difficulty)
			}
			q.Category = category
			if _, dup := b.byID[q.ID]; dup {
				return nil, fmt.Errorf("question bank: duplicate question id %q", q.ID)
			}
			pool[i] = q
			b.byID[q.ID] = &pool[i]
		}
		b.categories[category] = pool
	}
	return b, nil
}

// Load reads the bank from a YAML file mapping category name to its question
// list.
func Load(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var categories map[string][]Question
	if err := yaml.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("question bank %s is empty", path)
	}
	return New(categories)
}

// Find returns the question with the given id, or nil.
func (b *Bank) Find(id string) *Question {
	return b.byID[id]
}

// Size reports how many questions a category holds.
func (b *Bank) Size(category string) int {
	return len(b.categories[category])
}

// Total reports the number of questions across all categories.
func (b *Bank) Total() int {
	return len(b.byID)
}

// Pick selects an unused question from the category, preferring the requested
// difficulty tier and falling back to any unused question when the tier pool
// is exhausted. Returns nil when the whole category is used up.
func (b *Bank) Pick(category, difficulty string, used map[string]bool) *Question {
	var fallback *Question
	for i := range b.categories[category] {
		q := &b.categories[category][i]
		if used[q.ID] {
			continue
		}
		if q.Difficulty == difficulty {
			return q
		}
		if fallback == nil {
			fallback = q
		}
	}
	return fallback
}

// Remaining counts unused questions in a category.
func (b *Bank) Remaining(category string, used map[string]bool) int {
	n := 0
	for _, q := range b.categories[category] {
		if !used[q.ID] {
			n++
		}
	}
	return n
}
