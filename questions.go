package main

import (
	"crypto/rand"
	_ "embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
)

// Question is one entry in the bank: an image holding the prompt and its
// option text, the token of the correct option, and the option labels.
type Question struct {
	Image   string   `json:"url"`
	Answer  string   `json:"answer"`
	Options []string `json:"options,omitempty"`
}

// defaultOptions are used when a bank entry doesn't carry its own.
var defaultOptions = []string{"A", "B", "C", "D"}

//go:embed questions.json
var embeddedQuestions []byte

// QuestionBank holds the per-subject question pools for the whole process.
// It is immutable after load; rooms track their own used-question sets.
type QuestionBank struct {
	subjects map[string][]Question
}

// newQuestionBank loads the bank named by --questions, or the embedded
// default when the flag is unset.
func newQuestionBank(cfg *Config) (*QuestionBank, error) {
	raw := embeddedQuestions

	if cfg.questions != "" {
		data, err := os.ReadFile(cfg.questions)
		if err != nil {
			return nil, fmt.Errorf("loading question bank: %w", err)
		}
		raw = data
	}

	subjects := make(map[string][]Question)
	if err := json.Unmarshal(raw, &subjects); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}

	for subject, pool := range subjects {
		for i := range pool {
			if len(pool[i].Options) == 0 {
				pool[i].Options = defaultOptions
			}
		}
		subjects[subject] = pool
	}

	return &QuestionBank{subjects: subjects}, nil
}

// availableSubjects lists the subjects whose pools meet the minimum size,
// sorted for stable presentation.
func (b *QuestionBank) availableSubjects(minQuestions int) []string {
	out := make([]string, 0, len(b.subjects))
	for subject, pool := range b.subjects {
		if len(pool) >= minQuestions {
			out = append(out, subject)
		}
	}
	sort.Strings(out)
	return out
}

// resolveSubjects validates a requested filter. Subjects with under-stocked
// pools are dropped; an empty request, the "all" sentinel, or a request with
// nothing left after dropping widens to the full available set.
func (b *QuestionBank) resolveSubjects(requested []string, minQuestions int) []string {
	if lo.Contains(requested, "all") {
		return b.availableSubjects(minQuestions)
	}

	kept := lo.Filter(requested, func(subject string, _ int) bool {
		return len(b.subjects[subject]) >= minQuestions
	})
	if len(kept) == 0 {
		return b.availableSubjects(minQuestions)
	}

	sort.Strings(kept)
	return kept
}

// count reports the pool size across a subject filter.
func (b *QuestionBank) count(subjects []string) int {
	total := 0
	for _, subject := range subjects {
		total += len(b.subjects[subject])
	}
	return total
}

// next picks a uniformly random question across the filter, skipping images
// in exclude. Returns errPoolExhausted when nothing remains.
func (b *QuestionBank) next(subjects []string, exclude map[string]bool) (Question, error) {
	candidates := make([]Question, 0, b.count(subjects))
	for _, subject := range subjects {
		for _, q := range b.subjects[subject] {
			if exclude[q.Image] {
				continue
			}
			candidates = append(candidates, q)
		}
	}

	if len(candidates) == 0 {
		return Question{}, errPoolExhausted
	}

	return candidates[randIndex(len(candidates))], nil
}

// randIndex returns a crypto-random index in [0, n).
func randIndex(n int) int {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(binary.BigEndian.Uint16(buf[:])) % n
}
