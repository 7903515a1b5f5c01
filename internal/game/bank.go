package game

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/models"
)

// QuestionBank holds the two static prompt corpora. The corpora are loaded
// once at startup and never mutated; the per-session used list is threaded
// through Next by the caller, so the bank itself is safe to share across
// rooms.
type QuestionBank struct {
	corpora map[models.Category][]string
}

// LoadQuestionBank reads truth.json and dare.json from dir. A missing or
// malformed file degrades that category to an empty corpus rather than
// failing startup.
func LoadQuestionBank(dir string) *QuestionBank {
	bank := &QuestionBank{corpora: map[models.Category][]string{}}
	for _, c := range []models.Category{models.CategoryTruth, models.CategoryDare} {
		path := filepath.Join(dir, string(c)+".json")
		prompts, err := loadPrompts(path)
		if err != nil {
			log.WithFields(log.Fields{"category": c, "path": path}).Errorf("failed to load prompts: %v", err)
			prompts = nil
		}
		bank.corpora[c] = prompts
	}
	return bank
}

// NewQuestionBank builds a bank from in-memory corpora. Used by tests.
func NewQuestionBank(truths, dares []string) *QuestionBank {
	return &QuestionBank{corpora: map[models.Category][]string{
		models.CategoryTruth: truths,
		models.CategoryDare:  dares,
	}}
}

func loadPrompts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var prompts []string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// Size returns the corpus size for a category.
func (b *QuestionBank) Size(c models.Category) int {
	return len(b.corpora[c])
}

// Next picks an unused prompt of the given category uniformly at random and
// returns it along with the updated used list. When the corpus is exhausted
// the used list resets and repeats become possible; that is an accepted
// policy, not a bug. An empty corpus returns ErrNoPrompts.
func (b *QuestionBank) Next(c models.Category, used []string) (string, []string, error) {
	corpus := b.corpora[c]
	if len(corpus) == 0 {
		return "", used, ErrNoPrompts
	}

	usedSet := make(map[string]struct{}, len(used))
	for _, q := range used {
		usedSet[q] = struct{}{}
	}

	var available []string
	for _, q := range corpus {
		if _, ok := usedSet[q]; !ok {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		log.WithField("category", c).Warn("all prompts used, resetting")
		used = nil
		available = corpus
	}

	prompt := available[rand.Intn(len(available))]
	return prompt, append(used, prompt), nil
}
