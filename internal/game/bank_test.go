// internal/game/bank_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmehta/truthdare/internal/models"
)

func TestNextNeverRepeatsUntilExhausted(t *testing.T) {
	b := NewQuestionBank([]string{"a", "b", "c"}, nil)

	var used []string
	drawn := map[string]bool{}
	for i := 0; i < 3; i++ {
		prompt, updated, err := b.Next(models.CategoryTruth, used)
		require.NoError(t, err)
		assert.False(t, drawn[prompt], "prompt %q repeated before exhaustion", prompt)
		drawn[prompt] = true
		used = updated
	}
	assert.Len(t, used, 3)
}

func TestNextResetsOnExhaustion(t *testing.T) {
	b := NewQuestionBank([]string{"a", "b"}, nil)

	prompt, used, err := b.Next(models.CategoryTruth, []string{"a", "b"})
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b"}, prompt)
	assert.Equal(t, []string{prompt}, used, "used list restarts from the fresh draw")
}

func TestNextEmptyCorpus(t *testing.T) {
	b := NewQuestionBank([]string{"a"}, nil)

	_, _, err := b.Next(models.CategoryDare, nil)
	assert.ErrorIs(t, err, ErrNoPrompts)
}

func TestLoadQuestionBankMissingDir(t *testing.T) {
	b := LoadQuestionBank(t.TempDir())
	assert.Zero(t, b.Size(models.CategoryTruth))
	assert.Zero(t, b.Size(models.CategoryDare))

	_, _, err := b.Next(models.CategoryTruth, nil)
	assert.ErrorIs(t, err, ErrNoPrompts)
}

func TestSize(t *testing.T) {
	b := NewQuestionBank([]string{"a", "b"}, []string{"c"})
	assert.Equal(t, 2, b.Size(models.CategoryTruth))
	assert.Equal(t, 1, b.Size(models.CategoryDare))
}
