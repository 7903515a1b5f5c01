// internal/game/scheduler_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShuffleOrderIsPermutation(t *testing.T) {
	players := []int64{1, 2, 3, 4, 5}
	shuffled := ShuffleOrder(players)

	assert.ElementsMatch(t, players, shuffled)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, players, "input must not be mutated")
}

func TestRotateVisitsEveryoneOnce(t *testing.T) {
	queue := []int64{10, 20, 30}

	seen := map[int64]int{}
	for i := 0; i < 3; i++ {
		var next int64
		next, queue = Rotate(queue)
		seen[next]++
	}
	for _, p := range []int64{10, 20, 30} {
		assert.Equal(t, 1, seen[p], "player %d", p)
	}
	assert.Equal(t, []int64{10, 20, 30}, queue, "full cycle restores the queue")
}

func TestRotateSinglePlayer(t *testing.T) {
	next, queue := Rotate([]int64{7})
	assert.Equal(t, int64(7), next)
	assert.Equal(t, []int64{7}, queue)
}

func TestRotateEmpty(t *testing.T) {
	next, queue := Rotate(nil)
	assert.Zero(t, next)
	assert.Empty(t, queue)
}
