package game

import "math/rand"

// ShuffleOrder returns a uniformly shuffled copy of players. Called exactly
// once, at game start, to fix the rotation order.
func ShuffleOrder(players []int64) []int64 {
	order := make([]int64, len(players))
	copy(order, players)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// Rotate advances the turn by rotating the queue left by one position. The
// head of the rotated queue is the next player. A queue of one rotates to
// itself.
func Rotate(queue []int64) (int64, []int64) {
	if len(queue) == 0 {
		return 0, queue
	}
	rotated := make([]int64, 0, len(queue))
	rotated = append(rotated, queue[1:]...)
	rotated = append(rotated, queue[0])
	return rotated[0], rotated
}
