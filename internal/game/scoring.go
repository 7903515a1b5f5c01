package game

// Fixed point deltas. Domain constants, not configurable per room.
const (
	CompleteReward = 5
	SkipPenalty    = -6
	ChangePenalty  = -2
)
