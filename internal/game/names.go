package game

import (
	"fmt"
	"math/rand"
)

var (
	nameAdjectives = []string{"Epic", "Cosmic", "Wild", "Crazy", "Super", "Magic", "Mystic", "Awesome"}
	nameNouns      = []string{"Quest", "Adventure", "Challenge", "Party", "Mission", "Journey", "Showdown"}
)

// NewGameName generates a display label like "Cosmic Showdown #4821".
func NewGameName() string {
	return fmt.Sprintf("%s %s #%d",
		nameAdjectives[rand.Intn(len(nameAdjectives))],
		nameNouns[rand.Intn(len(nameNouns))],
		1000+rand.Intn(9000))
}
