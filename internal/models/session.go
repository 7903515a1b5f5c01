package models

import "time"

// Category is the kind of prompt a player can ask for.
type Category string

const (
	CategoryTruth Category = "truth"
	CategoryDare  Category = "dare"
)

// Valid reports whether c is one of the two known categories.
func (c Category) Valid() bool {
	return c == CategoryTruth || c == CategoryDare
}

// Status is the lifecycle state of an in-flight session. Termination is not a
// stored status; a stopped session is deleted from the store.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// PlayerTotals counts what a single player did during one session.
type PlayerTotals struct {
	Truths  int `json:"truths"`
	Dares   int `json:"dares"`
	Skips   int `json:"skips"`
	Changes int `json:"changes"`
}

// Session is the authoritative in-flight game record for one room. At most
// one exists per room at any time; it is created when an admin opens a lobby
// and deleted when the game is stopped.
type Session struct {
	RoomID   int64  `json:"room_id"`
	GameID   string `json:"game_id"`
	GameName string `json:"game_name"`
	AdminID  int64  `json:"admin_id"`

	// Players is the join-ordered roster. No duplicates.
	Players []int64 `json:"players"`

	Scores      map[int64]int          `json:"scores"`
	PlayerStats map[int64]PlayerTotals `json:"player_stats"`

	// PlayerQueue is the rotation order, set as a shuffled copy of Players
	// when the game starts and rotated once per resolved task.
	PlayerQueue []int64 `json:"player_queue"`

	// CurrentPlayer is 0 before the game starts.
	CurrentPlayer int64 `json:"current_player"`

	// CurrentChoice and CurrentPrompt describe the pending task, if any.
	// Both are cleared on every turn advance.
	CurrentChoice Category `json:"current_choice"`
	CurrentPrompt string   `json:"current_prompt"`

	// UsedQuestions tracks prompts already shown this session, per category.
	UsedQuestions map[Category][]string `json:"used_questions"`

	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	TruthCount int       `json:"truth_count"`
	DareCount  int       `json:"dare_count"`
}

// HasPlayer reports whether id is on the roster.
func (s *Session) HasPlayer(id int64) bool {
	for _, p := range s.Players {
		if p == id {
			return true
		}
	}
	return false
}

// Winner returns the first maximal scorer in join order, or 0 if the roster
// is empty. Ties go to the player who joined earliest.
func (s *Session) Winner() int64 {
	var winner int64
	best := 0
	for i, p := range s.Players {
		if score := s.Scores[p]; i == 0 || score > best {
			winner, best = p, score
		}
	}
	return winner
}
