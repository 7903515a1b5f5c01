package models

import "time"

// GameRecord is the terminal snapshot of one finished session, kept in a
// room's bounded history.
type GameRecord struct {
	GameID      string        `json:"game_id"`
	GameName    string        `json:"game_name"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	PlayerCount int           `json:"players"`
	Winner      string        `json:"winner"`
	Scores      map[int64]int `json:"scores"`
}

// GameSummary hands a terminal session to the stats aggregator. WinnerName is
// resolved by the dispatch layer before aggregation so the history entry can
// carry a display name rather than a raw id.
type GameSummary struct {
	Session    *Session
	RoomTitle  string
	WinnerID   int64
	WinnerName string
	EndedAt    time.Time
}

// RoomStats is the reporting projection of a room's all-time aggregates.
type RoomStats struct {
	RoomID        int64        `json:"room_id"`
	Title         string       `json:"title"`
	TotalGames    int          `json:"total_games"`
	TotalTruths   int          `json:"total_truths"`
	TotalDares    int          `json:"total_dares"`
	HighestScore  int          `json:"highest_score"`
	UniquePlayers int          `json:"unique_players"`
	TopPlayers    []TopPlayer  `json:"top_players"`
	History       []GameRecord `json:"game_history"`
	LastPlayed    time.Time    `json:"last_played"`
}

// TopPlayer is one row of a room's all-time leaderboard.
type TopPlayer struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Score    int    `json:"score"`
	Truths   int    `json:"truths"`
	Dares    int    `json:"dares"`
}

// UserStats is the reporting projection of one participant's cumulative
// record across rooms and sessions.
type UserStats struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	GamesPlayed  int       `json:"games_played"`
	TotalScore   int       `json:"total_score"`
	HighestScore int       `json:"highest_score"`
	TotalTruths  int       `json:"total_truths"`
	TotalDares   int       `json:"total_dares"`
	TotalSkips   int       `json:"total_skips"`
	TotalChanges int       `json:"total_changes"`
	Rooms        []RoomRef `json:"rooms_played"`
	LastPlayed   time.Time `json:"last_played"`
}

// RoomRef names a room a player has participated in.
type RoomRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
