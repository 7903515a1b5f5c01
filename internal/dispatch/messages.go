package dispatch

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/rmehta/truthdare/internal/models"
)

// Message template pools. The bridge adapter owns platform-specific
// formatting; everything here is plain text.

const helpMessage = `👋 Truth & Dare Bot Help Guide

👑 Admin Commands
• /newgame - Creates a new game lobby.
• /startgame - Starts the game after players have joined.
• /stop - Ends the current game and shows final scores.
• /groupid - Gets the unique ID for this group.

👤 Player Commands
• /scores - View the current scoreboard.
• /players - See who is in the game.
• /groupstats - View all-time stats for this group.
• /myid - Get your personal user ID (in a private chat).
• /help - Shows this help message.

Scoring System
✅ Complete Task: +5 points
🔄 Change Task: -2 points
⏭️ Skip Task: -6 points`

const privateStartMessage = `👋 Hello! I'm the Truth or Dare Bot.

My main purpose is to run games inside group chats. Add me to a group with your friends to get started!

• /myid - Get your unique User ID to check your stats on the website.
• /help - See a list of all available commands.`

var (
	truthMessages = []string{
		"🤔 Time for some truth! Be honest...",
		"🎯 Truth time! No escaping this one...",
		"🌟 Let's hear the truth and nothing but the truth!",
		"🎭 Time to reveal your secrets...",
	}
	dareMessages = []string{
		"🔥 Ready for a spicy dare?",
		"⚡️ Lightning dare coming up!",
		"🎪 Time for some circus-level action!",
		"🎭 Show time! Your dare awaits...",
	}
	skipMessages = []string{
		"😅 Chickened out this time!",
		"⏭️ Fast forward activated!",
		"🏃‍♂️ Running away from this one!",
	}
	successMessages = []string{
		"🌟 Absolutely brilliant!",
		"🎉 You nailed it!",
		"🏆 Champion move!",
		"✨ Spectacular job!",
	}
	nextPlayerMessages = []string{
		"🎲 The dice has been rolled! Next up is %s!",
		"✨ Get ready, %s, it's your turn to shine!",
		"🎯 Target locked on %s! What's your choice?",
	}
	gameStartMessages = []string{
		"🎪 The circus is open! Let the games begin!",
		"🎭 The show is starting! Good luck to all players!",
		"🚀 Blast off! The game has officially started!",
	}
	gameEndMessages = []string{
		"🎪 The circus is closing for now! Thanks for playing!",
		"🎭 That's a wrap on this show! What a performance!",
		"🌟 The stars fade but the memories remain!",
	}
)

func pick(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func newGameMessage(gameName, adminName string) string {
	return fmt.Sprintf(`🎉 A New Game Has Begun! 🎉

Game: %s
Admin: %s

Players, click the button below to join the fun!
The admin can start the game with /startgame once at least 2 players have joined.`, gameName, adminName)
}

func promptMessage(c models.Category, playerName, prompt string) string {
	pool := truthMessages
	if c == models.CategoryDare {
		pool = dareMessages
	}
	return fmt.Sprintf("%s\n👤 %s\n\n%s: %s", pick(pool), playerName, strings.ToUpper(string(c)), prompt)
}

func successMessage(playerName string, points, newScore int) string {
	return fmt.Sprintf("%s\n👤 %s\n💫 +%d points!\nNew score: %d", pick(successMessages), playerName, points, newScore)
}

func skipMessage(playerName string, newScore int) string {
	return fmt.Sprintf("%s\n👤 %s\nNew score: %d", pick(skipMessages), playerName, newScore)
}

func nextPlayerMessage(playerName string) string {
	return "--- Next Turn ---\n" + fmt.Sprintf(pick(nextPlayerMessages), playerName)
}

func gameStartMessage() string {
	return pick(gameStartMessages)
}

func gameEndMessage() string {
	return pick(gameEndMessages)
}

// scoreboard renders scores highest-first with podium emojis, using the
// resolve func to turn ids into display names.
func scoreboard(s *models.Session, resolve func(int64) string) string {
	type row struct {
		id    int64
		score int
	}
	rows := make([]row, 0, len(s.Players))
	for _, p := range s.Players {
		rows = append(rows, row{id: p, score: s.Scores[p]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })

	var b strings.Builder
	medals := []string{"🥇", "🥈", "🥉"}
	for i, r := range rows {
		medal := "•"
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&b, "%s %s: %d points\n", medal, resolve(r.id), r.score)
	}
	return b.String()
}

func groupStatsMessage(st *models.RoomStats) string {
	msg := fmt.Sprintf(`📈 Group Statistics for %s

🎮 Total Games Played: %d
🤔 Total Truths: %d
😈 Total Dares: %d
🌟 Highest Score Ever: %d
👥 Unique Players: %d`,
		st.Title, st.TotalGames, st.TotalTruths, st.TotalDares, st.HighestScore, st.UniquePlayers)

	if len(st.TopPlayers) > 0 {
		msg += "\n\n🏆 All-Time Top Players:\n"
		medals := []string{"🥇", "🥈", "🥉"}
		for i, p := range st.TopPlayers {
			medal := "•"
			if i < len(medals) {
				medal = medals[i]
			}
			msg += fmt.Sprintf("%s %s: %d points\n", medal, p.Name, p.Score)
		}
	}

	if len(st.History) > 0 {
		msg += "\n\n📜 Recent Game History:\n"
		recent := st.History
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		for i := len(recent) - 1; i >= 0; i-- {
			g := recent[i]
			msg += fmt.Sprintf("  - %s on %s (Winner: %s)\n", g.GameName, g.StartTime.Format("Jan 02"), g.Winner)
		}
	}
	return msg
}
