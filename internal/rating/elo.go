// Package rating implements the Elo update applied once per finished game.
package rating

import (
	"math"
	"time"
)

const (
	// ProvisionalGames is the games-played threshold below which a player is provisional.
	ProvisionalGames = 30
	KProvisional     = 40
	KEstablished     = 20
	DefaultRating    = 1500
)

// Score values for one participant.
const (
	ScoreLoss = 0.0
	ScoreDraw = 0.5
	ScoreWin  = 1.0
)

// Record is the persisted rating state of a single player.
type Record struct {
	PlayerID    string    `json:"player_id"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Provisional reports whether the player is still under the games-played threshold.
func (r Record) Provisional() bool { return r.GamesPlayed < ProvisionalGames }

// NewRecord returns a fresh record at the given starting rating.
func NewRecord(playerID string, initial int) Record {
	if initial <= 0 {
		initial = DefaultRating
	}
	return Record{PlayerID: playerID, Rating: initial}
}

// ExpectedScore is the Elo win expectancy of r against opponent.
func ExpectedScore(r, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-r)/400))
}

// KFactor picks the update coefficient from the games played before this game.
func KFactor(gamesPlayed int) int {
	if gamesPlayed < ProvisionalGames {
		return KProvisional
	}
	return KEstablished
}

// CalculateNewElo returns round(r + k*(score - expected)).
func CalculateNewElo(r, opponent int, score float64, k int) int {
	return int(math.Round(float64(r) + float64(k)*(score-ExpectedScore(r, opponent))))
}

// Apply updates both participants from their pre-game ratings. whiteScore is
// 1, 0.5 or 0 from white's point of view.
func Apply(white, black Record, whiteScore float64, at time.Time) (Record, Record) {
	blackScore := 1 - whiteScore
	nw := white.settle(black.Rating, whiteScore, at)
	nb := black.settle(white.Rating, blackScore, at)
	return nw, nb
}

func (r Record) settle(opponent int, score float64, at time.Time) Record {
	next := r
	next.Rating = CalculateNewElo(r.Rating, opponent, score, KFactor(r.GamesPlayed))
	next.GamesPlayed++
	switch {
	case score >= ScoreWin:
		next.Wins++
	case score <= ScoreLoss:
		next.Losses++
	default:
		next.Draws++
	}
	next.UpdatedAt = at
	return next
}
