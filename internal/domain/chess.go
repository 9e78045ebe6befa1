package domain

import "time"

// ArchivedGame is a finished PvP game as stored in the SQL archive.
type ArchivedGame struct {
	GameID       string
	WhiteID      string
	WhiteName    string
	BlackID      string
	BlackName    string
	TimeControl  string
	StartFEN     string
	Result       string
	ResultMethod string
	Winner       string
	ECO          string
	Opening      string
	MovesUCI     []string
	MovesSAN     []string
	PGN          string
	WhiteBefore  int
	WhiteAfter   int
	BlackBefore  int
	BlackAfter   int
	Rated        bool
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// RatingDelta returns the rating movement of playerID in this game.
func (g ArchivedGame) RatingDelta(playerID string) int {
	switch playerID {
	case g.WhiteID:
		return g.WhiteAfter - g.WhiteBefore
	case g.BlackID:
		return g.BlackAfter - g.BlackBefore
	default:
		return 0
	}
}
