package pvpchess

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-gamecore/internal/rules"
)

func mapResultToPGN(w Winner) string {
	switch w {
	case WinnerWhite:
		return "1-0"
	case WinnerBlack:
		return "0-1"
	case WinnerDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func pgnTermination(c Cause) string {
	switch {
	case c == CauseCheckmate, c == CauseStalemate, c == CauseResignation, c == CauseDrawAgreement:
		return "normal"
	case strings.HasPrefix(string(c), causeTimeoutPrefix):
		return "time forfeit"
	case c == CauseAbandoned:
		return "abandoned"
	default:
		return "unterminated"
	}
}

// BuildPGN renders g with a seven-tag roster plus clock and termination tags.
func BuildPGN(g *Game) string {
	if g == nil {
		return ""
	}
	result := "*"
	if g.Termination != nil {
		result = mapResultToPGN(g.Termination.Winner)
	}
	var b strings.Builder
	date := g.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString(fmt.Sprintf("[Event \"%s\"]\n", pgnEvent(g)))
	b.WriteString("[Site \"gamecore\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString("[Round \"-\"]\n")
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(g.White.DisplayName())))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(g.Black.DisplayName())))
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n", result))
	if g.TimeControl != "" {
		b.WriteString(fmt.Sprintf("[TimeControl \"%s\"]\n", pgnTimeControl(g)))
	}
	if g.StartFEN != "" && g.StartFEN != rules.StandardFEN {
		b.WriteString("[SetUp \"1\"]\n")
		b.WriteString(fmt.Sprintf("[FEN \"%s\"]\n", sanitizePGN(g.StartFEN)))
	}
	if g.Opening != nil {
		b.WriteString(fmt.Sprintf("[ECO \"%s\"]\n", sanitizePGN(g.Opening.ECO)))
		b.WriteString(fmt.Sprintf("[Opening \"%s\"]\n", sanitizePGN(g.Opening.Name)))
	}
	if g.Termination != nil {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", pgnTermination(g.Termination.Cause)))
	}
	b.WriteString("\n")

	// a black first mover opens with "N..."
	ply := 0
	num := fullmoveNumber(g.StartFEN)
	if g.FirstMover == Black && len(g.MovesSAN) > 0 {
		b.WriteString(fmt.Sprintf("%d... %s ", num, strings.TrimSpace(g.MovesSAN[0])))
		ply, num = 1, num+1
	}
	for i := ply; i < len(g.MovesSAN); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", num, strings.TrimSpace(g.MovesSAN[i])))
		if i+1 < len(g.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(g.MovesSAN[i+1]))
		}
		b.WriteString(" ")
		num++
	}
	b.WriteString(result)
	return b.String()
}

// pgnTimeControl converts "<min>+<sec>" into the PGN "<seconds>+<seconds>" form.
func pgnTimeControl(g *Game) string {
	if g.Clock == nil || g.Clock.BaseMs <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d+%d", g.Clock.BaseMs/1000, g.Clock.IncrementMs/1000)
}

// pgnEvent marks finished games that carried no result as casual.
func pgnEvent(g *Game) string {
	if g.Termination != nil {
		if _, rated := g.Termination.WhiteScore(); !rated {
			return "Casual PvP"
		}
	}
	return "Rated PvP"
}

// fullmoveNumber reads the sixth FEN field, defaulting to 1.
func fullmoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
