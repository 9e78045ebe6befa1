package pvpchess

import (
	"github.com/park285/cheese-gamecore/internal/clock"
	"github.com/park285/cheese-gamecore/internal/rating"
	"github.com/park285/cheese-gamecore/pkg/chessdto"
)

// ToDTO projects g for API consumers, with clocks as they stand at now.
func ToDTO(g *Game, now int64) chessdto.GameView {
	if g == nil {
		return chessdto.GameView{}
	}
	v := chessdto.GameView{
		ID:             g.ID,
		Status:         string(g.Status),
		StartFEN:       g.StartFEN,
		FEN:            g.FEN,
		Turn:           string(g.Turn),
		MovesUCI:       append([]string{}, g.MovesUCI...),
		MovesSAN:       append([]string{}, g.MovesSAN...),
		MoveCount:      len(g.MovesUCI),
		White:          chessdto.PlayerView{ID: g.White.ID, Name: g.White.Name, Color: string(White)},
		Black:          chessdto.PlayerView{ID: g.Black.ID, Name: g.Black.Name, Color: string(Black)},
		TimeControl:    g.TimeControl,
		Termination:    TerminationDTO(g.Termination),
		RatingsApplied: g.RatingsApplied,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
	if g.Clock != nil {
		st := *g.Clock
		live := g.Status == StatusActive && st.Running()
		w, b := st.WhiteMs, st.BlackMs
		if live {
			w, b = clock.Snapshot(st, g.Turn, now)
		}
		v.Clock = &chessdto.ClockView{
			Policy:      string(st.Policy),
			WhiteMs:     w,
			BlackMs:     b,
			IncrementMs: st.IncrementMs,
			Running:     live,
			ServerTime:  now,
		}
	}
	if g.Opening != nil {
		v.Opening = &chessdto.OpeningView{ECO: g.Opening.ECO, Name: g.Opening.Name}
	}
	if g.DrawOffer != nil {
		v.DrawOffer = &chessdto.DrawOfferView{
			OfferedBy: g.DrawOffer.OfferedBy,
			OfferedTo: g.DrawOffer.OfferedTo,
			OfferedAt: g.DrawOffer.OfferedAt,
		}
	}
	return v
}

func TerminationDTO(t *Termination) *chessdto.TerminationView {
	if t == nil {
		return nil
	}
	return &chessdto.TerminationView{Cause: string(t.Cause), Winner: string(t.Winner), At: t.At}
}

func RatingsDTO(ro *RatingOutcome) *chessdto.RatingsView {
	if ro == nil {
		return nil
	}
	v := &chessdto.RatingsView{AlreadyUpdated: ro.AlreadyUpdated, Rated: ro.Rated}
	if ro.Rated {
		v.White = &chessdto.RatingChangeView{PlayerID: ro.White.PlayerID, Before: ro.White.Before, After: ro.White.After, Delta: ro.White.Delta}
		v.Black = &chessdto.RatingChangeView{PlayerID: ro.Black.PlayerID, Before: ro.Black.Before, After: ro.Black.After, Delta: ro.Black.Delta}
	}
	return v
}

func RatingDTO(r *rating.Record) chessdto.RatingView {
	if r == nil {
		return chessdto.RatingView{}
	}
	return chessdto.RatingView{
		PlayerID:    r.PlayerID,
		Rating:      r.Rating,
		GamesPlayed: r.GamesPlayed,
		Wins:        r.Wins,
		Losses:      r.Losses,
		Draws:       r.Draws,
		Provisional: r.Provisional(),
		UpdatedAt:   r.UpdatedAt,
	}
}
