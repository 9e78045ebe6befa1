package pvpchess

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"github.com/park285/cheese-gamecore/internal/obslog"
	"github.com/park285/cheese-gamecore/internal/rating"
)

type seedFile struct {
	Players []seedPlayer `yaml:"players"`
}

type seedPlayer struct {
	ID          string `yaml:"id"`
	Rating      int    `yaml:"rating"`
	GamesPlayed int    `yaml:"games_played"`
	Wins        int    `yaml:"wins"`
	Losses      int    `yaml:"losses"`
	Draws       int    `yaml:"draws"`
}

// ReadRatingSeed parses a YAML list of existing player ratings:
//
//	players:
//	  - id: p1
//	    rating: 1830
//	    games_played: 61
//	    wins: 30
//	    losses: 25
//	    draws: 6
func ReadRatingSeed(r io.Reader) ([]rating.Record, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse rating seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Players))
	out := make([]rating.Record, 0, len(f.Players))
	for i, p := range f.Players {
		id := strings.TrimSpace(p.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("rating seed entry %d: id required", i)
		case seen[id]:
			return nil, fmt.Errorf("rating seed entry %d: duplicate id %s", i, id)
		case p.Rating <= 0:
			return nil, fmt.Errorf("rating seed %s: rating must be positive", id)
		case p.GamesPlayed < 0 || p.Wins < 0 || p.Losses < 0 || p.Draws < 0:
			return nil, fmt.Errorf("rating seed %s: negative counters", id)
		case p.Wins+p.Losses+p.Draws > p.GamesPlayed:
			return nil, fmt.Errorf("rating seed %s: results exceed games played", id)
		}
		seen[id] = true
		out = append(out, rating.Record{
			PlayerID:    id,
			Rating:      p.Rating,
			GamesPlayed: p.GamesPlayed,
			Wins:        p.Wins,
			Losses:      p.Losses,
			Draws:       p.Draws,
		})
	}
	return out, nil
}

// ImportReport counts the outcome of ImportRatings.
type ImportReport struct {
	Imported int
	Skipped  int
}

// ImportRatings stores records for players that have none yet. Existing
// records always win, so repeating an import never rewinds a rating.
func (m *Manager) ImportRatings(ctx context.Context, records []rating.Record) (ImportReport, error) {
	var rep ImportReport
	now, err := m.now(ctx)
	if err != nil {
		return rep, err
	}
	for _, r := range records {
		r.UpdatedAt = msTime(now)
		stored, err := m.store.SeedRating(ctx, r)
		if err != nil {
			return rep, fmt.Errorf("seed rating %s: %w", r.PlayerID, err)
		}
		if stored {
			rep.Imported++
		} else {
			rep.Skipped++
		}
	}
	obslog.L().Info("pvp_ratings_imported",
		zap.Int("imported", rep.Imported),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}
