package pvpchess

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/park285/cheese-gamecore/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Repository archives finished games in SQL. Postgres is the production
// target; SQLite serves local runs and tests.
type Repository struct {
	db     *sql.DB
	driver string
}

func NewRepository(driver, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one connection keeps ":memory:" databases shared
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

const schema = `CREATE TABLE IF NOT EXISTS pvp_games (
    game_id TEXT PRIMARY KEY,
    white_id TEXT NOT NULL,
    white_name TEXT NOT NULL,
    black_id TEXT NOT NULL,
    black_name TEXT NOT NULL,
    time_control TEXT NOT NULL,
    start_fen TEXT NOT NULL,
    result TEXT NOT NULL,
    result_method TEXT NOT NULL,
    winner TEXT NOT NULL,
    eco TEXT NOT NULL DEFAULT '',
    opening TEXT NOT NULL DEFAULT '',
    moves_uci TEXT NOT NULL,
    moves_san TEXT NOT NULL,
    pgn TEXT NOT NULL,
    rated BOOLEAN NOT NULL,
    white_before INTEGER NOT NULL,
    white_after INTEGER NOT NULL,
    black_before INTEGER NOT NULL,
    black_after INTEGER NOT NULL,
    started_at BIGINT NOT NULL,
    ended_at BIGINT NOT NULL,
    duration_ms BIGINT NOT NULL
)`

// Migrate creates the archive tables when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate pvp_games: %w", err)
	}
	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS pvp_games_white_idx ON pvp_games (white_id, ended_at)`,
		`CREATE INDEX IF NOT EXISTS pvp_games_black_idx ON pvp_games (black_id, ended_at)`,
	} {
		if _, err := r.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}

// SaveResult upserts a final PvP game result into the database.
func (r *Repository) SaveResult(ctx context.Context, g *Game, ro *RatingOutcome) error {
	if r == nil || r.db == nil || g == nil || g.Termination == nil {
		return nil
	}
	if ro == nil {
		ro = &RatingOutcome{GameID: g.ID}
	}
	movesUCIRaw, _ := json.Marshal(g.MovesUCI)
	movesSANRaw, _ := json.Marshal(g.MovesSAN)
	var eco, openingName string
	if g.Opening != nil {
		eco, openingName = g.Opening.ECO, g.Opening.Name
	}
	duration := g.UpdatedAt.Sub(g.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO pvp_games (
        game_id, white_id, white_name, black_id, black_name,
        time_control, start_fen, result, result_method, winner, eco, opening,
        moves_uci, moves_san, pgn, rated,
        white_before, white_after, black_before, black_after,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23
      ) ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        winner=EXCLUDED.winner,
        eco=EXCLUDED.eco,
        opening=EXCLUDED.opening,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        rated=EXCLUDED.rated,
        white_before=EXCLUDED.white_before,
        white_after=EXCLUDED.white_after,
        black_before=EXCLUDED.black_before,
        black_after=EXCLUDED.black_after,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, r.rebind(q),
		g.ID,
		g.White.ID, g.White.Name,
		g.Black.ID, g.Black.Name,
		g.TimeControl, g.StartFEN,
		mapResultToPGN(g.Termination.Winner), string(g.Termination.Cause), string(g.Termination.Winner),
		eco, openingName,
		string(movesUCIRaw), string(movesSANRaw), BuildPGN(g), ro.Rated,
		ro.White.Before, ro.White.After, ro.Black.Before, ro.Black.After,
		g.CreatedAt.UnixMilli(), g.Termination.At, duration,
	)
	return err
}

// History returns the player's archived games, newest first.
func (r *Repository) History(ctx context.Context, playerID string, limit int) ([]domain.ArchivedGame, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT game_id, white_id, white_name, black_id, black_name,
        time_control, start_fen, result, result_method, winner, eco, opening,
        moves_uci, moves_san, pgn, rated,
        white_before, white_after, black_before, black_after,
        started_at, ended_at, duration_ms
      FROM pvp_games WHERE white_id = $1 OR black_id = $2
      ORDER BY ended_at DESC LIMIT $3`
	rows, err := r.db.QueryContext(ctx, r.rebind(q), playerID, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArchivedGame
	for rows.Next() {
		var (
			a                  domain.ArchivedGame
			uciRaw, sanRaw     string
			started, ended, ms int64
		)
		if err := rows.Scan(
			&a.GameID, &a.WhiteID, &a.WhiteName, &a.BlackID, &a.BlackName,
			&a.TimeControl, &a.StartFEN, &a.Result, &a.ResultMethod, &a.Winner, &a.ECO, &a.Opening,
			&uciRaw, &sanRaw, &a.PGN, &a.Rated,
			&a.WhiteBefore, &a.WhiteAfter, &a.BlackBefore, &a.BlackAfter,
			&started, &ended, &ms,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(uciRaw), &a.MovesUCI)
		_ = json.Unmarshal([]byte(sanRaw), &a.MovesSAN)
		a.StartedAt = time.UnixMilli(started).UTC()
		a.EndedAt = time.UnixMilli(ended).UTC()
		a.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for drivers that expect "?". Every query
// here uses its placeholders once and in order.
func (r *Repository) rebind(q string) string {
	if r.driver != DriverSQLite {
		return q
	}
	return placeholder.ReplaceAllString(q, "?")
}
