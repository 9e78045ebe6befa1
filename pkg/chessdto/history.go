package chessdto

import "time"

// HistoryEntry is one archived game from a player's point of view.
type HistoryEntry struct {
	GameID       string    `json:"game_id"`
	OpponentID   string    `json:"opponent_id"`
	OpponentName string    `json:"opponent_name"`
	Color        string    `json:"color"`
	Result       string    `json:"result"`
	ResultMethod string    `json:"result_method"`
	Opening      string    `json:"opening,omitempty"`
	RatingDelta  int       `json:"rating_delta"`
	Moves        int       `json:"moves"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
}

type HistoryResponse struct {
	PlayerID string         `json:"player_id"`
	Games    []HistoryEntry `json:"games"`
}
