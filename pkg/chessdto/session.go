package chessdto

import "time"

type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ClockView holds remaining milliseconds as of ServerTime. The running side
// is already charged for the time elapsed since its last move.
type ClockView struct {
	Policy      string `json:"policy"`
	WhiteMs     int64  `json:"white_ms"`
	BlackMs     int64  `json:"black_ms"`
	IncrementMs int64  `json:"increment_ms"`
	Running     bool   `json:"running"`
	ServerTime  int64  `json:"server_time"`
}

type DrawOfferView struct {
	OfferedBy string `json:"offered_by"`
	OfferedTo string `json:"offered_to"`
	OfferedAt int64  `json:"offered_at"`
}

type OpeningView struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

type TerminationView struct {
	Cause   string `json:"cause"`
	Winner  string `json:"winner"`
	At      int64  `json:"at"`
	Message string `json:"message,omitempty"`
}

// GameView is the public state of one session.
type GameView struct {
	ID             string           `json:"id"`
	Status         string           `json:"status"`
	StartFEN       string           `json:"start_fen"`
	FEN            string           `json:"fen"`
	Turn           string           `json:"turn"`
	MovesUCI       []string         `json:"moves_uci"`
	MovesSAN       []string         `json:"moves_san"`
	MoveCount      int              `json:"move_count"`
	White          PlayerView       `json:"white"`
	Black          PlayerView       `json:"black"`
	TimeControl    string           `json:"time_control,omitempty"`
	Clock          *ClockView       `json:"clock,omitempty"`
	DrawOffer      *DrawOfferView   `json:"draw_offer,omitempty"`
	Termination    *TerminationView `json:"termination,omitempty"`
	Opening        *OpeningView     `json:"opening,omitempty"`
	RatingsApplied bool             `json:"ratings_applied"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
