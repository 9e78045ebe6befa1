package chessdto

type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateGameRequest is sent by the pairing collaborator.
type CreateGameRequest struct {
	Challenger  PlayerRef `json:"challenger"`
	Opponent    PlayerRef `json:"opponent"`
	Color       string    `json:"color"`
	TimeControl string    `json:"time_control"`
	StartFEN    string    `json:"start_fen"`
	Waiting     bool      `json:"waiting"`
}

type MoveRequest struct {
	PlayerID string `json:"player_id"`
	Move     string `json:"move"`
}

// PlayerRequest carries the acting player for resign and draw actions.
type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

type DrawResponseRequest struct {
	PlayerID string `json:"player_id"`
	Accept   bool   `json:"accept"`
}
