package chessdto

// MoveResponse answers a move submission. Move is empty when the submission
// lost on time.
type MoveResponse struct {
	Game        GameView         `json:"game"`
	Move        string           `json:"move,omitempty"`
	SAN         string           `json:"san,omitempty"`
	FEN         string           `json:"fen"`
	SideToMove  string           `json:"side_to_move"`
	Termination *TerminationView `json:"termination,omitempty"`
	Ratings     *RatingsView     `json:"ratings,omitempty"`
}

type TimeoutResponse struct {
	TimedOut    bool             `json:"timed_out"`
	Winner      string           `json:"winner,omitempty"`
	Termination *TerminationView `json:"termination,omitempty"`
	Game        GameView         `json:"game"`
}

type ActionResponse struct {
	Game        GameView         `json:"game"`
	Termination *TerminationView `json:"termination,omitempty"`
	Ratings     *RatingsView     `json:"ratings,omitempty"`
}
