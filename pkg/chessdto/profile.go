package chessdto

import "time"

type RatingView struct {
	PlayerID    string    `json:"player_id"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	Provisional bool      `json:"provisional"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RatingChangeView struct {
	PlayerID string `json:"player_id"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Delta    int    `json:"delta"`
}

type RatingsView struct {
	AlreadyUpdated bool              `json:"already_updated"`
	Rated          bool              `json:"rated"`
	White          *RatingChangeView `json:"white,omitempty"`
	Black          *RatingChangeView `json:"black,omitempty"`
}
