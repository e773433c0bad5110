package models

// Standing is derived from match history on demand and never persisted.
type Standing struct {
	PlayerID           int     `json:"player_id"`
	Rank               int     `json:"rank"`
	MatchWins          int     `json:"match_wins"`
	MatchLosses        int     `json:"match_losses"`
	MatchDraws         int     `json:"match_draws"`
	MatchesPlayed      int     `json:"matches_played"`
	Points             int     `json:"points"`
	MatchWinPercentage float64 `json:"match_win_percentage"`
	OMWPercentage      float64 `json:"omw_percentage"`
	GameWinPercentage  float64 `json:"game_win_percentage"`
	GamesWon           int     `json:"games_won"`
	GamesPlayed        int     `json:"games_played"`
	ReceivedBye        bool    `json:"received_bye"`
	Dropped            bool    `json:"dropped"`
}

// Pairing is one table of a round. Player2 == nil means Player1 has the bye.
type Pairing struct {
	Player1 int  `json:"player1"`
	Player2 *int `json:"player2,omitempty"`
}

func (p Pairing) IsBye() bool {
	return p.Player2 == nil
}
