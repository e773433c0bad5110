package models

import "time"

type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	PlayerID     int       `json:"player_id"`
	DraftSeat    *int      `json:"draft_seat,omitempty"`
	Dropped      bool      `json:"dropped"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasSeat reports whether the participant currently holds a draft seat.
func (p *Participant) HasSeat() bool {
	return p.DraftSeat != nil
}
