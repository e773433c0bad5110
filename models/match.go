package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// MatchResult is a participant's outcome in a match. Unreported results are
// ResultPending, never NULL.
type MatchResult string

const (
	ResultPending MatchResult = "pending"
	ResultWin     MatchResult = "win"
	ResultLoss    MatchResult = "loss"
	ResultDraw    MatchResult = "draw"
)

// ByeGamesWon is the game score credited to a bye recipient (a 2-0 win).
const ByeGamesWon = 2

func (r MatchResult) IsValid() bool {
	switch r {
	case ResultPending, ResultWin, ResultLoss, ResultDraw:
		return true
	}
	return false
}

func (r MatchResult) IsReported() bool {
	return r == ResultWin || r == ResultLoss || r == ResultDraw
}

// Value implements driver.Valuer.
func (r MatchResult) Value() (driver.Value, error) {
	if r == "" {
		return string(ResultPending), nil
	}
	return string(r), nil
}

// Scan implements sql.Scanner. NULL reads as pending.
func (r *MatchResult) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = ResultPending
	case string:
		*r = MatchResult(v)
	case []byte:
		*r = MatchResult(v)
	default:
		return fmt.Errorf("cannot scan %T into MatchResult", src)
	}
	if !r.IsValid() {
		return fmt.Errorf("unknown match result %q", string(*r))
	}
	return nil
}

type MatchParticipant struct {
	ID       int         `json:"id"`
	MatchID  int         `json:"match_id"`
	PlayerID int         `json:"player_id"`
	Result   MatchResult `json:"result"`
	GamesWon int         `json:"games_won"`
}

type Match struct {
	ID           int                `json:"id"`
	TournamentID int                `json:"tournament_id"`
	RoundNumber  int                `json:"round_number"`
	GameType     string             `json:"game_type"`
	Participants []MatchParticipant `json:"participants"`
	CreatedAt    time.Time          `json:"created_at"`
}

// IsBye reports whether the match is a bye (exactly one participant).
func (m *Match) IsBye() bool {
	return len(m.Participants) == 1
}

// IsResolved reports whether every participant has a reported result.
func (m *Match) IsResolved() bool {
	if len(m.Participants) == 0 {
		return false
	}
	for _, p := range m.Participants {
		if !p.Result.IsReported() {
			return false
		}
	}
	return true
}

// Participant returns the entry for playerID, if the player is in the match.
func (m *Match) Participant(playerID int) (*MatchParticipant, bool) {
	for i := range m.Participants {
		if m.Participants[i].PlayerID == playerID {
			return &m.Participants[i], true
		}
	}
	return nil, false
}

// ParticipantResult is one side of a submitted match result.
type ParticipantResult struct {
	PlayerID int         `json:"player_id"`
	Result   MatchResult `json:"result"`
	GamesWon int         `json:"games_won"`
}
