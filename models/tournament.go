package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusPending   TournamentStatus = "pending"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

const (
	MinRoundDurationMinutes = 1
	MaxRoundDurationMinutes = 300
)

// Tournament представляет турнир.
type Tournament struct {
	ID                   int              `json:"id" db:"id"`
	Name                 string           `json:"name" db:"name"`
	Format               string           `json:"format" db:"format"`
	Status               TournamentStatus `json:"status" db:"status"`
	MaxRounds            int              `json:"max_rounds" db:"max_rounds"`
	RoundDurationMinutes int              `json:"round_duration_minutes" db:"round_duration_minutes"`
	PrizeSlots           *int             `json:"prize_slots,omitempty" db:"prize_slots"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`

	Participants []Participant `json:"participants,omitempty" db:"-"`
}

// RoundDurationSeconds is the configured length of a fresh round clock.
func (t *Tournament) RoundDurationSeconds() int {
	return t.RoundDurationMinutes * 60
}

// IsValidStatus reports whether s is one of the known statuses.
func IsValidStatus(s TournamentStatus) bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the one-way status machine allows current -> next.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	allowed := map[TournamentStatus][]TournamentStatus{
		StatusPending:   {StatusActive},
		StatusActive:    {StatusCompleted},
		StatusCompleted: {},
	}
	for _, candidate := range allowed[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
