package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/swiss-system/models"
)

var (
	ErrNotEnoughPlayers  = errors.New("not enough players to generate pairings (minimum 2)")
	ErrSeatingIncomplete = errors.New("every participant must hold a draft seat")
	ErrSeatingInvalid    = errors.New("draft seats must be unique and within 1..N")
)

// PairKey identifies an unordered pair of players.
type PairKey struct {
	Low, High int
}

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

type GeneratePairingsParams struct {
	Tournament *models.Tournament
	// Participants is used by seat-based generators.
	Participants []models.Participant
	// Standings must be ranked and contain only players to be paired.
	Standings   []models.Standing
	PlayedPairs map[PairKey]bool
}

type PairingGenerator interface {
	GeneratePairings(ctx context.Context, params GeneratePairingsParams) ([]models.Pairing, error)

	GetName() string
}

// PlayedPairs collects every pair that has already been seated together,
// whatever the reported result.
func PlayedPairs(matches []models.Match) map[PairKey]bool {
	played := make(map[PairKey]bool)
	for _, m := range matches {
		if len(m.Participants) != 2 {
			continue
		}
		played[NewPairKey(m.Participants[0].PlayerID, m.Participants[1].PlayerID)] = true
	}
	return played
}
