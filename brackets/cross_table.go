package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/swiss-system/models"
)

// CrossTableGenerator derives Round 1 from draft seats: across the table,
// seat i plays seat i+N/2. With an odd count the highest seat takes the bye
// and the remaining seats are paired the same way.
type CrossTableGenerator struct{}

func NewCrossTableGenerator() PairingGenerator {
	return &CrossTableGenerator{}
}

func (g *CrossTableGenerator) GetName() string {
	return "CrossTable"
}

func (g *CrossTableGenerator) GeneratePairings(ctx context.Context, params GeneratePairingsParams) ([]models.Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seated, err := validateSeating(params.Participants)
	if err != nil {
		return nil, err
	}

	n := len(seated)
	pairings := make([]models.Pairing, 0, n/2+1)
	var bye *int
	if n%2 == 1 {
		last := seated[n-1].PlayerID
		bye = &last
		seated = seated[:n-1]
		n--
	}

	half := n / 2
	for i := 0; i < half; i++ {
		opponent := seated[i+half].PlayerID
		pairings = append(pairings, models.Pairing{Player1: seated[i].PlayerID, Player2: &opponent})
	}
	if bye != nil {
		pairings = append(pairings, models.Pairing{Player1: *bye})
	}
	return pairings, nil
}

// validateSeating checks that seats form exactly 1..N and returns the
// participants ordered by seat.
func validateSeating(participants []models.Participant) ([]models.Participant, error) {
	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("CrossTableGenerator: %w (found %d)", ErrNotEnoughPlayers, n)
	}
	seen := make(map[int]bool, n)
	for _, p := range participants {
		if p.DraftSeat == nil {
			return nil, fmt.Errorf("%w: participant %d has no seat", ErrSeatingIncomplete, p.ID)
		}
		seat := *p.DraftSeat
		if seat < 1 || seat > n || seen[seat] {
			return nil, fmt.Errorf("%w: participant %d holds seat %d", ErrSeatingInvalid, p.ID, seat)
		}
		seen[seat] = true
	}

	seated := make([]models.Participant, n)
	copy(seated, participants)
	sort.Slice(seated, func(i, j int) bool {
		return *seated[i].DraftSeat < *seated[j].DraftSeat
	})
	return seated, nil
}
