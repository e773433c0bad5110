package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-system/models"
)

func seated(seats map[int]int) []models.Participant {
	participants := make([]models.Participant, 0, len(seats))
	for player := 10; player <= 10*len(seats)+10; player += 10 {
		seat, ok := seats[player]
		if !ok {
			continue
		}
		s := seat
		participants = append(participants, models.Participant{ID: player / 10, PlayerID: player, DraftSeat: &s})
	}
	return participants
}

func TestCrossTablePairsAcrossTheTable(t *testing.T) {
	participants := seated(map[int]int{10: 3, 20: 1, 30: 4, 40: 2})

	pairings, err := NewCrossTableGenerator().GeneratePairings(context.Background(), GeneratePairingsParams{Participants: participants})
	require.NoError(t, err)

	pairs, byePlayer := pairsOf(pairings)
	assert.Equal(t, []PairKey{NewPairKey(20, 10), NewPairKey(40, 30)}, pairs)
	assert.Zero(t, byePlayer)
}

func TestCrossTableOddCountGivesHighestSeatTheBye(t *testing.T) {
	participants := seated(map[int]int{10: 3, 20: 1, 30: 4, 40: 2, 50: 5})

	pairings, err := NewCrossTableGenerator().GeneratePairings(context.Background(), GeneratePairingsParams{Participants: participants})
	require.NoError(t, err)

	pairs, byePlayer := pairsOf(pairings)
	assert.Equal(t, []PairKey{NewPairKey(20, 10), NewPairKey(40, 30)}, pairs)
	assert.Equal(t, 50, byePlayer)
}

func TestCrossTableRejectsBadSeating(t *testing.T) {
	missing := seated(map[int]int{10: 1, 20: 2})
	missing[1].DraftSeat = nil

	tests := []struct {
		name         string
		participants []models.Participant
		want         error
	}{
		{"single player", seated(map[int]int{10: 1}), ErrNotEnoughPlayers},
		{"missing seat", missing, ErrSeatingIncomplete},
		{"duplicate seat", seated(map[int]int{10: 1, 20: 1}), ErrSeatingInvalid},
		{"seat out of range", seated(map[int]int{10: 1, 20: 3}), ErrSeatingInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCrossTableGenerator().GeneratePairings(context.Background(), GeneratePairingsParams{Participants: tt.participants})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
