package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/swiss-system/models"
)

// searchStepLimit bounds a single backtracking search.
const searchStepLimit = 100_000

type SwissGenerator struct {
	stepLimit int
}

func NewSwissGenerator() PairingGenerator {
	return &SwissGenerator{stepLimit: searchStepLimit}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GeneratePairings pairs ranked standings top-down, each player meeting the
// nearest-ranked opponent they have not played yet. With an odd player count
// the bye goes to the lowest-ranked player who has not had one; repeat byes
// happen only when every player already had a bye. Among the remaining
// players rematches are produced only when no rematch-free pairing exists,
// and then as few as possible.
func (g *SwissGenerator) GeneratePairings(ctx context.Context, params GeneratePairingsParams) ([]models.Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := params.Standings
	if len(ranked) < 2 {
		return nil, fmt.Errorf("SwissGenerator: %w (found %d)", ErrNotEnoughPlayers, len(ranked))
	}
	played := params.PlayedPairs
	if played == nil {
		played = map[PairKey]bool{}
	}

	ids := make([]int, len(ranked))
	for i, s := range ranked {
		ids[i] = s.PlayerID
	}

	if len(ids)%2 == 0 {
		pairs := g.pairWithFewestRematches(ids, played)
		return toPairings(pairs, nil), nil
	}

	idx := byeIndex(ranked)
	bye := ids[idx]
	pairs := g.pairWithFewestRematches(without(ids, idx), played)
	return toPairings(pairs, &bye), nil
}

// byeIndex returns the index into ranked of the lowest-ranked player without
// a bye, or of the last player when everybody already had one. The bye never
// moves up to avoid a rematch.
func byeIndex(ranked []models.Standing) int {
	for i := len(ranked) - 1; i >= 0; i-- {
		if !ranked[i].ReceivedBye {
			return i
		}
	}
	return len(ranked) - 1
}

func (g *SwissGenerator) pairWithFewestRematches(ids []int, played map[PairKey]bool) [][2]int {
	for budget := 0; budget <= len(ids)/2; budget++ {
		if pairs, ok := g.search(ids, played, budget); ok {
			return pairs
		}
	}
	// Unreachable: with budget len/2 the first descent always succeeds.
	return consecutivePairs(ids)
}

func (g *SwissGenerator) search(ids []int, played map[PairKey]bool, budget int) ([][2]int, bool) {
	s := &pairingSearch{
		ids:    ids,
		played: played,
		used:   make([]bool, len(ids)),
		pairs:  make([][2]int, 0, len(ids)/2),
		limit:  g.stepLimit,
	}
	if !s.run(budget) {
		return nil, false
	}
	return s.pairs, true
}

type pairingSearch struct {
	ids    []int
	played map[PairKey]bool
	used   []bool
	pairs  [][2]int
	steps  int
	limit  int
}

func (s *pairingSearch) run(budget int) bool {
	first := -1
	for i := range s.ids {
		if !s.used[i] {
			first = i
			break
		}
	}
	if first == -1 {
		return true
	}
	s.steps++
	if s.steps > s.limit {
		return false
	}

	s.used[first] = true
	for j := first + 1; j < len(s.ids); j++ {
		if s.used[j] {
			continue
		}
		cost := 0
		if s.played[NewPairKey(s.ids[first], s.ids[j])] {
			cost = 1
		}
		if cost > budget {
			continue
		}
		s.used[j] = true
		s.pairs = append(s.pairs, [2]int{s.ids[first], s.ids[j]})
		if s.run(budget - cost) {
			return true
		}
		s.pairs = s.pairs[:len(s.pairs)-1]
		s.used[j] = false
		if s.steps > s.limit {
			break
		}
	}
	s.used[first] = false
	return false
}

func consecutivePairs(ids []int) [][2]int {
	pairs := make([][2]int, 0, len(ids)/2)
	for i := 0; i+1 < len(ids); i += 2 {
		pairs = append(pairs, [2]int{ids[i], ids[i+1]})
	}
	return pairs
}

func without(ids []int, idx int) []int {
	rest := make([]int, 0, len(ids)-1)
	rest = append(rest, ids[:idx]...)
	return append(rest, ids[idx+1:]...)
}

func toPairings(pairs [][2]int, bye *int) []models.Pairing {
	pairings := make([]models.Pairing, 0, len(pairs)+1)
	for _, p := range pairs {
		opponent := p[1]
		pairings = append(pairings, models.Pairing{Player1: p[0], Player2: &opponent})
	}
	if bye != nil {
		pairings = append(pairings, models.Pairing{Player1: *bye})
	}
	return pairings
}
