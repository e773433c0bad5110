package brackets

import (
	"cmp"
	"slices"

	"github.com/Dosada05/swiss-system/models"
)

// CalculateStandings aggregates match history into one Standing per registered
// player. Matches may come in any order; pending results are ignored, as are
// participants who are not in players. The function never fails: players
// without history get zero values, never NaN.
func CalculateStandings(players []int, matches []models.Match, scoring ScoringTable) map[int]*models.Standing {
	standings := make(map[int]*models.Standing, len(players))
	for _, id := range players {
		standings[id] = &models.Standing{PlayerID: id}
	}

	opponents := make(map[int][]int, len(players))

	for _, m := range matches {
		if m.IsBye() {
			p := m.Participants[0]
			s, ok := standings[p.PlayerID]
			if !ok {
				continue
			}
			// A bye is always a 2-0 win, whatever was stored.
			s.ReceivedBye = true
			s.MatchesPlayed++
			s.MatchWins++
			s.Points += scoring.PointsFor(models.ResultWin)
			s.GamesWon += models.ByeGamesWon
			s.GamesPlayed += models.ByeGamesWon
			continue
		}
		if len(m.Participants) != 2 {
			continue
		}

		gamesInMatch := 0
		for _, p := range m.Participants {
			if p.GamesWon > 0 {
				gamesInMatch += p.GamesWon
			}
		}

		for i, p := range m.Participants {
			if !p.Result.IsReported() {
				continue
			}
			s, ok := standings[p.PlayerID]
			if !ok {
				continue
			}
			s.MatchesPlayed++
			switch p.Result {
			case models.ResultWin:
				s.MatchWins++
			case models.ResultLoss:
				s.MatchLosses++
			case models.ResultDraw:
				s.MatchDraws++
			}
			s.Points += scoring.PointsFor(p.Result)
			if p.GamesWon > 0 {
				s.GamesWon += p.GamesWon
			}
			s.GamesPlayed += gamesInMatch

			opponent := m.Participants[1-i].PlayerID
			opponents[p.PlayerID] = append(opponents[p.PlayerID], opponent)
		}
	}

	for _, s := range standings {
		s.MatchWinPercentage = flooredRatio(s.MatchWins, s.MatchesPlayed)
		s.GameWinPercentage = flooredRatio(s.GamesWon, s.GamesPlayed)
	}

	for id, s := range standings {
		faced := opponents[id]
		if len(faced) == 0 {
			continue
		}
		var sum float64
		for _, opp := range faced {
			if oppStanding, ok := standings[opp]; ok {
				sum += oppStanding.MatchWinPercentage
			} else {
				sum += MinimumWinPercentage
			}
		}
		s.OMWPercentage = sum / float64(len(faced))
	}

	return standings
}

// RankStandings orders standings by points, OMW%, GW% and finally by the
// position of the player in players (registration order), and fills Rank.
func RankStandings(players []int, standings map[int]*models.Standing) []models.Standing {
	order := make(map[int]int, len(players))
	for i, id := range players {
		order[id] = i
	}

	ranked := make([]models.Standing, 0, len(standings))
	for _, id := range players {
		if s, ok := standings[id]; ok {
			ranked = append(ranked, *s)
		}
	}

	slices.SortStableFunc(ranked, func(a, b models.Standing) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		if c := cmp.Compare(b.OMWPercentage, a.OMWPercentage); c != 0 {
			return c
		}
		if c := cmp.Compare(b.GameWinPercentage, a.GameWinPercentage); c != 0 {
			return c
		}
		return cmp.Compare(order[a.PlayerID], order[b.PlayerID])
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// ComputeStandings is CalculateStandings followed by RankStandings.
func ComputeStandings(players []int, matches []models.Match, scoring ScoringTable) []models.Standing {
	return RankStandings(players, CalculateStandings(players, matches, scoring))
}

func flooredRatio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	ratio := float64(num) / float64(den)
	if ratio < MinimumWinPercentage {
		return MinimumWinPercentage
	}
	return ratio
}
