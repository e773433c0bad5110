package brackets

import "github.com/Dosada05/swiss-system/models"

// ScoringTable assigns match points per result.
type ScoringTable struct {
	Win  int
	Draw int
	Loss int
}

// DefaultScoring is the only scoring table in use: standings and pairing seed
// order are both computed from it.
var DefaultScoring = ScoringTable{Win: 3, Draw: 1, Loss: 0}

// MinimumWinPercentage is the Swiss floor applied to match and game win rates.
const MinimumWinPercentage = 1.0 / 3.0

func (s ScoringTable) PointsFor(result models.MatchResult) int {
	switch result {
	case models.ResultWin:
		return s.Win
	case models.ResultDraw:
		return s.Draw
	case models.ResultLoss:
		return s.Loss
	default:
		return 0
	}
}
