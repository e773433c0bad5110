package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-system/brackets"
	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
)

// computeStandings ranks every registered participant, dropped ones included.
func computeStandings(participants []*models.Participant, matches []models.Match) []models.Standing {
	ranked := brackets.ComputeStandings(playerIDs(participants), matches, brackets.DefaultScoring)
	dropped := make(map[int]bool, len(participants))
	for _, p := range participants {
		dropped[p.PlayerID] = p.Dropped
	}
	for i := range ranked {
		ranked[i].Dropped = dropped[ranked[i].PlayerID]
	}
	return ranked
}

func loadStandings(
	ctx context.Context,
	exec repositories.SQLExecutor,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	tournamentID int,
) ([]models.Standing, error) {
	participants, err := participantRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants of tournament %d: %w", tournamentID, err)
	}
	matches, err := matchRepo.ListByTournament(ctx, exec, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of tournament %d: %w", tournamentID, err)
	}
	return computeStandings(participants, matches), nil
}

// roundWriter persists a generated round and its matches.
type roundWriter struct {
	roundRepo repositories.RoundRepository
	matchRepo repositories.MatchRepository
}

// create inserts the round row first; the unique (tournament, round number)
// key makes it the single writer. It returns (nil, nil) when the round
// already exists.
func (w roundWriter) create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, number int, pairings []models.Pairing) (*models.Round, error) {
	round := &models.Round{TournamentID: t.ID, Number: number}
	if err := w.roundRepo.Create(ctx, exec, round); err != nil {
		if errors.Is(err, repositories.ErrRoundAlreadyExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create round %d: %w", number, err)
	}

	round.Matches = make([]models.Match, 0, len(pairings))
	for _, pairing := range pairings {
		match := models.Match{
			TournamentID: t.ID,
			RoundNumber:  number,
			GameType:     t.Format,
			Participants: []models.MatchParticipant{{PlayerID: pairing.Player1, Result: models.ResultPending}},
		}
		if pairing.IsBye() {
			match.Participants[0].Result = models.ResultWin
			match.Participants[0].GamesWon = models.ByeGamesWon
		} else {
			match.Participants = append(match.Participants, models.MatchParticipant{PlayerID: *pairing.Player2, Result: models.ResultPending})
		}
		if err := w.matchRepo.Create(ctx, exec, &match); err != nil {
			return nil, fmt.Errorf("failed to create match in round %d: %w", number, err)
		}
		round.Matches = append(round.Matches, match)
	}
	return round, nil
}
