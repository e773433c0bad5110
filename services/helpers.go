package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
)

// Transactor runs fn in a single database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

// Clock returns the current server time. Tests substitute a fixed clock.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return fmt.Errorf("%w: %w", ErrTournamentNotFound, err)
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrParticipantConflict
	case errors.Is(err, repositories.ErrParticipantTournamentInvalid),
		errors.Is(err, repositories.ErrMatchTournamentInvalid):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchParticipantNotFound):
		return fmt.Errorf("%w: %w", ErrInvalidMatch, err)
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	}
	return err
}

func participantsToValues(slice []*models.Participant) []models.Participant {
	if slice == nil {
		return []models.Participant{}
	}
	result := make([]models.Participant, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

// playerIDs returns the player ids in registration order.
func playerIDs(participants []*models.Participant) []int {
	ids := make([]int, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

func findParticipant(participants []*models.Participant, participantID int) (*models.Participant, bool) {
	for _, p := range participants {
		if p.ID == participantID {
			return p, true
		}
	}
	return nil, false
}
