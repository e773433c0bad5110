package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/Dosada05/swiss-system/brackets"
	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
)

type SeatingService interface {
	// AssignSeat puts the participant in seat (1..N). A participant already in
	// that seat loses it. A nil seat clears the participant's seat.
	AssignSeat(ctx context.Context, tournamentID, participantID int, seat *int) (*models.Participant, error)
	ClearSeat(ctx context.Context, tournamentID, participantID int) (*models.Participant, error)
	// RandomizeSeating overwrites every seat with a uniformly random permutation of 1..N.
	RandomizeSeating(ctx context.Context, tournamentID int) ([]models.Participant, error)
	// StartDraft creates Round 1 from the seating and activates the tournament.
	StartDraft(ctx context.Context, tournamentID int) (*models.Round, error)
}

type seatingService struct {
	tx              Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	roundRepo       repositories.RoundRepository
	writer          roundWriter
	generator       brackets.PairingGenerator
	notifier        Notifier
	logger          *slog.Logger
	perm            func(n int) []int
}

func NewSeatingService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	logger *slog.Logger,
) SeatingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &seatingService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		writer:          roundWriter{roundRepo: roundRepo, matchRepo: matchRepo},
		generator:       brackets.NewCrossTableGenerator(),
		notifier:        notifierOrNop(notifier),
		logger:          logger,
		perm:            rand.Perm,
	}
}

// lockPending locks the tournament row and returns its participants.
func (s *seatingService) lockPending(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if t.Status != models.StatusPending {
		return nil, ErrDraftAlreadyStarted
	}
	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants of tournament %d: %w", tournamentID, err)
	}
	return participants, nil
}

func (s *seatingService) AssignSeat(ctx context.Context, tournamentID, participantID int, seat *int) (*models.Participant, error) {
	var (
		target  *models.Participant
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participants, err := s.lockPending(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		p, ok := findParticipant(participants, participantID)
		if !ok {
			return ErrParticipantNotFound
		}
		target = p

		if seat == nil {
			if !p.HasSeat() {
				return nil
			}
			changed = true
			p.DraftSeat = nil
			return handleRepositoryError(s.participantRepo.UpdateSeat(ctx, exec, p.ID, nil))
		}

		n := len(participants)
		if *seat < 1 || *seat > n {
			return fmt.Errorf("%w: seat %d with %d participants", ErrInvalidSeat, *seat, n)
		}
		if p.HasSeat() && *p.DraftSeat == *seat {
			return nil
		}

		// Сначала освобождаем место, чтобы не нарушить уникальный индекс.
		for _, other := range participants {
			if other.ID != p.ID && other.HasSeat() && *other.DraftSeat == *seat {
				if err := s.participantRepo.UpdateSeat(ctx, exec, other.ID, nil); err != nil {
					return handleRepositoryError(err)
				}
				other.DraftSeat = nil
			}
		}
		value := *seat
		if err := s.participantRepo.UpdateSeat(ctx, exec, p.ID, &value); err != nil {
			return handleRepositoryError(err)
		}
		p.DraftSeat = &value
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.InfoContext(ctx, "draft seat updated",
			slog.Int("tournament_id", tournamentID), slog.Int("participant_id", participantID), slog.Any("seat", target.DraftSeat))
		s.notifier.Publish(tournamentID, EventSeatingUpdated, target)
	}
	return target, nil
}

func (s *seatingService) ClearSeat(ctx context.Context, tournamentID, participantID int) (*models.Participant, error) {
	return s.AssignSeat(ctx, tournamentID, participantID, nil)
}

func (s *seatingService) RandomizeSeating(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	var seated []*models.Participant
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participants, err := s.lockPending(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := s.participantRepo.ClearSeats(ctx, exec, tournamentID); err != nil {
			return handleRepositoryError(err)
		}

		perm := s.perm(len(participants))
		for i, p := range participants {
			seat := perm[i] + 1
			if err := s.participantRepo.UpdateSeat(ctx, exec, p.ID, &seat); err != nil {
				return handleRepositoryError(err)
			}
			p.DraftSeat = &seat
		}
		seated = participants
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := participantsToValues(seated)
	s.logger.InfoContext(ctx, "seating randomized", slog.Int("tournament_id", tournamentID), slog.Int("participants", len(result)))
	s.notifier.Publish(tournamentID, EventSeatingUpdated, result)
	return result, nil
}

func (s *seatingService) StartDraft(ctx context.Context, tournamentID int) (*models.Round, error) {
	var round *models.Round
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if t.Status != models.StatusPending {
			return ErrAlreadyStarted
		}
		if _, err := s.roundRepo.GetCurrent(ctx, exec, tournamentID); err == nil {
			return ErrAlreadyStarted
		} else if !errors.Is(err, repositories.ErrRoundNotFound) {
			return err
		}

		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load participants of tournament %d: %w", tournamentID, err)
		}
		if len(participants) < 2 {
			return fmt.Errorf("%w (found %d)", ErrInsufficientPlayers, len(participants))
		}

		pairings, err := s.generator.GeneratePairings(ctx, brackets.GeneratePairingsParams{
			Tournament:   t,
			Participants: participantsToValues(participants),
		})
		if err != nil {
			switch {
			case errors.Is(err, brackets.ErrSeatingIncomplete), errors.Is(err, brackets.ErrSeatingInvalid):
				return fmt.Errorf("%w: %w", ErrIncompleteSeating, err)
			case errors.Is(err, brackets.ErrNotEnoughPlayers):
				return ErrInsufficientPlayers
			}
			return fmt.Errorf("%s pairing failed: %w", s.generator.GetName(), err)
		}

		round, err = s.writer.create(ctx, exec, t, 1, pairings)
		if err != nil {
			return err
		}
		if round == nil {
			return ErrAlreadyStarted
		}
		return handleRepositoryError(s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusActive))
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draft started",
		slog.Int("tournament_id", tournamentID), slog.Int("round", round.Number), slog.Int("matches", len(round.Matches)))
	s.notifier.Publish(tournamentID, EventDraftStarted, round)
	return round, nil
}
