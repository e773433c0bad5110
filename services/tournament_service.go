package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
)

const defaultTournamentFormat = "draft"

type CreateTournamentInput struct {
	Name                 string `json:"name"`
	Format               string `json:"format"`
	MaxRounds            *int   `json:"max_rounds"`
	RoundDurationMinutes *int   `json:"round_duration_minutes"`
	PrizeSlots           *int   `json:"prize_slots"`
}

// TournamentDefaults fill fields omitted on creation.
type TournamentDefaults struct {
	MaxRounds            int
	RoundDurationMinutes int
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	RegisterParticipant(ctx context.Context, tournamentID, playerID int) (*models.Participant, error)
	// DropParticipant removes a participant before the draft and marks them
	// dropped afterwards, so their history stays in the standings.
	DropParticipant(ctx context.Context, tournamentID, participantID int) error
	// CompleteTournament is the administrative active -> completed override.
	CompleteTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type tournamentService struct {
	tx              Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	archiver        *StandingsArchiver
	notifier        Notifier
	defaults        TournamentDefaults
	logger          *slog.Logger
}

func NewTournamentService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	archiver *StandingsArchiver,
	notifier Notifier,
	defaults TournamentDefaults,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		archiver:        archiver,
		notifier:        notifierOrNop(notifier),
		defaults:        defaults,
		logger:          logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		Name:                 strings.TrimSpace(input.Name),
		Format:               strings.TrimSpace(input.Format),
		Status:               models.StatusPending,
		MaxRounds:            s.defaults.MaxRounds,
		RoundDurationMinutes: s.defaults.RoundDurationMinutes,
		PrizeSlots:           input.PrizeSlots,
	}
	if t.Format == "" {
		t.Format = defaultTournamentFormat
	}
	if input.MaxRounds != nil {
		t.MaxRounds = *input.MaxRounds
	}
	if input.RoundDurationMinutes != nil {
		t.RoundDurationMinutes = *input.RoundDurationMinutes
	}

	if t.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTournament)
	}
	if t.MaxRounds < 1 {
		return nil, fmt.Errorf("%w: max_rounds must be at least 1", ErrInvalidTournament)
	}
	if err := validateDuration(t.RoundDurationMinutes); err != nil {
		return nil, err
	}
	if t.PrizeSlots != nil && *t.PrizeSlots < 0 {
		return nil, fmt.Errorf("%w: prize_slots cannot be negative", ErrInvalidTournament)
	}

	if err := s.tournamentRepo.Create(ctx, nil, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.Int("max_rounds", t.MaxRounds))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	participants, err := s.participantRepo.ListByTournament(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants of tournament %d: %w", id, err)
	}
	t.Participants = participantsToValues(participants)
	return t, nil
}

func (s *tournamentService) RegisterParticipant(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	if playerID <= 0 {
		return nil, ErrInvalidPlayer
	}

	p := &models.Participant{TournamentID: tournamentID, PlayerID: playerID}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if t.Status != models.StatusPending {
			return ErrRegistrationClosed
		}
		return handleRepositoryError(s.participantRepo.Create(ctx, exec, p))
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "participant registered",
		slog.Int("tournament_id", tournamentID), slog.Int("participant_id", p.ID), slog.Int("player_id", playerID))
	return p, nil
}

func (s *tournamentService) DropParticipant(ctx context.Context, tournamentID, participantID int) error {
	var dropped bool
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		p, err := s.participantRepo.FindByID(ctx, exec, participantID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if p.TournamentID != tournamentID {
			return ErrParticipantNotFound
		}

		switch t.Status {
		case models.StatusPending:
			return handleRepositoryError(s.participantRepo.Delete(ctx, exec, participantID))
		case models.StatusActive:
			if p.Dropped {
				return nil
			}
			dropped = true
			return handleRepositoryError(s.participantRepo.MarkDropped(ctx, exec, participantID))
		default:
			return ErrTournamentNotActive
		}
	})
	if err != nil {
		return err
	}

	if dropped {
		s.logger.InfoContext(ctx, "participant dropped", slog.Int("tournament_id", tournamentID), slog.Int("participant_id", participantID))
	} else {
		s.logger.InfoContext(ctx, "participant removed", slog.Int("tournament_id", tournamentID), slog.Int("participant_id", participantID))
	}
	return nil
}

func (s *tournamentService) CompleteTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var (
		tournament *models.Tournament
		standings  []models.Standing
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !t.Status.CanTransitionTo(models.StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, models.StatusCompleted)
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusCompleted); err != nil {
			return handleRepositoryError(err)
		}
		t.Status = models.StatusCompleted
		tournament = t

		standings, err = loadStandings(ctx, exec, s.participantRepo, s.matchRepo, tournamentID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) {
			s.logger.WarnContext(ctx, "tournament completion rejected", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament completed by administrator", slog.Int("tournament_id", tournamentID))
	s.notifier.Publish(tournamentID, EventTournamentCompleted, standings)
	s.archiver.Archive(ctx, tournament, standings)
	return tournament, nil
}

func validateDuration(minutes int) error {
	if minutes < models.MinRoundDurationMinutes || minutes > models.MaxRoundDurationMinutes {
		return fmt.Errorf("%w (got %d)", ErrInvalidDuration, minutes)
	}
	return nil
}
