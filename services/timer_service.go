package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
)

type TimerService interface {
	StartTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error)
	PauseTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error)
	ResumeTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error)
	// UpdateTimerDuration stores a new default round length and resets the
	// round's clock to it.
	UpdateTimerDuration(ctx context.Context, tournamentID, roundNumber, minutes int) (*models.TimerView, error)
	// GetTimer reads the clock. When clientTime is given the view carries the
	// client's offset from the server clock.
	GetTimer(ctx context.Context, tournamentID, roundNumber int, clientTime *time.Time) (*models.TimerView, error)
}

type timerService struct {
	tx             Transactor
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	notifier       Notifier
	logger         *slog.Logger
	now            Clock
}

func NewTimerService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	notifier Notifier,
	logger *slog.Logger,
) TimerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &timerService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		notifier:       notifierOrNop(notifier),
		logger:         logger,
		now:            utcNow,
	}
}

type timerTransition func(exec repositories.SQLExecutor, t *models.Tournament, r *models.Round, now time.Time) error

// transition re-reads the round under a row lock, applies fn and persists the
// result, so concurrent controls see each other's committed state.
func (s *timerService) transition(ctx context.Context, action string, tournamentID, roundNumber int, lockTournament bool, fn timerTransition) (*models.TimerView, error) {
	var view models.TimerView
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var (
			t   *models.Tournament
			err error
		)
		if lockTournament {
			t, err = s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		} else {
			t, err = s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		}
		if err != nil {
			return handleRepositoryError(err)
		}
		round, err := s.roundRepo.GetByNumber(ctx, exec, tournamentID, roundNumber, true)
		if err != nil {
			return handleRepositoryError(err)
		}

		now := s.now().UTC()
		if err := fn(exec, t, round, now); err != nil {
			return err
		}
		if err := s.roundRepo.UpdateTimer(ctx, exec, round); err != nil {
			return handleRepositoryError(err)
		}
		view = round.View(now, t.RoundDurationSeconds())
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.WarnContext(ctx, "timer transition rejected",
				slog.String("action", action), slog.Int("tournament_id", tournamentID), slog.Int("round", roundNumber), slog.Any("error", err))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "round timer updated",
		slog.String("action", action), slog.Int("tournament_id", tournamentID), slog.Int("round", roundNumber),
		slog.String("state", string(view.State)), slog.Int("display_seconds", view.DisplaySeconds))
	s.notifier.Publish(tournamentID, EventTimerUpdated, view)
	return &view, nil
}

func (s *timerService) StartTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error) {
	return s.transition(ctx, "start", tournamentID, roundNumber, false, func(_ repositories.SQLExecutor, t *models.Tournament, r *models.Round, now time.Time) error {
		r.StartTimer(now, t.RoundDurationSeconds())
		return nil
	})
}

func (s *timerService) PauseTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error) {
	return s.transition(ctx, "pause", tournamentID, roundNumber, false, func(_ repositories.SQLExecutor, _ *models.Tournament, r *models.Round, now time.Time) error {
		if err := r.PauseTimer(now); err != nil {
			return ErrTimerNotRunning
		}
		return nil
	})
}

func (s *timerService) ResumeTimer(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error) {
	return s.transition(ctx, "resume", tournamentID, roundNumber, false, func(_ repositories.SQLExecutor, _ *models.Tournament, r *models.Round, now time.Time) error {
		if err := r.ResumeTimer(now); err != nil {
			return ErrTimerNotPaused
		}
		return nil
	})
}

func (s *timerService) UpdateTimerDuration(ctx context.Context, tournamentID, roundNumber, minutes int) (*models.TimerView, error) {
	if err := validateDuration(minutes); err != nil {
		return nil, err
	}
	return s.transition(ctx, "update_duration", tournamentID, roundNumber, true, func(exec repositories.SQLExecutor, t *models.Tournament, r *models.Round, _ time.Time) error {
		if err := s.tournamentRepo.UpdateRoundDuration(ctx, exec, t.ID, minutes); err != nil {
			return handleRepositoryError(err)
		}
		t.RoundDurationMinutes = minutes
		r.ResetTimer()
		return nil
	})
}

func (s *timerService) GetTimer(ctx context.Context, tournamentID, roundNumber int, clientTime *time.Time) (*models.TimerView, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	round, err := s.roundRepo.GetByNumber(ctx, nil, tournamentID, roundNumber, false)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	view := round.View(s.now(), t.RoundDurationSeconds())
	if clientTime != nil {
		offset := clientTime.UTC().Sub(view.ServerTime).Milliseconds()
		view.ClientOffsetMs = &offset
	}
	return &view, nil
}
