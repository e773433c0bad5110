package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/swiss-system/brackets"
	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
	"golang.org/x/sync/errgroup"
)

// SubmitOutcome reports what a result write caused.
type SubmitOutcome struct {
	Match               *models.Match `json:"match"`
	RoundComplete       bool          `json:"round_complete"`
	RoundGenerated      bool          `json:"round_generated"`
	NextRound           *models.Round `json:"next_round,omitempty"`
	TournamentCompleted bool          `json:"tournament_completed"`

	tournament *models.Tournament
	standings  []models.Standing
}

type RoundService interface {
	// SubmitResult records a two-player result and advances the tournament
	// when it completes the current round. When too few active players remain
	// for the next round, the result is still saved and the outcome is
	// returned together with ErrInsufficientPlayers.
	SubmitResult(ctx context.Context, matchID int, results []models.ParticipantResult) (*SubmitOutcome, error)
	// OverrideResult rewrites a result on an active or completed tournament.
	// Later rounds are never re-paired, so standings may reflect a history
	// different from the one those pairings were built on.
	OverrideResult(ctx context.Context, matchID int, results []models.ParticipantResult) (*SubmitOutcome, error)
	CurrentRound(ctx context.Context, tournamentID int) (*models.Round, error)
	GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	ListMatches(ctx context.Context, tournamentID int, round *int) ([]models.Match, error)
}

type roundService struct {
	tx              Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	roundRepo       repositories.RoundRepository
	writer          roundWriter
	generator       brackets.PairingGenerator
	archiver        *StandingsArchiver
	notifier        Notifier
	logger          *slog.Logger
}

func NewRoundService(
	tx Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	roundRepo repositories.RoundRepository,
	archiver *StandingsArchiver,
	notifier Notifier,
	logger *slog.Logger,
) RoundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &roundService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		roundRepo:       roundRepo,
		writer:          roundWriter{roundRepo: roundRepo, matchRepo: matchRepo},
		generator:       brackets.NewSwissGenerator(),
		archiver:        archiver,
		notifier:        notifierOrNop(notifier),
		logger:          logger,
	}
}

func (s *roundService) SubmitResult(ctx context.Context, matchID int, results []models.ParticipantResult) (*SubmitOutcome, error) {
	return s.writeResult(ctx, matchID, results, false)
}

func (s *roundService) OverrideResult(ctx context.Context, matchID int, results []models.ParticipantResult) (*SubmitOutcome, error) {
	return s.writeResult(ctx, matchID, results, true)
}

func (s *roundService) writeResult(ctx context.Context, matchID int, results []models.ParticipantResult, override bool) (*SubmitOutcome, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	tournamentID := match.TournamentID

	var (
		outcome      *SubmitOutcome
		insufficient error
		rearchive    *models.Tournament
	)
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Блокировка строки турнира сериализует отправку результатов.
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !canWriteResult(t.Status, override) {
			return fmt.Errorf("%w (status %s)", ErrTournamentNotActive, t.Status)
		}

		// Re-read under the lock.
		m, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := validateResults(m, results, override); err != nil {
			return err
		}

		current, err := s.roundRepo.GetCurrent(ctx, exec, tournamentID)
		if err != nil {
			return handleRepositoryError(err)
		}
		inCurrentRound := m.RoundNumber == current.Number

		if !override && !inCurrentRound {
			if sameResults(m, results) {
				outcome = &SubmitOutcome{Match: m}
				return nil
			}
			return fmt.Errorf("%w: match %d belongs to round %d, current round is %d", ErrRoundClosed, m.ID, m.RoundNumber, current.Number)
		}

		for _, r := range results {
			if err := s.matchRepo.UpdateParticipantResult(ctx, exec, m.ID, r); err != nil {
				return handleRepositoryError(err)
			}
			p, _ := m.Participant(r.PlayerID)
			p.Result = r.Result
			p.GamesWon = r.GamesWon
		}
		outcome = &SubmitOutcome{Match: m}

		if t.Status == models.StatusCompleted {
			rearchive = t
			return nil
		}
		if !inCurrentRound {
			return nil
		}

		err = s.advanceIfComplete(ctx, exec, t, m.RoundNumber, outcome)
		if errors.Is(err, ErrInsufficientPlayers) {
			// Результат сохраняем, турнир остаётся активным.
			insufficient = err
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, tournamentID, outcome, override)
	if rearchive != nil {
		standings, err := s.GetStandings(ctx, tournamentID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to recompute standings after override", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		} else {
			s.archiver.Archive(ctx, rearchive, standings)
		}
	}
	if insufficient != nil {
		s.logger.WarnContext(ctx, "next round not generated: not enough active players",
			slog.Int("tournament_id", tournamentID), slog.Int("round", outcome.Match.RoundNumber))
		return outcome, insufficient
	}
	return outcome, nil
}

// advanceIfComplete generates round+1 or completes the tournament once every
// match of round is resolved.
func (s *roundService) advanceIfComplete(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, round int, outcome *SubmitOutcome) error {
	matches, err := s.matchRepo.ListByTournament(ctx, exec, t.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to load matches of tournament %d: %w", t.ID, err)
	}
	if !roundResolved(matches, round) {
		return nil
	}
	outcome.RoundComplete = true

	participants, err := s.participantRepo.ListByTournament(ctx, exec, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load participants of tournament %d: %w", t.ID, err)
	}
	standings := computeStandings(participants, matches)

	if round >= t.MaxRounds {
		if err := s.tournamentRepo.UpdateStatus(ctx, exec, t.ID, models.StatusCompleted); err != nil {
			return handleRepositoryError(err)
		}
		t.Status = models.StatusCompleted
		outcome.TournamentCompleted = true
		outcome.tournament = t
		outcome.standings = standings
		return nil
	}

	active := make([]models.Standing, 0, len(standings))
	for _, st := range standings {
		if !st.Dropped {
			active = append(active, st)
		}
	}
	if len(active) < 2 {
		return fmt.Errorf("%w (found %d)", ErrInsufficientPlayers, len(active))
	}

	pairings, err := s.generator.GeneratePairings(ctx, brackets.GeneratePairingsParams{
		Tournament:  t,
		Standings:   active,
		PlayedPairs: brackets.PlayedPairs(matches),
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughPlayers) {
			return ErrInsufficientPlayers
		}
		return fmt.Errorf("%s pairing failed for round %d: %w", s.generator.GetName(), round+1, err)
	}

	next, err := s.writer.create(ctx, exec, t, round+1, pairings)
	if err != nil {
		return err
	}
	if next != nil {
		outcome.RoundGenerated = true
		outcome.NextRound = next
	}
	return nil
}

func (s *roundService) publishOutcome(ctx context.Context, tournamentID int, outcome *SubmitOutcome, override bool) {
	if outcome == nil {
		return
	}
	s.logger.InfoContext(ctx, "match result recorded",
		slog.Int("tournament_id", tournamentID), slog.Int("match_id", outcome.Match.ID),
		slog.Int("round", outcome.Match.RoundNumber), slog.Bool("override", override))
	s.notifier.Publish(tournamentID, EventMatchUpdated, outcome.Match)

	if outcome.RoundGenerated {
		s.logger.InfoContext(ctx, "round generated",
			slog.Int("tournament_id", tournamentID), slog.Int("round", outcome.NextRound.Number),
			slog.Int("matches", len(outcome.NextRound.Matches)), slog.String("generator", s.generator.GetName()))
		s.notifier.Publish(tournamentID, EventRoundGenerated, outcome.NextRound)
	}
	if outcome.TournamentCompleted {
		s.logger.InfoContext(ctx, "tournament completed", slog.Int("tournament_id", tournamentID))
		s.notifier.Publish(tournamentID, EventTournamentCompleted, outcome.standings)
		s.archiver.Archive(ctx, outcome.tournament, outcome.standings)
	}
}

func (s *roundService) CurrentRound(ctx context.Context, tournamentID int) (*models.Round, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	round, err := s.roundRepo.GetCurrent(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, &round.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of round %d: %w", round.Number, err)
	}
	round.Matches = matches
	return round, nil
}

func (s *roundService) GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	var (
		participants []*models.Participant
		matches      []models.Match
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.tournamentRepo.GetByID(gCtx, nil, tournamentID)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load participants of tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID, nil)
		if err != nil {
			return fmt.Errorf("failed to load matches of tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return computeStandings(participants, matches), nil
}

func (s *roundService) ListMatches(ctx context.Context, tournamentID int, round *int) ([]models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func canWriteResult(status models.TournamentStatus, override bool) bool {
	if status == models.StatusActive {
		return true
	}
	return override && status == models.StatusCompleted
}

// roundResolved reports whether round has matches and all of them are resolved.
func roundResolved(matches []models.Match, round int) bool {
	found := false
	for i := range matches {
		if matches[i].RoundNumber != round {
			continue
		}
		found = true
		if !matches[i].IsResolved() {
			return false
		}
	}
	return found
}

// validateResults checks the submission against the match: exactly its two
// players, each once, with a win/loss or draw/draw pair. Overrides may clear
// both sides back to pending.
func validateResults(m *models.Match, results []models.ParticipantResult, allowPending bool) error {
	if m.IsBye() {
		return fmt.Errorf("%w: match %d is a bye", ErrInvalidMatch, m.ID)
	}
	if len(m.Participants) != 2 {
		return fmt.Errorf("%w: match %d has %d participants", ErrInvalidMatch, m.ID, len(m.Participants))
	}
	if len(results) != 2 {
		return fmt.Errorf("%w: expected 2 results, got %d", ErrInvalidMatch, len(results))
	}
	if results[0].PlayerID == results[1].PlayerID {
		return fmt.Errorf("%w: player %d reported twice", ErrInvalidMatch, results[0].PlayerID)
	}
	for _, r := range results {
		if _, ok := m.Participant(r.PlayerID); !ok {
			return fmt.Errorf("%w: player %d is not in match %d", ErrInvalidMatch, r.PlayerID, m.ID)
		}
		if !r.Result.IsValid() {
			return fmt.Errorf("%w: unknown result %q", ErrInvalidMatch, r.Result)
		}
		if r.GamesWon < 0 {
			return fmt.Errorf("%w: games won cannot be negative", ErrInvalidMatch)
		}
	}

	a, b := results[0].Result, results[1].Result
	switch {
	case a == models.ResultPending && b == models.ResultPending:
		if !allowPending {
			return fmt.Errorf("%w: result is required", ErrInvalidMatch)
		}
	case a == models.ResultDraw && b == models.ResultDraw:
	case a == models.ResultWin && b == models.ResultLoss, a == models.ResultLoss && b == models.ResultWin:
	default:
		return fmt.Errorf("%w: inconsistent results %s/%s", ErrInvalidMatch, a, b)
	}
	return nil
}

func sameResults(m *models.Match, results []models.ParticipantResult) bool {
	for _, r := range results {
		p, ok := m.Participant(r.PlayerID)
		if !ok || p.Result != r.Result || p.GamesWon != r.GamesWon {
			return false
		}
	}
	return true
}
