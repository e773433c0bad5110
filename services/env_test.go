package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-system/models"
)

type testEnv struct {
	store       *memStore
	tournaments TournamentService
	seating     SeatingService
	rounds      RoundService
	timers      TimerService
	roundRepo   fakeRoundRepo
	notifier    *recordingNotifier
	uploader    *memUploader
	clock       *fakeClock
}

func identityPerm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	tournamentRepo := fakeTournamentRepo{s: store}
	participantRepo := fakeParticipantRepo{s: store}
	roundRepo := fakeRoundRepo{s: store}
	matchRepo := fakeMatchRepo{s: store}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}
	uploader := &memUploader{}
	archiver := NewStandingsArchiver(uploader, logger)

	seating := NewSeatingService(store, tournamentRepo, participantRepo, roundRepo, matchRepo, notifier, logger).(*seatingService)
	seating.perm = identityPerm

	clock := &fakeClock{now: time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)}
	timers := NewTimerService(store, tournamentRepo, roundRepo, notifier, logger).(*timerService)
	timers.now = clock.Now

	return &testEnv{
		store: store,
		tournaments: NewTournamentService(store, tournamentRepo, participantRepo, matchRepo, archiver, notifier,
			TournamentDefaults{MaxRounds: 3, RoundDurationMinutes: 50}, logger),
		seating:   seating,
		rounds:    NewRoundService(store, tournamentRepo, participantRepo, matchRepo, roundRepo, archiver, notifier, logger),
		timers:    timers,
		roundRepo: roundRepo,
		notifier:  notifier,
		uploader:  uploader,
		clock:     clock,
	}
}

// createTournament registers players 101, 102, ... in that order.
func (e *testEnv) createTournament(t *testing.T, maxRounds, players int) (*models.Tournament, []*models.Participant) {
	t.Helper()
	ctx := context.Background()
	tournament, err := e.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Friday Draft", MaxRounds: &maxRounds})
	require.NoError(t, err)

	registered := make([]*models.Participant, 0, players)
	for i := 0; i < players; i++ {
		p, err := e.tournaments.RegisterParticipant(ctx, tournament.ID, 101+i)
		require.NoError(t, err)
		registered = append(registered, p)
	}
	return tournament, registered
}

// startTournament seats players in registration order and starts the draft.
func (e *testEnv) startTournament(t *testing.T, maxRounds, players int) (*models.Tournament, *models.Round) {
	t.Helper()
	tournament, _ := e.createTournament(t, maxRounds, players)
	_, err := e.seating.RandomizeSeating(context.Background(), tournament.ID)
	require.NoError(t, err)
	round, err := e.seating.StartDraft(context.Background(), tournament.ID)
	require.NoError(t, err)
	return tournament, round
}

// win reports the match as winner beating the other player 2-0.
func win(m models.Match, winner int) []models.ParticipantResult {
	results := make([]models.ParticipantResult, 0, 2)
	for _, p := range m.Participants {
		if p.PlayerID == winner {
			results = append(results, models.ParticipantResult{PlayerID: p.PlayerID, Result: models.ResultWin, GamesWon: 2})
		} else {
			results = append(results, models.ParticipantResult{PlayerID: p.PlayerID, Result: models.ResultLoss, GamesWon: 0})
		}
	}
	return results
}

func nonByeMatches(matches []models.Match) []models.Match {
	out := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if !m.IsBye() {
			out = append(out, m)
		}
	}
	return out
}
