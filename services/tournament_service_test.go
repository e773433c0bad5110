package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-system/models"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "  Cube Night  "})
	require.NoError(t, err)
	assert.Equal(t, "Cube Night", created.Name)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, 3, created.MaxRounds)
	assert.Equal(t, 50, created.RoundDurationMinutes)
	assert.Equal(t, defaultTournamentFormat, created.Format)

	tests := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{"missing name", CreateTournamentInput{}, ErrInvalidTournament},
		{"zero rounds", CreateTournamentInput{Name: "x", MaxRounds: intPtr(0)}, ErrInvalidTournament},
		{"duration too long", CreateTournamentInput{Name: "x", RoundDurationMinutes: intPtr(301)}, ErrInvalidDuration},
		{"negative prizes", CreateTournamentInput{Name: "x", PrizeSlots: intPtr(-1)}, ErrInvalidTournament},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tournaments.CreateTournament(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestRegisterParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, 3, 2)

	_, err := env.tournaments.RegisterParticipant(ctx, tournament.ID, 101)
	assert.ErrorIs(t, err, ErrParticipantConflict)

	_, err = env.tournaments.RegisterParticipant(ctx, tournament.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidPlayer)

	_, err = env.tournaments.RegisterParticipant(ctx, 999, 200)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = env.seating.RandomizeSeating(ctx, tournament.ID)
	require.NoError(t, err)
	_, err = env.seating.StartDraft(ctx, tournament.ID)
	require.NoError(t, err)

	_, err = env.tournaments.RegisterParticipant(ctx, tournament.ID, 300)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestDropParticipantBeforeDraftRemoves(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, ps := env.createTournament(t, 3, 3)

	require.NoError(t, env.tournaments.DropParticipant(ctx, tournament.ID, ps[1].ID))
	got, err := env.tournaments.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 2)
	assert.Equal(t, 101, got.Participants[0].PlayerID)
	assert.Equal(t, 103, got.Participants[1].PlayerID)

	err = env.tournaments.DropParticipant(ctx, tournament.ID, ps[1].ID)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	other, _ := env.createTournament(t, 3, 0)
	err = env.tournaments.DropParticipant(ctx, other.ID, ps[0].ID)
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestCompleteTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pending, _ := env.createTournament(t, 3, 2)

	_, err := env.tournaments.CompleteTournament(ctx, pending.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	tournament, _ := env.startTournament(t, 3, 2)
	completed, err := env.tournaments.CompleteTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.Equal(t, 1, env.notifier.count(EventTournamentCompleted))
	_, archived := env.uploader.object(archiveKey(tournament.ID))
	assert.True(t, archived)

	_, err = env.tournaments.CompleteTournament(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestArchiveFailureDoesNotFailCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.uploader.err = errors.New("bucket unavailable")

	tournament, _ := env.startTournament(t, 3, 2)
	completed, err := env.tournaments.CompleteTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
}

func TestArchiverDisabledWithoutUploader(t *testing.T) {
	archiver := NewStandingsArchiver(nil, nil)
	location := archiver.Archive(context.Background(), &models.Tournament{ID: 1}, nil)
	assert.Empty(t, location)
}
