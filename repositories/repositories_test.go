package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/swiss-system/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestRoundCreateReportsExistingRound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rounds")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	err := repo.Create(context.Background(), nil, &models.Round{TournamentID: 1, Number: 2})
	assert.ErrorIs(t, err, ErrRoundAlreadyExists)
}

func TestRoundCreateMissingTournament(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rounds")).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "rounds_tournament_id_fkey"})

	err := repo.Create(context.Background(), nil, &models.Round{TournamentID: 9, Number: 1})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRoundGetByNumberForUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	started := created.Add(time.Minute)
	mock.ExpectQuery(`FROM rounds WHERE tournament_id = \$1 AND round_number = \$2 FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "round_number", "started_at", "paused_at", "remaining_ms", "created_at"}).
			AddRow(5, 1, 2, started, nil, int64(2989100), created))

	round, err := repo.GetByNumber(context.Background(), nil, 1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 5, round.ID)
	require.NotNil(t, round.StartedAt)
	assert.True(t, started.Equal(*round.StartedAt))
	assert.Nil(t, round.PausedAt)
	require.NotNil(t, round.RemainingMs)
	assert.Equal(t, int64(2989100), *round.RemainingMs)
}

func TestRoundGetCurrentNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	mock.ExpectQuery("ORDER BY round_number DESC").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetCurrent(context.Background(), nil, 3)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestParticipantConstraintMapping(t *testing.T) {
	tests := []struct {
		name string
		err  *pq.Error
		want error
	}{
		{"duplicate player", &pq.Error{Code: pqUniqueViolation, Constraint: "participants_tournament_id_player_id_key"}, ErrParticipantConflict},
		{"seat taken", &pq.Error{Code: pqUniqueViolation, Constraint: "participants_tournament_seat_idx"}, ErrSeatTaken},
		{"missing tournament", &pq.Error{Code: pqForeignKeyViolation, Constraint: "participants_tournament_id_fkey"}, ErrParticipantTournamentInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresParticipantRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO participants")).WillReturnError(tt.err)

			err := repo.Create(context.Background(), nil, &models.Participant{TournamentID: 1, PlayerID: 101})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParticipantListByTournament(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresParticipantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM participants")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "player_id", "draft_seat", "dropped", "created_at"}).
			AddRow(1, 1, 101, 2, false, created).
			AddRow(2, 1, 102, nil, true, created))

	participants, err := repo.ListByTournament(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	require.NotNil(t, participants[0].DraftSeat)
	assert.Equal(t, 2, *participants[0].DraftSeat)
	assert.Nil(t, participants[1].DraftSeat)
	assert.True(t, participants[1].Dropped)
}

func TestMatchListByTournamentGroupsParticipants(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM matches m")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "round_number", "game_type", "created_at"}).
			AddRow(10, 1, 2, "draft", created).
			AddRow(11, 1, 2, "draft", created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM match_participants mp")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "match_id", "player_id", "result", "games_won"}).
			AddRow(1, 10, 101, "win", 2).
			AddRow(2, 10, 102, "loss", 1).
			AddRow(3, 11, 103, "win", 2))

	round := 2
	matches, err := repo.ListByTournament(context.Background(), nil, 1, &round)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Len(t, matches[0].Participants, 2)
	assert.Equal(t, models.ResultWin, matches[0].Participants[0].Result)
	assert.True(t, matches[1].IsBye())
}

func TestMatchUpdateParticipantResultNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresMatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE match_participants")).
		WithArgs("win", 2, 7, 101).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateParticipantResult(context.Background(), nil, 7, models.ParticipantResult{PlayerID: 101, Result: models.ResultWin, GamesWon: 2})
	assert.ErrorIs(t, err, ErrMatchParticipantNotFound)
}

func TestTournamentGetForUpdateNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectQuery("FOR UPDATE").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetForUpdate(context.Background(), nil, 4)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestSQLTransactor(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE tournaments").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewPostgresTournamentRepository(db)
		err := NewSQLTransactor(db, nil).WithinTx(context.Background(), func(exec SQLExecutor) error {
			return repo.UpdateStatus(context.Background(), exec, 1, models.StatusActive)
		})
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := NewSQLTransactor(db, nil).WithinTx(context.Background(), func(SQLExecutor) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
