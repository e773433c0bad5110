package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-system/models"
)

var (
	ErrRoundNotFound      = errors.New("round not found")
	ErrRoundAlreadyExists = errors.New("round already exists for this tournament")
)

type RoundRepository interface {
	// Create inserts the round. A second insert of the same round number
	// returns ErrRoundAlreadyExists without aborting the transaction.
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID, number int, forUpdate bool) (*models.Round, error)
	// GetCurrent returns the highest-numbered round of the tournament.
	GetCurrent(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Round, error)
	UpdateTimer(ctx context.Context, exec SQLExecutor, round *models.Round) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundColumns = `id, tournament_id, round_number, started_at, paused_at, remaining_ms, created_at`

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, round_number)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id, round_number) DO NOTHING
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, round.TournamentID, round.Number).
		Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoundAlreadyExists
		}
		if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok {
			return fmt.Errorf("round references missing tournament (%s): %w", constraint, ErrTournamentNotFound)
		}
		return fmt.Errorf("failed to create round %d for tournament %d: %w", round.Number, round.TournamentID, err)
	}
	round.CreatedAt = round.CreatedAt.UTC()
	return nil
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID, number int, forUpdate bool) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = $1 AND round_number = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return r.scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, number))
}

func (r *postgresRoundRepository) GetCurrent(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE tournament_id = $1
		ORDER BY round_number DESC
		LIMIT 1`
	return r.scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID))
}

func (r *postgresRoundRepository) UpdateTimer(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		UPDATE rounds
		SET started_at = $1, paused_at = $2, remaining_ms = $3
		WHERE id = $4`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, round.StartedAt, round.PausedAt, round.RemainingMs, round.ID)
	if err != nil {
		return fmt.Errorf("UpdateTimer: failed to execute query for round %d: %w", round.ID, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) scanRound(row *sql.Row) (*models.Round, error) {
	var (
		round     models.Round
		startedAt sql.NullTime
		pausedAt  sql.NullTime
		remaining sql.NullInt64
	)
	err := row.Scan(&round.ID, &round.TournamentID, &round.Number, &startedAt, &pausedAt, &remaining, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	round.StartedAt = utcPtr(startedAt)
	round.PausedAt = utcPtr(pausedAt)
	if remaining.Valid {
		v := remaining.Int64
		round.RemainingMs = &v
	}
	round.CreatedAt = round.CreatedAt.UTC()
	return &round, nil
}

// Все временные метки приводим к UTC.
func utcPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
