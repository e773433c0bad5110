package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-system/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: player already registered for this tournament")
	ErrParticipantTournamentInvalid = errors.New("participant tournament conflict or invalid")
	ErrSeatTaken                    = errors.New("draft seat is already held by another participant")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error)
	// ListByTournament returns participants in registration order.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	UpdateSeat(ctx context.Context, exec SQLExecutor, id int, seat *int) error
	ClearSeats(ctx context.Context, exec SQLExecutor, tournamentID int) error
	MarkDropped(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, player_id, draft_seat, dropped)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.TournamentID,
		p.PlayerID,
		p.DraftSeat,
		p.Dropped,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	var seat sql.NullInt64
	if err := rowScanner.Scan(&p.ID, &p.TournamentID, &p.PlayerID, &seat, &p.Dropped, &p.CreatedAt); err != nil {
		return err
	}
	if seat.Valid {
		s := int(seat.Int64)
		p.DraftSeat = &s
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, player_id, draft_seat, dropped, created_at
		FROM participants
		WHERE id = $1`

	p := &models.Participant{}
	if err := r.scanParticipant(r.getExecutor(exec).QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT id, tournament_id, player_id, draft_seat, dropped, created_at
		FROM participants
		WHERE tournament_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p := &models.Participant{}
		if scanErr := r.scanParticipant(rows, p); scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateSeat(ctx context.Context, exec SQLExecutor, id int, seat *int) error {
	query := `UPDATE participants SET draft_seat = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, seat, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) ClearSeats(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `UPDATE participants SET draft_seat = NULL WHERE tournament_id = $1`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to clear seats for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresParticipantRepository) MarkDropped(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE participants SET dropped = TRUE WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to drop participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM participants WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if constraint, ok := pqConstraint(err, pqUniqueViolation); ok {
		switch constraint {
		case "participants_tournament_id_player_id_key":
			return ErrParticipantConflict
		case "participants_tournament_seat_idx":
			return ErrSeatTaken
		}
	}
	if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok && constraint == "participants_tournament_id_fkey" {
		return ErrParticipantTournamentInvalid
	}
	return fmt.Errorf("participant query failed: %w", err)
}
