package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/swiss-system/models"
)

var (
	ErrMatchNotFound            = errors.New("match not found")
	ErrMatchParticipantNotFound = errors.New("match participant not found")
	ErrMatchTournamentInvalid   = errors.New("match tournament conflict or invalid")
)

type MatchRepository interface {
	// Create inserts the match together with its participants.
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *int) ([]models.Match, error)
	UpdateParticipantResult(ctx context.Context, exec SQLExecutor, matchID int, result models.ParticipantResult) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (tournament_id, round_number, game_type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, match.TournamentID, match.RoundNumber, match.GameType).
		Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pqForeignKeyViolation); ok && strings.HasPrefix(constraint, "matches_tournament_id") {
			return ErrMatchTournamentInvalid
		}
		return fmt.Errorf("failed to create match for round %d: %w", match.RoundNumber, err)
	}

	participantQuery := `
		INSERT INTO match_participants (match_id, player_id, result, games_won)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range match.Participants {
		mp := &match.Participants[i]
		mp.MatchID = match.ID
		if mp.Result == "" {
			mp.Result = models.ResultPending
		}
		if err := executor.QueryRowContext(ctx, participantQuery, mp.MatchID, mp.PlayerID, mp.Result, mp.GamesWon).Scan(&mp.ID); err != nil {
			return fmt.Errorf("failed to create participant %d for match %d: %w", mp.PlayerID, match.ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, round_number, game_type, created_at
		FROM matches
		WHERE id = $1`

	match := &models.Match{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&match.ID, &match.TournamentID, &match.RoundNumber, &match.GameType, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	match.CreatedAt = match.CreatedAt.UTC()

	participantsQuery := `
		SELECT id, match_id, player_id, result, games_won
		FROM match_participants
		WHERE match_id = $1
		ORDER BY id ASC`
	rows, err := executor.QueryContext(ctx, participantsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants of match %d: %w", id, err)
	}
	defer rows.Close()

	grouped, err := scanMatchParticipants(rows)
	if err != nil {
		return nil, err
	}
	match.Participants = grouped[id]
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, roundFilter *int) ([]models.Match, error) {
	executor := r.getExecutor(exec)

	args := []interface{}{tournamentID}
	roundClause := ""
	if roundFilter != nil {
		roundClause = " AND m.round_number = $2"
		args = append(args, *roundFilter)
	}

	matchQuery := `
		SELECT m.id, m.tournament_id, m.round_number, m.game_type, m.created_at
		FROM matches m
		WHERE m.tournament_id = $1` + roundClause + `
		ORDER BY m.round_number ASC, m.id ASC`

	rows, err := executor.QueryContext(ctx, matchQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(&m.ID, &m.TournamentID, &m.RoundNumber, &m.GameType, &m.CreatedAt); scanErr != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	rows.Close()

	if len(matches) == 0 {
		return matches, nil
	}

	participantQuery := `
		SELECT mp.id, mp.match_id, mp.player_id, mp.result, mp.games_won
		FROM match_participants mp
		JOIN matches m ON m.id = mp.match_id
		WHERE m.tournament_id = $1` + roundClause + `
		ORDER BY mp.match_id ASC, mp.id ASC`
	pRows, err := executor.QueryContext(ctx, participantQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query match participants for tournament %d: %w", tournamentID, err)
	}
	defer pRows.Close()

	grouped, err := scanMatchParticipants(pRows)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].Participants = grouped[matches[i].ID]
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateParticipantResult(ctx context.Context, exec SQLExecutor, matchID int, result models.ParticipantResult) error {
	query := `
		UPDATE match_participants
		SET result = $1, games_won = $2
		WHERE match_id = $3 AND player_id = $4`

	res, err := r.getExecutor(exec).ExecContext(ctx, query, result.Result, result.GamesWon, matchID, result.PlayerID)
	if err != nil {
		return fmt.Errorf("UpdateParticipantResult: failed to execute query for match %d: %w", matchID, err)
	}
	return checkAffectedRows(res, ErrMatchParticipantNotFound)
}

func scanMatchParticipants(rows *sql.Rows) (map[int][]models.MatchParticipant, error) {
	grouped := make(map[int][]models.MatchParticipant)
	for rows.Next() {
		var mp models.MatchParticipant
		if err := rows.Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Result, &mp.GamesWon); err != nil {
			return nil, fmt.Errorf("failed to scan match participant row: %w", err)
		}
		grouped[mp.MatchID] = append(grouped[mp.MatchID], mp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match participant rows iteration: %w", err)
	}
	return grouped, nil
}
