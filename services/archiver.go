package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/storage"
)

const archiveTimeout = 15 * time.Second

// StandingsArchive is the document stored for a completed tournament.
type StandingsArchive struct {
	TournamentID int               `json:"tournament_id"`
	Name         string            `json:"name"`
	Rounds       int               `json:"rounds"`
	PrizeSlots   *int              `json:"prize_slots,omitempty"`
	ArchivedAt   time.Time         `json:"archived_at"`
	Standings    []models.Standing `json:"standings"`
}

// StandingsArchiver uploads final standings to object storage. Failures are
// logged and never affect tournament state.
type StandingsArchiver struct {
	uploader storage.FileUploader
	logger   *slog.Logger
	now      Clock
}

// NewStandingsArchiver returns an archiver; a nil uploader disables archiving.
func NewStandingsArchiver(uploader storage.FileUploader, logger *slog.Logger) *StandingsArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingsArchiver{uploader: uploader, logger: logger, now: utcNow}
}

func archiveKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/final-standings.json", tournamentID)
}

// Archive stores the standings and returns the public location, or "" when
// archiving is disabled or failed.
func (a *StandingsArchiver) Archive(ctx context.Context, tournament *models.Tournament, standings []models.Standing) string {
	if a == nil || a.uploader == nil || tournament == nil {
		return ""
	}
	// Запрос мог уже завершиться, архив всё равно нужен.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	doc := StandingsArchive{
		TournamentID: tournament.ID,
		Name:         tournament.Name,
		Rounds:       tournament.MaxRounds,
		PrizeSlots:   tournament.PrizeSlots,
		ArchivedAt:   a.now(),
		Standings:    standings,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to encode standings archive", slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return ""
	}

	result, err := a.uploader.Upload(ctx, archiveKey(tournament.ID), "application/json", bytes.NewReader(body))
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to archive final standings", slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return ""
	}
	a.logger.InfoContext(ctx, "final standings archived",
		slog.Int("tournament_id", tournament.ID), slog.String("key", result.Key), slog.String("location", result.Location))
	return result.Location
}
