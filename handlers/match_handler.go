package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/swiss-system/middleware"
	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/services"
)

type MatchHandler struct {
	roundService services.RoundService
	logger       *slog.Logger
}

func NewMatchHandler(rs services.RoundService, logger *slog.Logger) *MatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchHandler{roundService: rs, logger: logger}
}

type submitResultInput struct {
	Results []models.ParticipantResult `json:"results"`
}

// SubmitResultHandler обрабатывает POST /api/matches/{matchID}/result
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.roundService.SubmitResult(r.Context(), matchID, input.Results)
	h.writeOutcome(w, r, outcome, err)
}

// OverrideResultHandler обрабатывает PUT /api/matches/{matchID}/result (только администратор)
func (h *MatchHandler) OverrideResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "match result override requested",
		slog.Int("match_id", matchID), slog.Int("user_id", userID))

	outcome, err := h.roundService.OverrideResult(r.Context(), matchID, input.Results)
	h.writeOutcome(w, r, outcome, err)
}

// The result is stored even when the next round cannot be paired, so that case
// answers 200 with a warning instead of an error status.
func (h *MatchHandler) writeOutcome(w http.ResponseWriter, r *http.Request, outcome *services.SubmitOutcome, err error) {
	env := jsonResponse{"outcome": outcome}
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInsufficientPlayers) && outcome != nil:
		env["warning"] = err.Error()
	default:
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
