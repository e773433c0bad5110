package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/services"
)

type TimerHandler struct {
	timerService services.TimerService
}

func NewTimerHandler(ts services.TimerService) *TimerHandler {
	return &TimerHandler{timerService: ts}
}

func roundParams(r *http.Request) (tournamentID, roundNumber int, err error) {
	tournamentID, err = getIDFromURL(r, "tournamentID")
	if err != nil {
		return 0, 0, err
	}
	roundNumber, err = getIDFromURL(r, "roundNumber")
	if err != nil {
		return 0, 0, err
	}
	return tournamentID, roundNumber, nil
}

// GetHandler обрабатывает GET /api/tournaments/{tournamentID}/rounds/{roundNumber}/timer?client_time=...
func (h *TimerHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, roundNumber, err := roundParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var clientTime *time.Time
	if raw := r.URL.Query().Get("client_time"); raw != "" {
		parsed, err := models.ParseTimestamp(raw)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		clientTime = &parsed
	}

	view, err := h.timerService.GetTimer(r.Context(), tournamentID, roundNumber, clientTime)
	h.writeView(w, r, view, err)
}

type timerAction func(ctx context.Context, tournamentID, roundNumber int) (*models.TimerView, error)

// StartHandler обрабатывает POST /api/tournaments/{tournamentID}/rounds/{roundNumber}/timer/start
func (h *TimerHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.timerService.StartTimer)
}

// PauseHandler обрабатывает POST .../timer/pause
func (h *TimerHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.timerService.PauseTimer)
}

// ResumeHandler обрабатывает POST .../timer/resume
func (h *TimerHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.timerService.ResumeTimer)
}

type updateDurationInput struct {
	Minutes int `json:"minutes"`
}

// UpdateDurationHandler обрабатывает PUT .../timer/duration
func (h *TimerHandler) UpdateDurationHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, roundNumber, err := roundParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input updateDurationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.timerService.UpdateTimerDuration(r.Context(), tournamentID, roundNumber, input.Minutes)
	h.writeView(w, r, view, err)
}

func (h *TimerHandler) act(w http.ResponseWriter, r *http.Request, action timerAction) {
	tournamentID, roundNumber, err := roundParams(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := action(r.Context(), tournamentID, roundNumber)
	h.writeView(w, r, view, err)
}

func (h *TimerHandler) writeView(w http.ResponseWriter, r *http.Request, view *models.TimerView, err error) {
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"timer": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
