package handlers

import (
	"net/http"

	"github.com/Dosada05/swiss-system/services"
)

type SeatingHandler struct {
	seatingService services.SeatingService
}

func NewSeatingHandler(ss services.SeatingService) *SeatingHandler {
	return &SeatingHandler{seatingService: ss}
}

type assignSeatInput struct {
	Seat *int `json:"seat"`
}

// AssignSeatHandler обрабатывает PUT /api/tournaments/{tournamentID}/participants/{participantID}/seat
// Тело {"seat": null} освобождает место.
func (h *SeatingHandler) AssignSeatHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input assignSeatInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.seatingService.AssignSeat(r.Context(), tournamentID, participantID, input.Seat)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClearSeatHandler обрабатывает DELETE /api/tournaments/{tournamentID}/participants/{participantID}/seat
func (h *SeatingHandler) ClearSeatHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.seatingService.ClearSeat(r.Context(), tournamentID, participantID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RandomizeHandler обрабатывает POST /api/tournaments/{tournamentID}/seating/randomize
func (h *SeatingHandler) RandomizeHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.seatingService.RandomizeSeating(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartDraftHandler обрабатывает POST /api/tournaments/{tournamentID}/draft/start
func (h *SeatingHandler) StartDraftHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.seatingService.StartDraft(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
