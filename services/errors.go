package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-system/models"
)

// Виды ошибок. Каждая конкретная ошибка ниже оборачивает ровно один вид,
// по нему handlers выбирают HTTP статус.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("requested resource not found")
	ErrConflict         = errors.New("conflicting update")
	ErrInvalidState     = errors.New("operation not allowed in the current state")
)

var (
	ErrTournamentNotFound  = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant not found", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("%w: match not found", ErrNotFound)
	ErrRoundNotFound       = fmt.Errorf("%w: round not found", ErrNotFound)

	ErrInvalidTournament = fmt.Errorf("%w: invalid tournament parameters", ErrValidationFailed)
	ErrInvalidSeat       = fmt.Errorf("%w: seat must be between 1 and the number of participants", ErrValidationFailed)
	ErrInvalidDuration   = fmt.Errorf("%w: round duration must be between %d and %d minutes", ErrValidationFailed, models.MinRoundDurationMinutes, models.MaxRoundDurationMinutes)
	ErrInvalidMatch      = fmt.Errorf("%w: invalid match result", ErrValidationFailed)
	ErrInvalidPlayer     = fmt.Errorf("%w: player id must be positive", ErrValidationFailed)

	// Too few active players to pair a round.
	ErrInsufficientPlayers = fmt.Errorf("%w: at least 2 active players are required", ErrValidationFailed)

	ErrIncompleteSeating       = fmt.Errorf("%w: every participant must hold a draft seat", ErrInvalidState)
	ErrAlreadyStarted          = fmt.Errorf("%w: tournament has already started", ErrInvalidState)
	ErrDraftAlreadyStarted     = fmt.Errorf("%w: seating is locked once the draft has started", ErrInvalidState)
	ErrRegistrationClosed      = fmt.Errorf("%w: registration is closed", ErrInvalidState)
	ErrTournamentNotActive     = fmt.Errorf("%w: tournament is not active", ErrInvalidState)
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid tournament status transition", ErrInvalidState)

	ErrParticipantConflict = fmt.Errorf("%w: player is already registered for this tournament", ErrConflict)
	ErrRoundClosed         = fmt.Errorf("%w: round is closed, use a result override", ErrConflict)
	ErrTimerNotRunning     = fmt.Errorf("%w: %w", ErrConflict, models.ErrTimerNotRunning)
	ErrTimerNotPaused      = fmt.Errorf("%w: %w", ErrConflict, models.ErrTimerNotPaused)
)
