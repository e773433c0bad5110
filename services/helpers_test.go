package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/swiss-system/repositories"
)

func TestHandleRepositoryError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"tournament missing", repositories.ErrTournamentNotFound, ErrTournamentNotFound},
		{"participant references missing tournament", repositories.ErrParticipantTournamentInvalid, ErrTournamentNotFound},
		{"match references missing tournament", repositories.ErrMatchTournamentInvalid, ErrTournamentNotFound},
		{"wrapped match tournament", fmt.Errorf("create: %w", repositories.ErrMatchTournamentInvalid), ErrTournamentNotFound},
		{"participant missing", repositories.ErrParticipantNotFound, ErrParticipantNotFound},
		{"duplicate player", repositories.ErrParticipantConflict, ErrParticipantConflict},
		{"match missing", repositories.ErrMatchNotFound, ErrMatchNotFound},
		{"player not in match", repositories.ErrMatchParticipantNotFound, ErrInvalidMatch},
		{"round missing", repositories.ErrRoundNotFound, ErrRoundNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, handleRepositoryError(tt.in), tt.want)
		})
	}

	assert.NoError(t, handleRepositoryError(nil))
	boom := errors.New("connection reset")
	assert.Equal(t, boom, handleRepositoryError(boom))
}
