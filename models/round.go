package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimerState is the derived state of a round clock.
type TimerState string

const (
	TimerInitial TimerState = "initial"
	TimerRunning TimerState = "running"
	TimerPaused  TimerState = "paused"
	TimerExpired TimerState = "expired"
)

var (
	ErrTimerNotRunning = errors.New("round timer is not running")
	ErrTimerNotPaused  = errors.New("round timer is not paused")
)

// Round is one Swiss round of a tournament. The (tournament_id, round_number)
// pair is unique, and the row carries the round clock shared by all of the
// round's matches.
//
// RemainingMs is the time left, in milliseconds, at StartedAt while running
// and at PausedAt while paused. It is nil until the clock is first started.
// Only DisplaySeconds rounds to whole seconds.
type Round struct {
	ID           int        `json:"id"`
	TournamentID int        `json:"tournament_id"`
	Number       int        `json:"round_number"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	PausedAt     *time.Time `json:"paused_at,omitempty"`
	RemainingMs  *int64     `json:"remaining_ms,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Matches []Match `json:"matches,omitempty"`
}

// TimerView is what clients render. DisplaySeconds is always computed on the
// server from absolute timestamps.
type TimerView struct {
	TournamentID    int        `json:"tournament_id"`
	RoundNumber     int        `json:"round_number"`
	State           TimerState `json:"state"`
	DisplaySeconds  int        `json:"display_seconds"`
	DurationSeconds int        `json:"duration_seconds"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`
	ServerTime      time.Time  `json:"server_time"`
	ClientOffsetMs  *int64     `json:"client_offset_ms,omitempty"`
}

func (r *Round) isStarted() bool {
	return r.StartedAt != nil && r.RemainingMs != nil
}

func (r *Round) isPaused() bool {
	return r.isStarted() && r.PausedAt != nil
}

// remaining is the exact time left at now. Call only on a started clock.
func (r *Round) remaining(now time.Time) time.Duration {
	left := time.Duration(*r.RemainingMs) * time.Millisecond
	if !r.isPaused() {
		left -= elapsed(*r.StartedAt, now)
	}
	if left < 0 {
		return 0
	}
	return left
}

// DisplaySeconds returns the seconds left on the clock at now, rounded up so
// that 0 is shown only once the clock has actually run out.
// durationSeconds is used only while the clock has never been started.
func (r *Round) DisplaySeconds(now time.Time, durationSeconds int) int {
	if !r.isStarted() {
		return durationSeconds
	}
	return int((r.remaining(now) + time.Second - 1) / time.Second)
}

// State derives the timer state at now.
func (r *Round) State(now time.Time) TimerState {
	if !r.isStarted() {
		return TimerInitial
	}
	if r.remaining(now) <= 0 {
		return TimerExpired
	}
	if r.isPaused() {
		return TimerPaused
	}
	return TimerRunning
}

// View builds the client-facing timer snapshot.
func (r *Round) View(now time.Time, durationSeconds int) TimerView {
	now = now.UTC()
	return TimerView{
		TournamentID:    r.TournamentID,
		RoundNumber:     r.Number,
		State:           r.State(now),
		DisplaySeconds:  r.DisplaySeconds(now, durationSeconds),
		DurationSeconds: durationSeconds,
		StartedAt:       r.StartedAt,
		PausedAt:        r.PausedAt,
		ServerTime:      now,
	}
}

// StartTimer (re)starts the clock from a full duration.
func (r *Round) StartTimer(now time.Time, durationSeconds int) {
	started := now.UTC()
	remaining := (time.Duration(durationSeconds) * time.Second).Milliseconds()
	r.StartedAt = &started
	r.PausedAt = nil
	r.RemainingMs = &remaining
}

// PauseTimer snapshots the exact remaining time. Only a running clock can be paused.
func (r *Round) PauseTimer(now time.Time) error {
	if r.State(now) != TimerRunning {
		return ErrTimerNotRunning
	}
	remaining := r.remaining(now).Milliseconds()
	paused := now.UTC()
	r.RemainingMs = &remaining
	r.PausedAt = &paused
	return nil
}

// ResumeTimer restarts counting from the snapshot taken at pause time, so the
// length of the pause never reaches the arithmetic.
func (r *Round) ResumeTimer(now time.Time) error {
	if !r.isPaused() {
		return ErrTimerNotPaused
	}
	started := now.UTC()
	r.StartedAt = &started
	r.PausedAt = nil
	return nil
}

// ResetTimer puts the clock back into the initial state.
func (r *Round) ResetTimer() {
	r.StartedAt = nil
	r.PausedAt = nil
	r.RemainingMs = nil
}

func elapsed(from, to time.Time) time.Duration {
	d := to.UTC().Sub(from.UTC())
	if d < 0 {
		// Client or replica clock ahead of ours.
		return 0
	}
	return d
}

var naiveTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an RFC 3339 timestamp, or a timestamp without zone
// information which is taken to be UTC (never local time). The result is in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveTimestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
