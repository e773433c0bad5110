package services

// События, которые получают зрители турнира по websocket.
const (
	EventRoundGenerated      = "ROUND_GENERATED"
	EventMatchUpdated        = "MATCH_UPDATED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
	EventTimerUpdated        = "TIMER_UPDATED"
	EventSeatingUpdated      = "SEATING_UPDATED"
	EventDraftStarted        = "DRAFT_STARTED"
)

// Notifier delivers tournament events to live viewers. Events are published
// only after the transaction that produced them has committed.
type Notifier interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(int, string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
