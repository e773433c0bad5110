package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/swiss-system/models"
	"github.com/Dosada05/swiss-system/repositories"
	"github.com/Dosada05/swiss-system/storage"
)

// memStore is an in-memory database shared by the fake repositories.
// WithinTx holds txMu for the whole transaction, which stands in for the
// tournament row lock, and restores a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID       int
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	rounds       map[int]models.Round
	matches      map[int]models.Match
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:  map[int]models.Tournament{},
		participants: map[int]models.Participant{},
		rounds:       map[int]models.Round{},
		matches:      map[int]models.Match{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID       int
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	rounds       map[int]models.Round
	matches      map[int]models.Match
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		nextID:       s.nextID,
		tournaments:  make(map[int]models.Tournament, len(s.tournaments)),
		participants: make(map[int]models.Participant, len(s.participants)),
		rounds:       make(map[int]models.Round, len(s.rounds)),
		matches:      make(map[int]models.Match, len(s.matches)),
	}
	for k, v := range s.tournaments {
		snap.tournaments[k] = v
	}
	for k, v := range s.participants {
		snap.participants[k] = v
	}
	for k, v := range s.rounds {
		snap.rounds[k] = v
	}
	for k, v := range s.matches {
		snap.matches[k] = copyMatch(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.tournaments = snap.tournaments
	s.participants = snap.participants
	s.rounds = snap.rounds
	s.matches = snap.matches
}

func (s *memStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func copyMatch(m models.Match) models.Match {
	m.Participants = append([]models.MatchParticipant(nil), m.Participants...)
	return m
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt64Ptr(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTimePtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyRound(r models.Round) models.Round {
	r.StartedAt = copyTimePtr(r.StartedAt)
	r.PausedAt = copyTimePtr(r.PausedAt)
	r.RemainingMs = copyInt64Ptr(r.RemainingMs)
	r.Matches = nil
	return r
}

// --- tournaments ---

type fakeTournamentRepo struct{ s *memStore }

func (r fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	t.CreatedAt = time.Now().UTC()
	stored := *t
	stored.Participants = nil
	r.s.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	t.PrizeSlots = copyIntPtr(t.PrizeSlots)
	return &t, nil
}

func (r fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.s.tournaments[id] = t
	return nil
}

func (r fakeTournamentRepo) UpdateRoundDuration(_ context.Context, _ repositories.SQLExecutor, id int, minutes int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.RoundDurationMinutes = minutes
	r.s.tournaments[id] = t
	return nil
}

// --- participants ---

type fakeParticipantRepo struct{ s *memStore }

func (r fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tournaments[p.TournamentID]; !ok {
		return repositories.ErrParticipantTournamentInvalid
	}
	for _, existing := range r.s.participants {
		if existing.TournamentID == p.TournamentID && existing.PlayerID == p.PlayerID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.s.id()
	p.CreatedAt = time.Now().UTC()
	stored := *p
	stored.DraftSeat = copyIntPtr(p.DraftSeat)
	r.s.participants[p.ID] = stored
	return nil
}

func (r fakeParticipantRepo) FindByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	p.DraftSeat = copyIntPtr(p.DraftSeat)
	return &p, nil
}

func (r fakeParticipantRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Participant, 0)
	for _, p := range r.s.participants {
		if p.TournamentID == tournamentID {
			c := p
			c.DraftSeat = copyIntPtr(p.DraftSeat)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeParticipantRepo) UpdateSeat(_ context.Context, _ repositories.SQLExecutor, id int, seat *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	if seat != nil {
		for _, other := range r.s.participants {
			if other.ID != id && other.TournamentID == p.TournamentID && other.DraftSeat != nil && *other.DraftSeat == *seat {
				return repositories.ErrSeatTaken
			}
		}
	}
	p.DraftSeat = copyIntPtr(seat)
	r.s.participants[id] = p
	return nil
}

func (r fakeParticipantRepo) ClearSeats(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.participants {
		if p.TournamentID == tournamentID {
			p.DraftSeat = nil
			r.s.participants[id] = p
		}
	}
	return nil
}

func (r fakeParticipantRepo) MarkDropped(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.participants[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	p.Dropped = true
	r.s.participants[id] = p
	return nil
}

func (r fakeParticipantRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.participants[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.s.participants, id)
	return nil
}

// --- rounds ---

type fakeRoundRepo struct{ s *memStore }

func (r fakeRoundRepo) Create(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.rounds {
		if existing.TournamentID == round.TournamentID && existing.Number == round.Number {
			return repositories.ErrRoundAlreadyExists
		}
	}
	round.ID = r.s.id()
	round.CreatedAt = time.Now().UTC()
	r.s.rounds[round.ID] = copyRound(*round)
	return nil
}

func (r fakeRoundRepo) GetByNumber(_ context.Context, _ repositories.SQLExecutor, tournamentID, number int, _ bool) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, round := range r.s.rounds {
		if round.TournamentID == tournamentID && round.Number == number {
			c := copyRound(round)
			return &c, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r fakeRoundRepo) GetCurrent(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var current *models.Round
	for _, round := range r.s.rounds {
		if round.TournamentID == tournamentID && (current == nil || round.Number > current.Number) {
			c := copyRound(round)
			current = &c
		}
	}
	if current == nil {
		return nil, repositories.ErrRoundNotFound
	}
	return current, nil
}

func (r fakeRoundRepo) UpdateTimer(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.rounds[round.ID]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	stored.StartedAt = copyTimePtr(round.StartedAt)
	stored.PausedAt = copyTimePtr(round.PausedAt)
	stored.RemainingMs = copyInt64Ptr(round.RemainingMs)
	r.s.rounds[round.ID] = stored
	return nil
}

func (r fakeRoundRepo) count(tournamentID int) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, round := range r.s.rounds {
		if round.TournamentID == tournamentID {
			n++
		}
	}
	return n
}

// --- matches ---

type fakeMatchRepo struct{ s *memStore }

func (r fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	m.CreatedAt = time.Now().UTC()
	for i := range m.Participants {
		m.Participants[i].ID = r.s.id()
		m.Participants[i].MatchID = m.ID
	}
	r.s.matches[m.ID] = copyMatch(*m)
	return nil
}

func (r fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	c := copyMatch(m)
	return &c, nil
}

func (r fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, round *int) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.s.matches {
		if m.TournamentID != tournamentID || (round != nil && m.RoundNumber != *round) {
			continue
		}
		out = append(out, copyMatch(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundNumber != out[j].RoundNumber {
			return out[i].RoundNumber < out[j].RoundNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeMatchRepo) UpdateParticipantResult(_ context.Context, _ repositories.SQLExecutor, matchID int, result models.ParticipantResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrMatchParticipantNotFound
	}
	m = copyMatch(m)
	for i := range m.Participants {
		if m.Participants[i].PlayerID == result.PlayerID {
			m.Participants[i].Result = result.Result
			m.Participants[i].GamesWon = result.GamesWon
			r.s.matches[matchID] = m
			return nil
		}
	}
	return repositories.ErrMatchParticipantNotFound
}

// --- notifier / uploader ---

type publishedEvent struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(tournamentID int, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (n *recordingNotifier) count(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Type == eventType {
			c++
		}
	}
	return c
}

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

var _ storage.FileUploader = (*memUploader)(nil)

func (u *memUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memUploader) GetPublicURL(key string) string {
	return "https://archive.test/" + key
}

func (u *memUploader) object(key string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	b, ok := u.objects[key]
	return b, ok
}

// fakeClock is a settable clock for timer tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
