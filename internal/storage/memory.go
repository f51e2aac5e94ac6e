package storage

import (
	"context"
	"sync"
	"time"

	"medical-bots/internal/models"
)

// ---------- questions -------------------------------------------------------

type MemoryLedger struct {
	mu        sync.Mutex
	now       func() time.Time
	questions []*models.Question
	byID      map[string]*models.Question
}

func NewMemoryLedger(now func() time.Time) *MemoryLedger {
	if now == nil {
		now = time.Now
	}
	return &MemoryLedger{now: now, byID: make(map[string]*models.Question)}
}

func (l *MemoryLedger) Save(_ context.Context, q *models.Question) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := stampQuestion(q, l.now()); err != nil {
		return "", err
	}
	if _, ok := l.byID[q.ID]; ok {
		return "", ErrDuplicate
	}
	cp := *q
	l.questions = append(l.questions, &cp)
	l.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (l *MemoryLedger) Get(_ context.Context, id string) (*models.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (l *MemoryLedger) UpdateStatus(_ context.Context, id string, status models.QuestionStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	q, ok := l.byID[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	return nil
}

func (l *MemoryLedger) ListPending(_ context.Context) ([]models.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var res []models.Question
	for _, q := range l.questions {
		if q.Status == models.QuestionPending {
			res = append(res, *q)
		}
	}
	return res, nil
}

// Reset drops every question.
func (l *MemoryLedger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.questions = nil
	l.byID = make(map[string]*models.Question)
}

// ---------- bookings --------------------------------------------------------

type MemoryBookings struct {
	mu     sync.Mutex
	byUser map[int64][]*models.Booking
	ids    map[string]bool
}

func NewMemoryBookings() *MemoryBookings {
	return &MemoryBookings{byUser: make(map[int64][]*models.Booking), ids: make(map[string]bool)}
}

func (m *MemoryBookings) Add(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ids[b.ID] {
		return ErrDuplicate
	}
	cp := *b
	m.ids[cp.ID] = true
	m.byUser[cp.UserID] = append(m.byUser[cp.UserID], &cp)
	return nil
}

func (m *MemoryBookings) ListByUser(_ context.Context, userID int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byUser[userID]
	res := make([]models.Booking, 0, len(list))
	for _, b := range list {
		res = append(res, *b)
	}
	return res, nil
}

func (m *MemoryBookings) Cancel(_ context.Context, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.byUser[userID] {
		if b.ID == id {
			b.Status = models.BookingCancelled
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryBookings) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUser = make(map[int64][]*models.Booking)
	m.ids = make(map[string]bool)
}

// ---------- sessions --------------------------------------------------------

// MemorySessions keeps sessions in a map. With ttl 0 sessions never expire and
// live until overwritten, deleted or process exit.
type MemorySessions struct {
	mu       sync.Mutex
	now      func() time.Time
	ttl      time.Duration
	sessions map[int64]models.Session
}

func NewMemorySessions(ttl time.Duration, now func() time.Time) *MemorySessions {
	if now == nil {
		now = time.Now
	}
	return &MemorySessions{now: now, ttl: ttl, sessions: make(map[int64]models.Session)}
}

func (m *MemorySessions) Get(_ context.Context, key int64) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	if m.expired(s, m.now()) {
		delete(m.sessions, key)
		return nil, nil
	}
	return &s, nil
}

func (m *MemorySessions) Put(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	cp.UpdatedAt = m.now()
	m.sessions[cp.Key] = cp
	s.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *MemorySessions) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

func (m *MemorySessions) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemorySessions) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[int64]models.Session)
}

func (m *MemorySessions) expired(s models.Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}
