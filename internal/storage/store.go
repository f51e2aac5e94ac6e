// Package storage keeps questions, bookings and in-progress sessions.
//
// Every store is an explicit object built at startup and shared by the bot
// loops; nothing here is a package-level singleton. Memory backends are the
// default, sqlite (questions, bookings) and Redis (sessions) are optional.
package storage

import (
	"context"
	"errors"
	"time"

	"medical-bots/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown ids, including ids owned by another user.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a record id is already taken.
	ErrDuplicate = errors.New("storage: duplicate id")
)

// Ledger is the collection of patient questions.
type Ledger interface {
	// Save assigns id, timestamp and pending status, then appends q.
	Save(ctx context.Context, q *models.Question) (string, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	// UpdateStatus overwrites the status without checking the transition.
	UpdateStatus(ctx context.Context, id string, status models.QuestionStatus) error
	// ListPending returns pending questions, oldest first.
	ListPending(ctx context.Context) ([]models.Question, error)
}

// Bookings is the per-user booking collection. Records are never removed.
type Bookings interface {
	Add(ctx context.Context, b *models.Booking) error
	// ListByUser returns all bookings of a user in creation order.
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	// Cancel marks the booking cancelled if it belongs to userID.
	Cancel(ctx context.Context, userID int64, id string) error
}

// Sessions holds at most one in-progress form per key.
type Sessions interface {
	// Get returns nil, nil when there is no live session.
	Get(ctx context.Context, key int64) (*models.Session, error)
	// Put replaces the session stored under s.Key.
	Put(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, key int64) error
	// Sweep drops sessions idle past the store's timeout and reports how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// ActiveBookings filters out cancelled bookings.
func ActiveBookings(ctx context.Context, b Bookings, userID int64) ([]models.Booking, error) {
	all, err := b.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := all[:0]
	for _, bk := range all {
		if bk.Active() {
			res = append(res, bk)
		}
	}
	return res, nil
}

// NewQuestionID returns a time-ordered UUIDv7.
func NewQuestionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func stampQuestion(q *models.Question, now time.Time) error {
	id, err := NewQuestionID()
	if err != nil {
		return err
	}
	q.ID = id
	q.Timestamp = now
	q.Status = models.QuestionPending
	return nil
}
