// Package booking holds the table booking step machine. It is pure: sessions are
// passed in and out, persistence belongs to the caller.
package booking

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"medical-bots/internal/models"

	"github.com/go-playground/validator/v10"
)

// ErrWrongStep is returned when input arrives for a step the session is not in,
// e.g. a stale button from an earlier message.
var ErrWrongStep = errors.New("booking: session is not waiting for this input")

var validate = validator.New()

// Result describes the session after a transition. Booking is set once the form
// is finalized; the caller must then persist it and drop the session.
type Result struct {
	Step    models.Step
	Booking *models.Booking
}

func (r Result) Done() bool { return r.Booking != nil }

type textStep func(w *Wizard, s *models.Session, text string) (Result, error)

// textSteps is the one place that maps a step to its free-text handler.
var textSteps = map[models.Step]textStep{
	models.StepAwaitingDate:      (*Wizard).textDate,
	models.StepAwaitingTime:      (*Wizard).textTime,
	models.StepAwaitingPartySize: (*Wizard).textPartySize,
	models.StepAwaitingPhone:     (*Wizard).textPhone,
}

type Wizard struct {
	now func() time.Time
}

// NewWizard builds a wizard; a nil clock means time.Now.
func NewWizard(now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	return &Wizard{now: now}
}

func (w *Wizard) Now() time.Time { return w.now() }

// Start opens a fresh form for u. The returned session replaces any previous one.
func (w *Wizard) Start(u models.User, flow models.Flow) *models.Session {
	return &models.Session{
		Key:  u.ID,
		Step: models.StepAwaitingDate,
		Flow: flow,
		Draft: models.Booking{
			UserID:    u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Status:    models.BookingPending,
		},
		UpdatedAt: w.now(),
	}
}

// ---------- button flow -----------------------------------------------------

func (w *Wizard) SelectDate(s *models.Session, value string) (Result, error) {
	if err := expect(s, models.FlowButtons, models.StepAwaitingDate); err != nil {
		return Result{}, err
	}
	if !slices.Contains(DateOptions(w.now()), value) {
		return Result{}, &ValidationError{Field: "date", Value: value, Reason: "not an offered day"}
	}
	s.Draft.Date = value
	s.Step = models.StepAwaitingTime
	return Result{Step: s.Step}, nil
}

func (w *Wizard) SelectTime(s *models.Session, value string) (Result, error) {
	if err := expect(s, models.FlowButtons, models.StepAwaitingTime); err != nil {
		return Result{}, err
	}
	if !slices.Contains(TimeSlots(), value) {
		return Result{}, &ValidationError{Field: "time", Value: value, Reason: "not an offered slot"}
	}
	s.Draft.Time = value
	s.Step = models.StepAwaitingPartySize
	return Result{Step: s.Step}, nil
}

func (w *Wizard) SelectPeople(s *models.Session, value string) (Result, error) {
	if err := expect(s, models.FlowButtons, models.StepAwaitingPartySize); err != nil {
		return Result{}, err
	}
	n, err := strconv.Atoi(value)
	if err != nil || !slices.Contains(partySizes, n) {
		return Result{}, &ValidationError{Field: "party size", Value: value, Reason: "not an offered size"}
	}
	draft := s.Draft
	draft.NumberOfPeople = n
	return w.finalize(s, draft, models.BookingConfirmed)
}

// ---------- text flow -------------------------------------------------------

// Input feeds one free-text message to a text-flow session. On a validation
// error the session is left exactly as it was.
func (w *Wizard) Input(s *models.Session, text string) (Result, error) {
	if s == nil || s.Flow != models.FlowText {
		return Result{}, ErrWrongStep
	}
	h, ok := textSteps[s.Step]
	if !ok {
		return Result{}, ErrWrongStep
	}
	return h(w, s, text)
}

// SkipPhone finalizes a text-flow session waiting for the optional phone.
func (w *Wizard) SkipPhone(s *models.Session) (Result, error) {
	if err := expect(s, models.FlowText, models.StepAwaitingPhone); err != nil {
		return Result{}, err
	}
	return w.finalize(s, s.Draft, models.BookingPending)
}

func (w *Wizard) textDate(s *models.Session, text string) (Result, error) {
	d, err := ValidateDate(text, w.now())
	if err != nil {
		return Result{}, err
	}
	s.Draft.Date = d.Format(DateLayout)
	s.Step = models.StepAwaitingTime
	return Result{Step: s.Step}, nil
}

func (w *Wizard) textTime(s *models.Session, text string) (Result, error) {
	t, err := ValidateTime(text)
	if err != nil {
		return Result{}, err
	}
	s.Draft.Time = t
	s.Step = models.StepAwaitingPartySize
	return Result{Step: s.Step}, nil
}

func (w *Wizard) textPartySize(s *models.Session, text string) (Result, error) {
	n, err := ValidatePartySize(text)
	if err != nil {
		return Result{}, err
	}
	s.Draft.NumberOfPeople = n
	s.Step = models.StepAwaitingPhone
	return Result{Step: s.Step}, nil
}

func (w *Wizard) textPhone(s *models.Session, text string) (Result, error) {
	phone, skipped, err := ValidatePhone(text)
	if err != nil {
		return Result{}, err
	}
	draft := s.Draft
	if !skipped {
		draft.PhoneNumber = phone
	}
	return w.finalize(s, draft, models.BookingPending)
}

// ---------- finalization ----------------------------------------------------

// finalize turns draft into a booking. s takes the draft only when the
// record is complete.
func (w *Wizard) finalize(s *models.Session, draft models.Booking, status models.BookingStatus) (Result, error) {
	now := w.now()
	b := draft
	b.ID = NewBookingID(now)
	b.Status = status
	b.CreatedAt = now
	if err := validate.Struct(&b); err != nil {
		return Result{}, fmt.Errorf("booking: incomplete form: %w", err)
	}
	s.Draft = draft
	s.Step = models.StepNone
	return Result{Step: models.StepNone, Booking: &b}, nil
}

// Reissue gives a finalized booking a fresh id, for the rare id collision.
func (w *Wizard) Reissue(b *models.Booking) {
	b.ID = NewBookingID(w.now())
}

func expect(s *models.Session, flow models.Flow, step models.Step) error {
	if s == nil || s.Flow != flow || s.Step != step {
		return ErrWrongStep
	}
	return nil
}

// StepNumber is the 1-based position of step in the flow, for "step N of M" prompts.
func StepNumber(flow models.Flow, step models.Step) (n, total int) {
	total = 3
	if flow == models.FlowText {
		total = 4
	}
	switch step {
	case models.StepAwaitingDate:
		n = 1
	case models.StepAwaitingTime:
		n = 2
	case models.StepAwaitingPartySize:
		n = 3
	case models.StepAwaitingPhone:
		n = 4
	}
	return n, total
}

