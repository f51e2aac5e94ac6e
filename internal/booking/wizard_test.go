package booking

import (
	"errors"
	"testing"
	"time"

	"medical-bots/internal/models"
)

var patient = models.User{ID: 42, Username: "olena", FirstName: "Олена", LastName: "Коваль"}

func newTestWizard(t *testing.T) *Wizard {
	t.Helper()
	return NewWizard(func() time.Time { return today })
}

func TestButtonFlowScenario(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowButtons)
	if s.Step != models.StepAwaitingDate || s.Draft.Status != models.BookingPending {
		t.Fatalf("Start = %+v", s)
	}
	if s.Draft.UserID != patient.ID || s.Draft.FirstName != patient.FirstName {
		t.Fatalf("Start draft identity = %+v", s.Draft)
	}

	if r, err := w.SelectDate(s, "15.03.2026"); err != nil || r.Step != models.StepAwaitingTime {
		t.Fatalf("SelectDate = %+v, %v", r, err)
	}
	if r, err := w.SelectTime(s, "19:30"); err != nil || r.Step != models.StepAwaitingPartySize {
		t.Fatalf("SelectTime = %+v, %v", r, err)
	}
	r, err := w.SelectPeople(s, "4")
	if err != nil {
		t.Fatalf("SelectPeople: %v", err)
	}
	if !r.Done() {
		t.Fatal("SelectPeople did not finalize")
	}
	b := r.Booking
	if b.Date != "15.03.2026" || b.Time != "19:30" || b.NumberOfPeople != 4 {
		t.Fatalf("booking = %+v", b)
	}
	if b.Status != models.BookingConfirmed {
		t.Fatalf("status = %s, want confirmed", b.Status)
	}
	if b.ID == "" || !b.CreatedAt.Equal(today) {
		t.Fatalf("id/createdAt = %q/%v", b.ID, b.CreatedAt)
	}
	if s.Step != models.StepNone {
		t.Fatalf("session step = %s after finalize", s.Step)
	}
}

func TestButtonFlowRejectsOutOfOrder(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowButtons)

	if _, err := w.SelectTime(s, "19:30"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SelectTime before date err = %v, want ErrWrongStep", err)
	}
	if _, err := w.SelectPeople(s, "4"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SelectPeople before date err = %v, want ErrWrongStep", err)
	}
	if _, err := w.SelectDate(nil, "15.03.2026"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SelectDate(nil) err = %v, want ErrWrongStep", err)
	}
	if _, err := w.Input(s, "15.03.2026"); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("text input into button flow err = %v, want ErrWrongStep", err)
	}
	if s.Step != models.StepAwaitingDate || s.Draft.Time != "" {
		t.Fatalf("session mutated: %+v", s)
	}
}

func TestButtonFlowRejectsUnofferedValues(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowButtons)

	// 24.03.2026 is the day after the last offered one.
	for _, v := range []string{"01.01.2000", "09.03.2026", "24.03.2026", "31.02.2026", "tomorrow"} {
		_, err := w.SelectDate(s, v)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != "date" {
			t.Fatalf("SelectDate(%q) err = %v, want date ValidationError", v, err)
		}
	}
	if s.Step != models.StepAwaitingDate || s.Draft.Date != "" {
		t.Fatalf("session changed after bad dates: %+v", s)
	}
	if _, err := w.SelectDate(s, "23.03.2026"); err != nil {
		t.Fatalf("SelectDate(last offered day): %v", err)
	}

	for _, v := range []string{"03:17", "22:30", "08:30", "9:00", "19:31"} {
		var ve *ValidationError
		if _, err := w.SelectTime(s, v); !errors.As(err, &ve) {
			t.Fatalf("SelectTime(%q) err = %v, want ValidationError", v, err)
		}
	}
	if _, err := w.SelectTime(s, "22:00"); err != nil {
		t.Fatalf("SelectTime(22:00): %v", err)
	}

	before := s.Draft
	for _, v := range []string{"11", "13", "0", "21", "x"} {
		r, err := w.SelectPeople(s, v)
		var ve *ValidationError
		if !errors.As(err, &ve) || r.Done() {
			t.Fatalf("SelectPeople(%q) = %+v, %v; want ValidationError", v, r, err)
		}
		if s.Draft != before || s.Step != models.StepAwaitingPartySize {
			t.Fatalf("SelectPeople(%q) mutated session: %+v", v, s)
		}
	}
	r, err := w.SelectPeople(s, "15")
	if err != nil || !r.Done() || r.Booking.NumberOfPeople != 15 {
		t.Fatalf("SelectPeople(15) = %+v, %v", r, err)
	}
}

func TestTextFlow(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowText)

	steps := []struct {
		in   string
		want models.Step
	}{
		{"15.03.2026", models.StepAwaitingTime},
		{"19:30", models.StepAwaitingPartySize},
		{"4", models.StepAwaitingPhone},
	}
	for _, st := range steps {
		r, err := w.Input(s, st.in)
		if err != nil {
			t.Fatalf("Input(%q): %v", st.in, err)
		}
		if r.Step != st.want || s.Step != st.want {
			t.Fatalf("Input(%q) step = %s, want %s", st.in, r.Step, st.want)
		}
	}

	r, err := w.Input(s, "+380123456789")
	if err != nil || !r.Done() {
		t.Fatalf("phone Input = %+v, %v", r, err)
	}
	if r.Booking.PhoneNumber != "+380123456789" {
		t.Fatalf("phone = %q", r.Booking.PhoneNumber)
	}
	if r.Booking.Status != models.BookingPending {
		t.Fatalf("status = %s, want pending", r.Booking.Status)
	}
}

func TestTextFlowInvalidInputKeepsSession(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowText)

	bad := map[models.Step][]string{
		models.StepAwaitingDate:      {"31.02.2027", "01.01.2020", "tomorrow"},
		models.StepAwaitingTime:      {"24:00", "7pm"},
		models.StepAwaitingPartySize: {"0", "21", "many"},
		models.StepAwaitingPhone:     {"123", "my phone"},
	}
	good := map[models.Step]string{
		models.StepAwaitingDate:      "15.03.2026",
		models.StepAwaitingTime:      "19:30",
		models.StepAwaitingPartySize: "4",
	}
	for _, step := range []models.Step{
		models.StepAwaitingDate, models.StepAwaitingTime,
		models.StepAwaitingPartySize, models.StepAwaitingPhone,
	} {
		before := *s
		for _, in := range bad[step] {
			_, err := w.Input(s, in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Input(%q) at %s err = %v, want ValidationError", in, step, err)
			}
			if *s != before {
				t.Fatalf("Input(%q) at %s mutated session: %+v -> %+v", in, step, before, *s)
			}
		}
		if in, ok := good[step]; ok {
			if _, err := w.Input(s, in); err != nil {
				t.Fatalf("Input(%q): %v", in, err)
			}
		}
	}
}

func TestTextFlowSkipPhone(t *testing.T) {
	w := newTestWizard(t)
	for _, skip := range []string{"skip", "Пропустити"} {
		s := w.Start(patient, models.FlowText)
		for _, in := range []string{"15.03.2026", "19:30", "2"} {
			if _, err := w.Input(s, in); err != nil {
				t.Fatalf("Input(%q): %v", in, err)
			}
		}
		r, err := w.Input(s, skip)
		if err != nil || !r.Done() {
			t.Fatalf("Input(%q) = %+v, %v", skip, r, err)
		}
		if r.Booking.PhoneNumber != "" {
			t.Fatalf("phone = %q, want empty", r.Booking.PhoneNumber)
		}
	}

	s := w.Start(patient, models.FlowText)
	if _, err := w.SkipPhone(s); !errors.Is(err, ErrWrongStep) {
		t.Fatalf("SkipPhone at date step err = %v", err)
	}
	for _, in := range []string{"15.03.2026", "19:30", "2"} {
		if _, err := w.Input(s, in); err != nil {
			t.Fatalf("Input(%q): %v", in, err)
		}
	}
	r, err := w.SkipPhone(s)
	if err != nil || !r.Done() || r.Booking.Status != models.BookingPending {
		t.Fatalf("SkipPhone = %+v, %v", r, err)
	}
}

func TestRestartDiscardsDraft(t *testing.T) {
	w := newTestWizard(t)
	s := w.Start(patient, models.FlowText)
	for _, in := range []string{"15.03.2026", "19:30"} {
		if _, err := w.Input(s, in); err != nil {
			t.Fatalf("Input(%q): %v", in, err)
		}
	}

	s = w.Start(patient, models.FlowButtons)
	if s.Step != models.StepAwaitingDate {
		t.Fatalf("restart step = %s", s.Step)
	}
	if s.Draft.Date != "" || s.Draft.Time != "" || s.Draft.NumberOfPeople != 0 {
		t.Fatalf("restart leaked fields: %+v", s.Draft)
	}
}

func TestFinalizedIDsUnique(t *testing.T) {
	w := newTestWizard(t)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		s := w.Start(patient, models.FlowButtons)
		w.SelectDate(s, "15.03.2026")
		w.SelectTime(s, "19:30")
		r, err := w.SelectPeople(s, "2")
		if err != nil {
			t.Fatalf("SelectPeople: %v", err)
		}
		if seen[r.Booking.ID] {
			t.Fatalf("duplicate id %q", r.Booking.ID)
		}
		seen[r.Booking.ID] = true
		if r.Booking.Status == models.BookingCancelled {
			t.Fatal("finalized as cancelled")
		}
	}
}

func TestStepNumber(t *testing.T) {
	if n, total := StepNumber(models.FlowButtons, models.StepAwaitingTime); n != 2 || total != 3 {
		t.Fatalf("StepNumber = %d/%d", n, total)
	}
	if n, total := StepNumber(models.FlowText, models.StepAwaitingPhone); n != 4 || total != 4 {
		t.Fatalf("StepNumber = %d/%d", n, total)
	}
}
