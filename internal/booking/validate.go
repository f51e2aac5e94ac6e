package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day.month.year format used for dates in texts and payloads.
const DateLayout = "02.01.2006"

var (
	dateRx  = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	timeRx  = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
	phoneRx = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
)

var skipWords = []string{"skip", "пропустити", "пропустить"}

// ValidationError is returned for malformed step input. The step is re-prompted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ValidateDate parses a dd.mm.yyyy date that must exist and not be before today.
func ValidateDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !dateRx.MatchString(s) {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "want dd.mm.yyyy"}
	}
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "no such calendar day"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Reason: "in the past"}
	}
	return d, nil
}

// ValidateTime checks a 24-hour H:MM / HH:MM time and returns it as HH:MM.
func ValidateTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	m := timeRx.FindStringSubmatch(s)
	if m == nil {
		return "", &ValidationError{Field: "time", Value: s, Reason: "want HH:MM"}
	}
	h, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", h, m[2]), nil
}

// ValidatePartySize accepts an integer in [1,20].
func ValidatePartySize(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "party size", Value: s, Reason: "not a number"}
	}
	if n < 1 || n > 20 {
		return 0, &ValidationError{Field: "party size", Value: s, Reason: "want 1..20"}
	}
	return n, nil
}

// ValidatePhone returns skipped=true for a skip word, otherwise the phone as typed.
func ValidatePhone(s string) (phone string, skipped bool, err error) {
	s = strings.TrimSpace(s)
	if IsSkip(s) {
		return "", true, nil
	}
	if !phoneRx.MatchString(s) {
		return "", false, &ValidationError{Field: "phone", Value: s, Reason: "want +380XXXXXXXXX"}
	}
	return s, false, nil
}

// IsSkip reports whether s asks to omit the optional phone step.
func IsSkip(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range skipWords {
		if s == w {
			return true
		}
	}
	return false
}
