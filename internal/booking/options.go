package booking

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	daysAhead   = 14
	idSuffixLen = 8
)

var partySizes = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12, 15, 20}

// DateOptions lists the bookable days: today and the 13 days after it.
func DateOptions(now time.Time) []string {
	res := make([]string, 0, daysAhead)
	for i := 0; i < daysAhead; i++ {
		res = append(res, now.AddDate(0, 0, i).Format(DateLayout))
	}
	return res
}

// TimeSlots lists half-hour slots from 09:00 to 22:00 inclusive.
func TimeSlots() []string {
	var res []string
	for m := 9 * 60; m <= 22*60; m += 30 {
		res = append(res, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return res
}

// PartySizes lists the party sizes offered as buttons.
func PartySizes() []int {
	out := make([]int, len(partySizes))
	copy(out, partySizes)
	return out
}

// NewBookingID returns base36 unix millis followed by an 8-char random suffix,
// so two ids minted in the same millisecond still differ.
func NewBookingID(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	if len(suffix) < idSuffixLen {
		suffix = strings.Repeat("0", idSuffixLen-len(suffix)) + suffix
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + suffix[len(suffix)-idSuffixLen:]
}
