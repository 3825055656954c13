package eventstream

import (
	"strconv"
	"strings"
	"time"

	"github.com/medstream-ai/pipeline/pkg/common/logger"
)

// AgeAt computes the age in whole years at a reference time. Birth dates are
// accepted at year, year-month or full-date precision; missing month and day
// default to January 1, which keeps the result invariant under granularity
// collapse ("1980" and "1980-01-01" agree). Unparseable input yields ok ==
// false, never a panic. Negative results are returned as-is; callers treat
// them as invalid and discard.
func AgeAt(birthDate string, reference time.Time) (int, bool) {
	birth, ok := parseBirthDate(birthDate)
	if !ok {
		logger.Log.WithField("birth_date", birthDate).Warn("Could not parse birth date for age calculation")
		return 0, false
	}

	age := reference.Year() - birth.Year()
	if int(reference.Month()) < int(birth.Month()) ||
		(reference.Month() == birth.Month() && reference.Day() < birth.Day()) {
		age--
	}
	return age, true
}

func parseBirthDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	switch len(value) {
	case 0:
		return time.Time{}, false
	case 4: // YYYY
		year, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	case 7: // YYYY-MM
		ts, err := time.Parse("2006-01", value)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	default:
		if ts, err := time.Parse("2006-01-02", value); err == nil {
			return ts, true
		}
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts, true
		}
		return time.Time{}, false
	}
}
