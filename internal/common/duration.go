package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	iso8601arse "github.com/senseyeio/duration"
)

// ParseDuration accepts a plain number of seconds, a Go duration string
// ("3m30s") or an ISO 8601 duration ("PT3M30S").
func ParseDuration(duration string) (time.Duration, error) {

	duration = strings.TrimSpace(duration)

	if seconds, err := strconv.Atoi(duration); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid duration: %s must not be negative", duration)
		}
		return time.Duration(seconds) * time.Second, nil
	} else if parsedDuration, err := time.ParseDuration(duration); err == nil {
		if parsedDuration < 0 {
			return 0, fmt.Errorf("invalid duration: %s must not be negative", duration)
		}
		return parsedDuration, nil
	} else if isoDuration, err := iso8601arse.ParseISO8601(duration); err == nil {
		referenceTime := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		shiftedTime := isoDuration.Shift(referenceTime)
		return shiftedTime.Sub(referenceTime), nil
	}

	return 0, fmt.Errorf("invalid duration format: %s. Expect seconds, ISO 8601 or duration string", duration)
}

// FormatDurationRemaining formats a duration as "3 minutes, 20 seconds".
func FormatDurationRemaining(d time.Duration) string {
	if d < time.Second {
		return "0 seconds"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	parts = appendUnit(parts, hours, "hour")
	parts = appendUnit(parts, minutes, "minute")
	parts = appendUnit(parts, seconds, "second")

	return strings.Join(parts, ", ")
}

func appendUnit(parts []string, value int, unit string) []string {
	switch {
	case value == 1:
		return append(parts, "1 "+unit)
	case value > 1:
		return append(parts, fmt.Sprintf("%d %ss", value, unit))
	default:
		return parts
	}
}
