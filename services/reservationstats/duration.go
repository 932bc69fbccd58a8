package reservationstats

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedDuration means a reservation's duration field violates the
// configured grammar. Fatal for the whole run on purpose: it signals the
// backend's schema drifted and silently dropping records would corrupt
// the leaderboard without anyone noticing.
var ErrMalformedDuration = errors.New("reservationstats: malformed origin_minutes")

// DurationFormat selects which duration grammar the backend currently
// speaks. Two generations have been observed in the wild: a bare
// minutes-with-apostrophe suffix and a fractional form carrying seconds
// after the apostrophe.
type DurationFormat string

const (
	// DurationFractional parses `<minutes>'<seconds?>`, e.g. "12'30" is
	// 12.5 minutes and "7'" is 7 minutes. Accepts every simple-form
	// value, making it the safe default against either backend
	// generation.
	DurationFractional DurationFormat = "fractional"
	// DurationSimple parses `<minutes>'` only.
	DurationSimple DurationFormat = "simple"
)

var (
	fractionalPattern = regexp.MustCompile(`^(\d+)'(\d*)`)
	simplePattern     = regexp.MustCompile(`^(\d+)'$`)
)

// ParseMinutes turns a raw origin_minutes value into minutes.
func (f DurationFormat) ParseMinutes(raw string) (float64, error) {
	switch f {
	case DurationSimple:
		match := simplePattern.FindStringSubmatch(raw)
		if match == nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
		}
		minutes, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
		}
		return minutes, nil
	default:
		match := fractionalPattern.FindStringSubmatch(raw)
		if match == nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
		}
		minutes, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
		}
		if match[2] != "" {
			seconds, err := strconv.ParseFloat(match[2], 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrMalformedDuration, raw)
			}
			minutes += seconds / 60
		}
		return minutes, nil
	}
}
