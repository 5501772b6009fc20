package domain

import (
	"strconv"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// DefaultLifespan is the cache lifespan used when none is configured.
const DefaultLifespan = "1d"

var lifespanUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseLifespan converts strings such as "90s", "12h" or "1d" into a duration.
// A bare number is read as seconds and an empty string yields DefaultLifespan.
func ParseLifespan(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		s = DefaultLifespan
	}

	unit := time.Second
	if mult, ok := lifespanUnits[s[len(s)-1]]; ok {
		unit = mult
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, zerr.With(zerr.Wrap(ErrInvalidLifespan, "parse lifespan"), "value", s)
	}
	return time.Duration(n) * unit, nil
}
