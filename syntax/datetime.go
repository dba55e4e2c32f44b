package syntax

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDatetime reports a string that is not an RFC3339 datetime with an
// explicit timezone.
var ErrInvalidDatetime = errors.New("invalid datetime")

// Datetime is a validated RFC3339 timestamp string. The timezone is always
// explicit (either Z or a ±hh:mm offset), never bare local time.
type Datetime string

func (d Datetime) String() string { return string(d) }

// Time returns the parsed timestamp. The receiver is already validated, so a
// parse failure cannot occur.
func (d Datetime) Time() time.Time {
	t, _ := time.Parse(time.RFC3339, string(d))
	return t
}

// ParseDatetime validates raw as an RFC3339 datetime. The offset is
// mandatory, fractional seconds are optional, and the RFC3339 "unknown
// offset" form -00:00 is rejected.
func ParseDatetime(raw string) (Datetime, error) {
	if len(raw) < len("0000-01-01T00:00:00Z") {
		return "", fmt.Errorf("%w: too short", ErrInvalidDatetime)
	}
	if strings.HasSuffix(raw, "-00:00") {
		return "", fmt.Errorf("%w: -00:00 denotes an unknown offset", ErrInvalidDatetime)
	}
	if _, err := time.Parse(time.RFC3339, raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDatetime, err)
	}
	return Datetime(raw), nil
}
