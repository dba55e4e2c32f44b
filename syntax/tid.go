package syntax

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrInvalidTID reports a string that violates the TID grammar.
var ErrInvalidTID = errors.New("invalid TID")

// tidAlphabet is the base32-sortable alphabet: lexicographic order of encoded
// strings matches numeric order of the packed values.
const tidAlphabet = "234567abcdefghijklmnopqrstuvwxyz"

const (
	tidLength     = 13
	tidMicrosMask = 0x1F_FFFF_FFFF_FFFF // 53 bits keeps the packed value's top bit zero
	tidClockMask  = 0x3FF
)

// TID is a validated timestamp identifier: thirteen base32-sortable
// characters packing a 64-bit value of (microseconds<<10 | clock id) with the
// top bit zero.
type TID string

func (t TID) String() string { return string(t) }

// ParseTID validates raw as a TID.
func ParseTID(raw string) (TID, error) {
	if len(raw) != tidLength {
		return "", fmt.Errorf("%w: must be %d characters", ErrInvalidTID, tidLength)
	}
	for i := 0; i < len(raw); i++ {
		idx := strings.IndexByte(tidAlphabet, raw[i])
		if idx < 0 {
			return "", fmt.Errorf("%w: character %q is not in the base32-sortable alphabet", ErrInvalidTID, raw[i])
		}
		// The first character carries the top four bits; indexes 16 and up
		// would set the (always zero) sign bit.
		if i == 0 && idx > 15 {
			return "", fmt.Errorf("%w: first character %q out of range", ErrInvalidTID, raw[i])
		}
	}
	return TID(raw), nil
}

// Integer returns the packed 64-bit value.
func (t TID) Integer() uint64 {
	var v uint64
	for i := 0; i < len(t); i++ {
		v = v<<5 | uint64(strings.IndexByte(tidAlphabet, t[i]))
	}
	return v
}

// Time returns the embedded timestamp with microsecond precision, in UTC.
func (t TID) Time() time.Time {
	return time.UnixMicro(int64(t.Integer() >> 10)).UTC()
}

// ClockID returns the low ten bits identifying the minting clock.
func (t TID) ClockID() uint16 {
	return uint16(t.Integer() & tidClockMask)
}

// NewTID packs a timestamp and clock id into a TID.
func NewTID(at time.Time, clockID uint16) TID {
	return tidFromInteger(packTID(uint64(at.UnixMicro()), clockID))
}

func packTID(micros uint64, clockID uint16) uint64 {
	return (micros&tidMicrosMask)<<10 | uint64(clockID)&tidClockMask
}

func tidFromInteger(v uint64) TID {
	var b [tidLength]byte
	for i := tidLength - 1; i >= 0; i-- {
		b[i] = tidAlphabet[v&31]
		v >>= 5
	}
	return TID(b[:])
}

// TIDClock mints TIDs that are strictly increasing for the lifetime of the
// clock, even when the wall clock stalls or steps backwards. A TIDClock is
// safe for concurrent use.
type TIDClock struct {
	mu      sync.Mutex
	clockID uint16
	last    uint64
	now     func() time.Time
}

// NewTIDClock returns a clock minting TIDs carrying the given clock id
// (only the low ten bits are used).
func NewTIDClock(clockID uint16) *TIDClock {
	return &TIDClock{clockID: clockID & tidClockMask, now: time.Now}
}

// Next returns a fresh TID greater than every TID this clock has returned.
func (c *TIDClock) Next() TID {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := packTID(uint64(c.now().UnixMicro()), c.clockID)
	if v <= c.last {
		// Advance one microsecond past the previous value, keeping the
		// clock id bits intact.
		v = c.last + (1 << 10)
	}
	c.last = v
	return tidFromInteger(v)
}
