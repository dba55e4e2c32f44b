package syntax

import (
	"errors"
	"fmt"
)

// ErrInvalidRecordKey reports a string that violates the record key grammar.
var ErrInvalidRecordKey = errors.New("invalid record key")

// maxRecordKeyLength bounds a record key in bytes.
const maxRecordKeyLength = 512

// RecordKey is a validated record key: the storage key of a record within a
// collection.
type RecordKey string

func (k RecordKey) String() string { return string(k) }

// ParseRecordKey validates raw as a record key.
func ParseRecordKey(raw string) (RecordKey, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRecordKey)
	}
	if len(raw) > maxRecordKeyLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidRecordKey, maxRecordKeyLength)
	}
	if raw == "." || raw == ".." {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidRecordKey, raw)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == ':', c == '~', c == '-':
		default:
			return "", fmt.Errorf("%w: invalid character %q", ErrInvalidRecordKey, c)
		}
	}
	return RecordKey(raw), nil
}
