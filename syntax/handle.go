package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidHandle reports a string that violates the handle grammar.
var ErrInvalidHandle = errors.New("invalid handle")

// maxHandleLength bounds the whole handle, per DNS hostname limits.
const maxHandleLength = 253

// disallowedHandleTLDs lists final labels that never resolve on the public
// DNS and are rejected outright.
var disallowedHandleTLDs = map[string]bool{
	"alt":       true,
	"arpa":      true,
	"example":   true,
	"internal":  true,
	"invalid":   true,
	"local":     true,
	"localhost": true,
	"onion":     true,
}

// Handle is a validated handle in canonical (lowercase) form.
type Handle string

func (h Handle) String() string { return string(h) }

// ParseHandle validates raw as a handle and returns its canonical lowercase
// form. Handles are compared case-insensitively, so two inputs differing only
// in ASCII case parse to the same Handle.
func ParseHandle(raw string) (Handle, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHandle)
	}
	if len(raw) > maxHandleLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidHandle, maxHandleLength)
	}
	labels := strings.Split(raw, ".")
	if len(labels) < 2 {
		return "", fmt.Errorf("%w: need at least two dot-separated labels", ErrInvalidHandle)
	}
	for i, label := range labels {
		if err := checkHandleLabel(label, i == len(labels)-1); err != nil {
			return "", err
		}
	}
	tld := strings.ToLower(labels[len(labels)-1])
	if disallowedHandleTLDs[tld] {
		return "", fmt.Errorf("%w: top-level domain %q is disallowed", ErrInvalidHandle, tld)
	}
	return Handle(strings.ToLower(raw)), nil
}

func checkHandleLabel(label string, final bool) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidHandle)
	}
	if len(label) > 63 {
		return fmt.Errorf("%w: label %q is longer than 63 bytes", ErrInvalidHandle, label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return fmt.Errorf("%w: label %q contains an invalid character", ErrInvalidHandle, label)
		}
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("%w: label %q starts or ends with a hyphen", ErrInvalidHandle, label)
	}
	if final && label[0] >= '0' && label[0] <= '9' {
		return fmt.Errorf("%w: top-level label %q starts with a digit", ErrInvalidHandle, label)
	}
	return nil
}
