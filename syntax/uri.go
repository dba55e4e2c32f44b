package syntax

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURI reports a string that is not an absolute URI.
var ErrInvalidURI = errors.New("invalid URI")

// maxURILength is the documented ceiling for a generic URI value.
const maxURILength = 8192

// ParseURI validates raw as an absolute URI per RFC 3986: a scheme is
// required, whitespace is not. The input is returned unchanged; generic URIs
// have no canonicalization here.
func ParseURI(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURI)
	}
	if len(raw) > maxURILength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidURI, maxURILength)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", fmt.Errorf("%w: whitespace is not allowed", ErrInvalidURI)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: missing scheme", ErrInvalidURI)
	}
	return raw, nil
}
