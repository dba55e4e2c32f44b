package syntax

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDID reports a string that violates the DID grammar.
var ErrInvalidDID = errors.New("invalid DID")

// maxDIDLength is a documented ceiling; the grammar itself is unbounded.
const maxDIDLength = 2048

// plcEncoding is RFC 4648 base32 with the lowercase alphabet used by plc
// identifiers, unpadded.
var plcEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// DID is a validated decentralized identifier. The method-specific part is
// case-sensitive, so the canonical form is the input unchanged.
type DID string

func (d DID) String() string { return string(d) }

// Method returns the DID method segment ("plc", "web", ...).
func (d DID) Method() string {
	rest := strings.TrimPrefix(string(d), "did:")
	method, _, _ := strings.Cut(rest, ":")
	return method
}

// ParseDID validates raw as a DID. Any syntactically valid method is
// accepted; identifiers of the plc and web methods additionally get their
// method-specific shape checked.
func ParseDID(raw string) (DID, error) {
	if len(raw) > maxDIDLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidDID, maxDIDLength)
	}
	rest, ok := strings.CutPrefix(raw, "did:")
	if !ok {
		return "", fmt.Errorf("%w: missing did: prefix", ErrInvalidDID)
	}
	method, id, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("%w: missing method-specific identifier", ErrInvalidDID)
	}
	if method == "" {
		return "", fmt.Errorf("%w: empty method", ErrInvalidDID)
	}
	for i := 0; i < len(method); i++ {
		c := method[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "", fmt.Errorf("%w: method %q must be lowercase letters and digits", ErrInvalidDID, method)
		}
	}
	if err := checkDIDIdentifier(id); err != nil {
		return "", err
	}
	switch method {
	case "plc":
		if err := checkPlcIdentifier(id); err != nil {
			return "", err
		}
	case "web":
		if _, err := ParseHandle(id); err != nil {
			return "", fmt.Errorf("%w: web identifier is not a hostname: %v", ErrInvalidDID, err)
		}
	}
	return DID(raw), nil
}

func checkDIDIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty method-specific identifier", ErrInvalidDID)
	}
	if id[len(id)-1] == ':' {
		return fmt.Errorf("%w: trailing colon", ErrInvalidDID)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == '-', c == ':':
		case c == '%':
			// pct-encoded per RFC 3986 ABNF: two uppercase hex digits.
			if i+2 >= len(id) || !isUpperHex(id[i+1]) || !isUpperHex(id[i+2]) {
				return fmt.Errorf("%w: bad percent escape at byte %d", ErrInvalidDID, i)
			}
			i += 2
		default:
			return fmt.Errorf("%w: invalid character %q in identifier", ErrInvalidDID, c)
		}
	}
	return nil
}

func checkPlcIdentifier(id string) error {
	if len(id) != 24 {
		return fmt.Errorf("%w: plc identifier must be 24 characters", ErrInvalidDID)
	}
	decoded, err := plcEncoding.DecodeString(id)
	if err != nil || len(decoded) != 15 {
		return fmt.Errorf("%w: plc identifier is not lowercase base32", ErrInvalidDID)
	}
	return nil
}

func isUpperHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')
}
