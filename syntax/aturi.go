package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidATURI reports a string that violates the AT-URI grammar.
var ErrInvalidATURI = errors.New("invalid AT-URI")

// maxATURILength is the documented ceiling for a full AT-URI.
const maxATURILength = 8192

// ATURI is a validated record address: an authority, optionally narrowed to a
// collection and then to a single record key.
type ATURI struct {
	Authority  string    // canonical handle or DID
	Collection NSID      // empty when the URI stops at the authority
	Key        RecordKey // empty when the URI stops at the collection
}

// ParseATURI validates raw as an AT-URI of the form
// at://AUTHORITY[/COLLECTION[/RKEY]].
func ParseATURI(raw string) (ATURI, error) {
	if len(raw) > maxATURILength {
		return ATURI{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidATURI, maxATURILength)
	}
	rest, ok := strings.CutPrefix(raw, "at://")
	if !ok {
		return ATURI{}, fmt.Errorf("%w: missing at:// scheme", ErrInvalidATURI)
	}
	if strings.ContainsAny(rest, "?#") {
		return ATURI{}, fmt.Errorf("%w: query and fragment parts are not allowed", ErrInvalidATURI)
	}
	segments := strings.Split(rest, "/")
	if strings.ContainsRune(segments[0], '@') {
		return ATURI{}, fmt.Errorf("%w: credentials are not allowed in the authority", ErrInvalidATURI)
	}
	authority, err := ParseAtIdentifier(segments[0])
	if err != nil {
		return ATURI{}, fmt.Errorf("%w: authority: %v", ErrInvalidATURI, err)
	}
	u := ATURI{Authority: authority}
	switch len(segments) {
	case 1:
	case 2, 3:
		collection, err := ParseNSID(segments[1])
		if err != nil {
			return ATURI{}, fmt.Errorf("%w: collection: %v", ErrInvalidATURI, err)
		}
		u.Collection = collection
		if len(segments) == 3 {
			key, err := ParseRecordKey(segments[2])
			if err != nil {
				return ATURI{}, fmt.Errorf("%w: record key: %v", ErrInvalidATURI, err)
			}
			u.Key = key
		}
	default:
		return ATURI{}, fmt.Errorf("%w: too many path segments", ErrInvalidATURI)
	}
	return u, nil
}

// String renders the canonical form.
func (u ATURI) String() string {
	b := strings.Builder{}
	b.WriteString("at://")
	b.WriteString(u.Authority)
	if u.Collection != "" {
		b.WriteByte('/')
		b.WriteString(string(u.Collection))
		if u.Key != "" {
			b.WriteByte('/')
			b.WriteString(string(u.Key))
		}
	}
	return b.String()
}
