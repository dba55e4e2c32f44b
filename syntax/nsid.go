package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNSID reports a string that violates the NSID grammar.
var ErrInvalidNSID = errors.New("invalid NSID")

// maxNSIDLength is the documented ceiling for a full NSID.
const maxNSIDLength = 317

// NSID is a validated namespaced identifier: a reverse-domain authority
// followed by a name segment, e.g. "dev.atprose.test.post". The authority is
// lowercase by grammar; the name preserves its case.
type NSID string

func (n NSID) String() string { return string(n) }

// Authority returns the reverse-domain part, everything before the name.
func (n NSID) Authority() string {
	i := strings.LastIndexByte(string(n), '.')
	return string(n)[:i]
}

// Name returns the final segment.
func (n NSID) Name() string {
	i := strings.LastIndexByte(string(n), '.')
	return string(n)[i+1:]
}

// ParseNSID validates raw as an NSID.
func ParseNSID(raw string) (NSID, error) {
	if len(raw) > maxNSIDLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidNSID, maxNSIDLength)
	}
	segments := strings.Split(raw, ".")
	if len(segments) < 3 {
		return "", fmt.Errorf("%w: need a domain authority plus a name", ErrInvalidNSID)
	}
	for i, label := range segments[:len(segments)-1] {
		if err := checkNSIDAuthorityLabel(label, i == 0); err != nil {
			return "", err
		}
	}
	if err := checkNSIDName(segments[len(segments)-1]); err != nil {
		return "", err
	}
	return NSID(raw), nil
}

func checkNSIDAuthorityLabel(label string, first bool) error {
	if label == "" {
		return fmt.Errorf("%w: empty authority label", ErrInvalidNSID)
	}
	if len(label) > 63 {
		return fmt.Errorf("%w: authority label %q is longer than 63 bytes", ErrInvalidNSID, label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("%w: authority label %q must be lowercase letters, digits and hyphens", ErrInvalidNSID, label)
		}
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("%w: authority label %q starts or ends with a hyphen", ErrInvalidNSID, label)
	}
	if first && label[0] >= '0' && label[0] <= '9' {
		return fmt.Errorf("%w: authority %q starts with a digit", ErrInvalidNSID, label)
	}
	return nil
}

func checkNSIDName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidNSID)
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: name %q is longer than 63 bytes", ErrInvalidNSID, name)
	}
	c := name[0]
	if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
		return fmt.Errorf("%w: name %q must start with a letter", ErrInvalidNSID, name)
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("%w: name %q must be letters and digits", ErrInvalidNSID, name)
		}
	}
	return nil
}
