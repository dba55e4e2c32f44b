package syntax

import "strings"

// ParseAtIdentifier validates raw as either a DID or a handle, the two forms
// an actor reference may take, and returns the canonical form.
func ParseAtIdentifier(raw string) (string, error) {
	if strings.HasPrefix(raw, "did:") {
		d, err := ParseDID(raw)
		if err != nil {
			return "", err
		}
		return string(d), nil
	}
	h, err := ParseHandle(raw)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
