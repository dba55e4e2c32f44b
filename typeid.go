package lexicon

import (
	"fmt"
	"strings"

	"github.com/atprose/lexicon/syntax"
)

// TypeID addresses one definition: an NSID plus an optional local name. The
// name is empty for a document's main definition, so the canonical string of
// a main definition is the bare NSID, the same form that appears in `$type`
// discriminators on the wire.
type TypeID struct {
	NSID syntax.NSID
	Name string
}

// TypeIDOf returns the fully qualified id of the named definition inside the
// document publishing under id.
func TypeIDOf(id syntax.NSID, name string) TypeID {
	if name == "main" {
		return TypeID{NSID: id}
	}
	return TypeID{NSID: id, Name: name}
}

// ParseTypeID parses "nsid", "nsid#name", or "nsid#main"; the last
// canonicalizes to the bare form.
func ParseTypeID(raw string) (TypeID, error) {
	ns, name, found := strings.Cut(raw, "#")
	if found && name == "" {
		return TypeID{}, fmt.Errorf("empty definition name in %q", raw)
	}
	id, err := syntax.ParseNSID(ns)
	if err != nil {
		return TypeID{}, err
	}
	if !found || name == "main" {
		return TypeID{NSID: id}, nil
	}
	return TypeID{NSID: id, Name: name}, nil
}

// ResolveRef resolves a ref target as authored in a schema ("#name",
// "nsid", or "nsid#name") against the document that declared it.
func ResolveRef(base syntax.NSID, target string) (TypeID, error) {
	if target == "" {
		return TypeID{}, fmt.Errorf("empty ref target")
	}
	if rest, ok := strings.CutPrefix(target, "#"); ok {
		if rest == "" {
			return TypeID{}, fmt.Errorf("empty definition name in %q", target)
		}
		return TypeIDOf(base, rest), nil
	}
	return ParseTypeID(target)
}

// String renders the canonical form: the bare NSID for a main definition,
// "nsid#name" otherwise.
func (t TypeID) String() string {
	if t.Name == "" {
		return string(t.NSID)
	}
	return string(t.NSID) + "#" + t.Name
}

// DefName returns the defs-map key this id addresses within its document.
func (t TypeID) DefName() string {
	if t.Name == "" {
		return "main"
	}
	return t.Name
}
