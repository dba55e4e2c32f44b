package lexicon

import (
	"sort"

	"github.com/atprose/lexicon/syntax"
)

// FormatFunc validates raw against one identifier grammar and returns the
// canonical form. Canonicalization is deterministic and idempotent: feeding
// the result back in yields the result unchanged.
type FormatFunc func(raw string) (string, error)

// FormatRegistry maps the format names a string definition may declare to
// their validators. A graph captures the functions it needs at build time, so
// registering after a build never changes that graph's behavior.
type FormatRegistry struct {
	byName map[string]FormatFunc
}

// NewFormats returns a registry prepopulated with every format the protocol
// defines.
func NewFormats() *FormatRegistry {
	r := &FormatRegistry{byName: make(map[string]FormatFunc, 16)}
	r.Register("at-identifier", syntax.ParseAtIdentifier)
	r.Register("at-uri", func(raw string) (string, error) {
		u, err := syntax.ParseATURI(raw)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	})
	r.Register("cid", func(raw string) (string, error) {
		c, err := syntax.ParseCID(raw)
		if err != nil {
			return "", err
		}
		return c.String(), nil
	})
	r.Register("datetime", func(raw string) (string, error) {
		d, err := syntax.ParseDatetime(raw)
		return string(d), err
	})
	r.Register("did", func(raw string) (string, error) {
		d, err := syntax.ParseDID(raw)
		return string(d), err
	})
	r.Register("handle", func(raw string) (string, error) {
		h, err := syntax.ParseHandle(raw)
		return string(h), err
	})
	r.Register("language", func(raw string) (string, error) {
		l, err := syntax.ParseLanguage(raw)
		return string(l), err
	})
	r.Register("nsid", func(raw string) (string, error) {
		id, err := syntax.ParseNSID(raw)
		return string(id), err
	})
	r.Register("tid", func(raw string) (string, error) {
		id, err := syntax.ParseTID(raw)
		return string(id), err
	})
	r.Register("uri", syntax.ParseURI)
	return r
}

// Register installs fn under name, replacing any previous entry.
func (r *FormatRegistry) Register(name string, fn FormatFunc) {
	r.byName[name] = fn
}

// Lookup returns the validator registered under name.
func (r *FormatRegistry) Lookup(name string) (FormatFunc, bool) {
	fn, ok := r.byName[name]
	return fn, ok
}

// Names returns the registered format names in sorted order.
func (r *FormatRegistry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
