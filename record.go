package lexicon

import (
	"context"

	"github.com/atprose/lexicon/syntax"
)

// ValidateRecord checks a record value against the collection's main record
// definition and returns the normalized copy. A present $type member must
// name the collection itself.
func (g *Graph) ValidateRecord(ctx context.Context, collection string, v any) (any, error) {
	h, _, err := g.recordHandle(collection)
	if err != nil {
		return nil, err
	}
	st := &vstate{g: g, failFast: IsFailFast(ctx)}
	out := st.validateNode(h, "/", v)
	if len(st.issues) > 0 {
		return nil, st.issues
	}
	return out, nil
}

// ValidateRecordKey checks key against the collection's key strategy. A
// failing key comes back as Issues with code invalid_key at path /$key, so
// callers can retry key generation without re-reading payload issues.
func (g *Graph) ValidateRecordKey(collection, key string) error {
	_, n, err := g.recordHandle(collection)
	if err != nil {
		return err
	}
	if iss := keyIssue(n, key); iss != nil {
		return Issues{*iss}
	}
	return nil
}

// ValidateRecordWithKey validates the key and the record value in one call.
// Key issues precede payload issues in the returned list.
func (g *Graph) ValidateRecordWithKey(ctx context.Context, collection, key string, v any) (any, error) {
	h, n, err := g.recordHandle(collection)
	if err != nil {
		return nil, err
	}
	st := &vstate{g: g, failFast: IsFailFast(ctx)}
	if iss := keyIssue(n, key); iss != nil {
		st.report(*iss)
	}
	out := st.validateNode(h, "/", v)
	if len(st.issues) > 0 {
		return nil, st.issues
	}
	return out, nil
}

// recordHandle resolves collection's record definition.
func (g *Graph) recordHandle(collection string) (handle, *node, error) {
	h, err := g.lookup(collection)
	if err != nil {
		return noHandle, nil, err
	}
	n := &g.nodes[h]
	if n.kind != KindRecord {
		return noHandle, nil, buildErr(string(n.id.NSID), n.path, ErrNotARecord, "%s", n.kind)
	}
	return h, n, nil
}

// keyIssue reports how key violates n's strategy, nil when it conforms.
// Every strategy still requires a syntactically valid record key.
func keyIssue(n *node, key string) *Issue {
	const keyPath = "/$key"
	if _, err := syntax.ParseRecordKey(key); err != nil {
		iss := issueCause(keyPath, CodeInvalidKey, "rkey", err)
		return &iss
	}
	switch n.key {
	case keyTID:
		if _, err := syntax.ParseTID(key); err != nil {
			iss := issueCause(keyPath, CodeInvalidKey, "tid", err)
			return &iss
		}
	case keyLiteral:
		if key != n.keyLiteral {
			iss := issueHint(keyPath, CodeInvalidKey, n.keyLiteral)
			return &iss
		}
	case keyNSID:
		if _, err := syntax.ParseNSID(key); err != nil {
			iss := issueCause(keyPath, CodeInvalidKey, "nsid", err)
			return &iss
		}
	case keyAny:
	}
	return nil
}
