package lexicon

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rivo/uniseg"

	"github.com/atprose/lexicon/syntax"
)

// Validate checks v against the definition addressed by id ("nsid" or
// "nsid#name") and returns a normalized deep copy of it. Instance problems
// come back as Issues; an id that does not resolve to a validatable
// definition is a *BuildError.
//
// v is a decoded JSON tree: map[string]any, []any, string, bool, nil, and
// json.Number / int64 / integral float64 for numbers. It is never mutated.
func (g *Graph) Validate(ctx context.Context, id string, v any) (any, error) {
	h, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	n := &g.nodes[h]
	if n.kind == KindQuery || n.kind == KindProcedure {
		return nil, buildErr(string(n.id.NSID), n.path, ErrUnsupportedDefinition,
			"%s definitions have no value form; validate their parameters or body schemas", n.kind)
	}
	st := &vstate{g: g, failFast: IsFailFast(ctx)}
	out := st.validateNode(h, "/", v)
	if len(st.issues) > 0 {
		return nil, st.issues
	}
	return out, nil
}

// ValidateParams checks query/procedure parameters. id must address a query
// or procedure definition; params holds the decoded parameter map. The
// normalized copy is returned the same way Validate returns one.
func (g *Graph) ValidateParams(ctx context.Context, id string, params map[string]any) (map[string]any, error) {
	h, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	n := &g.nodes[h]
	if n.kind != KindQuery && n.kind != KindProcedure {
		return nil, buildErr(string(n.id.NSID), n.path, ErrUnsupportedDefinition,
			"%s definitions take no parameters", n.kind)
	}
	if n.params == noHandle {
		// Undeclared parameter blocks are open: anything supplied rides
		// through untouched.
		if params == nil {
			return map[string]any{}, nil
		}
		return deepCopy(params).(map[string]any), nil
	}
	if params == nil {
		params = map[string]any{}
	}
	st := &vstate{g: g, failFast: IsFailFast(ctx)}
	out := st.validateNode(n.params, "/", params)
	if len(st.issues) > 0 {
		return nil, st.issues
	}
	m, _ := out.(map[string]any)
	return m, nil
}

// vstate carries one validation pass. Exhaustive across siblings unless
// failFast is set, in which case the first issue stops the walk.
type vstate struct {
	g        *Graph
	issues   Issues
	failFast bool
}

func (st *vstate) report(iss Issue) {
	if st.failFast && len(st.issues) > 0 {
		return
	}
	st.issues = AppendIssues(st.issues, iss)
}

// stopped reports whether fail-fast mode has already collected an issue.
func (st *vstate) stopped() bool {
	return st.failFast && len(st.issues) > 0
}

// validateNode dispatches on the node kind. It returns the normalized value;
// the return is meaningless once st.issues is non-empty.
func (st *vstate) validateNode(h handle, path string, v any) any {
	if st.stopped() {
		return nil
	}
	n := &st.g.nodes[h]
	switch n.kind {
	case KindRecord:
		return st.validateRecord(n, path, v)
	case KindObject, KindParams:
		return st.validateObject(n, path, v)
	case KindArray:
		return st.validateArray(n, path, v)
	case KindString:
		return st.validateString(n, path, v)
	case KindInteger:
		return st.validateInteger(n, path, v)
	case KindBoolean:
		return st.validateBoolean(n, path, v)
	case KindBytes:
		return st.validateBytes(n, path, v)
	case KindBlob:
		return st.validateBlob(n, path, v)
	case KindCidLink:
		return st.cidLink(path, v)
	case KindNull:
		if v != nil {
			st.report(issueHint(path, CodeInvalidType, "expected null"))
			return nil
		}
		return nil
	case KindRef:
		return st.validateNode(n.target, path, v)
	case KindUnion:
		return st.validateUnion(n, path, v)
	case KindUnknown:
		return deepCopy(v)
	case KindToken:
		return st.validateToken(n, path, v)
	}
	// query/procedure reached through a ref: RPC definitions have no value
	// form.
	st.report(issueHint(path, CodeInvalidType, string(n.kind)))
	return nil
}

// validateRecord checks the record envelope and hands the map to the payload
// object. A present $type must name the record itself.
func (st *vstate) validateRecord(n *node, path string, v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if tv, present := m["$type"]; present {
		if s, ok := tv.(string); !ok || s != n.id.String() {
			st.report(issueHint(pathField(path, "$type"), CodeConstMismatch, n.id.String()))
		}
	}
	if st.stopped() {
		return nil
	}
	return st.validateNode(n.payload, path, v)
}

func (st *vstate) validateObject(n *node, path string, v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	out := make(map[string]any, len(m))
	for i := range n.props {
		p := &n.props[i]
		ppath := pathField(path, p.name)
		pv, present := m[p.name]
		switch {
		case !present:
			if p.required {
				st.report(issueAt(ppath, CodeRequired))
			}
		case pv == nil:
			// Null is a value in its own right: only properties listed in
			// nullable may carry it.
			switch {
			case p.nullable:
				out[p.name] = nil
			case p.required:
				st.report(issueAt(ppath, CodeRequired))
			default:
				st.report(issueHint(ppath, CodeInvalidType, "null"))
			}
		default:
			out[p.name] = st.validateNode(p.h, ppath, pv)
		}
		if st.stopped() {
			return nil
		}
	}
	// Undeclared keys ride through open objects; closed objects reject them.
	// Sorted so issue order does not depend on map iteration.
	var extras []string
	for k := range m {
		if _, known := n.byName[k]; !known {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		if k == "$type" {
			// The discriminator belongs to the enclosing union or record,
			// not to the object's own property set.
			out[k] = deepCopy(m[k])
			continue
		}
		if n.closed {
			st.report(issueHint(pathField(path, k), CodeUnknownKey, k))
			if st.stopped() {
				return nil
			}
			continue
		}
		out[k] = deepCopy(m[k])
	}
	return out
}

func (st *vstate) validateArray(n *node, path string, v any) any {
	a, ok := v.([]any)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if n.minLen != nil && len(a) < *n.minLen {
		st.report(issueHint(path, CodeTooFewItems, fmt.Sprintf("minLength %d", *n.minLen)))
	}
	if n.maxLen != nil && len(a) > *n.maxLen {
		st.report(issueHint(path, CodeTooManyItems, fmt.Sprintf("maxLength %d", *n.maxLen)))
	}
	out := make([]any, len(a))
	for i, item := range a {
		if st.stopped() {
			return nil
		}
		out[i] = st.validateNode(n.items, pathIndex(path, i), item)
	}
	return out
}

// validateString applies byte bounds, grapheme bounds, format, enum, and
// const independently so one value reports every violated constraint. Byte
// and grapheme limits are separate axes: a string may pass one and fail the
// other.
func (st *vstate) validateString(n *node, path string, v any) any {
	s, ok := v.(string)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if n.minLen != nil && len(s) < *n.minLen {
		st.report(issueHint(path, CodeTooShort, fmt.Sprintf("minLength %d", *n.minLen)))
	}
	if n.maxLen != nil && len(s) > *n.maxLen {
		st.report(issueHint(path, CodeTooLong, fmt.Sprintf("maxLength %d", *n.maxLen)))
	}
	if n.minGraphemes != nil || n.maxGraphemes != nil {
		gc := uniseg.GraphemeClusterCount(s)
		if n.minGraphemes != nil && gc < *n.minGraphemes {
			st.report(issueHint(path, CodeTooFewGraphemes, fmt.Sprintf("minGraphemes %d", *n.minGraphemes)))
		}
		if n.maxGraphemes != nil && gc > *n.maxGraphemes {
			st.report(issueHint(path, CodeTooManyGraphemes, fmt.Sprintf("maxGraphemes %d", *n.maxGraphemes)))
		}
	}
	out := s
	if n.format != nil {
		canon, err := n.format(s)
		if err != nil {
			st.report(issueCause(path, CodeInvalidFormat, n.formatName, err))
		} else {
			out = canon
		}
	}
	if len(n.enum) > 0 && !containsString(n.enum, s) {
		st.report(issueAt(path, CodeInvalidEnum))
	}
	if n.strConst != nil && s != *n.strConst {
		st.report(issueHint(path, CodeConstMismatch, *n.strConst))
	}
	return out
}

func (st *vstate) validateInteger(n *node, path string, v any) any {
	i, ok := intValue(v)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if n.min != nil && i < *n.min {
		st.report(issueHint(path, CodeOutOfRange, fmt.Sprintf("minimum %d", *n.min)))
	}
	if n.max != nil && i > *n.max {
		st.report(issueHint(path, CodeOutOfRange, fmt.Sprintf("maximum %d", *n.max)))
	}
	if len(n.intEnum) > 0 && !containsInt(n.intEnum, i) {
		st.report(issueAt(path, CodeInvalidEnum))
	}
	if n.intConst != nil && i != *n.intConst {
		st.report(issueHint(path, CodeConstMismatch, fmt.Sprintf("%d", *n.intConst)))
	}
	return i
}

func (st *vstate) validateBoolean(n *node, path string, v any) any {
	b, ok := v.(bool)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if n.boolConst != nil && b != *n.boolConst {
		st.report(issueHint(path, CodeConstMismatch, fmt.Sprintf("%t", *n.boolConst)))
	}
	return b
}

// validateBytes accepts raw []byte or the wire object {"$bytes": "<base64>"}.
// Length bounds apply to the decoded byte count.
func (st *vstate) validateBytes(n *node, path string, v any) any {
	var raw []byte
	switch t := v.(type) {
	case []byte:
		raw = t
	case map[string]any:
		enc, ok := t["$bytes"].(string)
		if !ok || len(t) != 1 {
			st.report(issueAt(path, CodeInvalidType))
			return nil
		}
		b, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			b, err = base64.RawStdEncoding.DecodeString(enc)
		}
		if err != nil {
			st.report(issueCause(path, CodeInvalidType, "$bytes", err))
			return nil
		}
		raw = b
	default:
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if n.minLen != nil && len(raw) < *n.minLen {
		st.report(issueHint(path, CodeTooShort, fmt.Sprintf("minLength %d", *n.minLen)))
	}
	if n.maxLen != nil && len(raw) > *n.maxLen {
		st.report(issueHint(path, CodeTooLong, fmt.Sprintf("maxLength %d", *n.maxLen)))
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

// validateBlob checks the blob envelope:
// {"$type":"blob","ref":{"$link":"<cid>"},"mimeType":"...","size":n}.
func (st *vstate) validateBlob(n *node, path string, v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if t, _ := m["$type"].(string); t != "blob" {
		st.report(issueHint(pathField(path, "$type"), CodeConstMismatch, "blob"))
	}
	out := map[string]any{"$type": "blob"}
	if ref := st.cidLink(pathField(path, "ref"), m["ref"]); ref != nil {
		out["ref"] = ref
	}
	mime, ok := m["mimeType"].(string)
	if !ok {
		st.report(issueAt(pathField(path, "mimeType"), CodeInvalidType))
	} else {
		if !mimeAllowed(n.accept, mime) {
			st.report(issueHint(pathField(path, "mimeType"), CodeMimeNotAllowed, strings.Join(n.accept, ", ")))
		}
		out["mimeType"] = mime
	}
	size, ok := intValue(m["size"])
	if !ok {
		st.report(issueAt(pathField(path, "size"), CodeInvalidType))
	} else {
		if n.maxSize != nil && size > *n.maxSize {
			st.report(issueHint(pathField(path, "size"), CodeBlobTooLarge, fmt.Sprintf("maxSize %d", *n.maxSize)))
		}
		out["size"] = size
	}
	if st.stopped() {
		return nil
	}
	return out
}

// cidLink validates the {"$link": "<cid>"} wire object and returns it with
// the CID in canonical encoding.
func (st *vstate) cidLink(path string, v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	raw, ok := m["$link"].(string)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	c, err := syntax.ParseCID(raw)
	if err != nil {
		st.report(issueCause(pathField(path, "$link"), CodeInvalidFormat, "cid", err))
		return nil
	}
	return map[string]any{"$link": c.String()}
}

func (st *vstate) validateUnion(n *node, path string, v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	tv, present := m["$type"]
	if !present {
		st.report(issueAt(path, CodeDiscriminatorMissing))
		return nil
	}
	raw, ok := tv.(string)
	if !ok {
		st.report(issueAt(pathField(path, "$type"), CodeInvalidType))
		return nil
	}
	tag := raw
	if tid, err := ParseTypeID(raw); err == nil {
		tag = tid.String()
	}
	th, ok := n.tags[tag]
	if !ok {
		if n.closed {
			st.report(issueHint(pathField(path, "$type"), CodeDiscriminatorUnknown, raw))
			return nil
		}
		// Open unions admit tags minted after this schema shipped.
		return deepCopy(v)
	}
	return st.validateNode(th, path, v)
}

// validateToken accepts exactly the token's own fully-qualified id: values
// reference tokens by name, they never instantiate them.
func (st *vstate) validateToken(n *node, path string, v any) any {
	s, ok := v.(string)
	if !ok {
		st.report(issueAt(path, CodeInvalidType))
		return nil
	}
	if s != n.id.String() {
		st.report(issueHint(path, CodeTokenMismatch, n.id.String()))
		return nil
	}
	return s
}

// intValue extracts an integer from the decoded JSON forms the engine
// accepts. Strings never coerce; fractional floats never truncate.
func intValue(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		if t != math.Trunc(t) || t < -(1<<53) || t > 1<<53 {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

// mimeAllowed matches m against accept patterns: exact, "type/*", or "*/*".
// An empty accept list allows everything.
func mimeAllowed(accept []string, m string) bool {
	if len(accept) == 0 {
		return true
	}
	m = strings.ToLower(m)
	for _, pat := range accept {
		switch {
		case pat == "*/*":
			return true
		case strings.HasSuffix(pat, "/*"):
			if strings.HasPrefix(m, pat[:len(pat)-1]) {
				return true
			}
		case pat == m:
			return true
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsInt(set []int64, i int64) bool {
	for _, v := range set {
		if v == i {
			return true
		}
	}
	return false
}

// deepCopy clones a decoded JSON tree so normalized output never aliases the
// caller's value. Scalars are immutable and pass through.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	default:
		return t
	}
}
