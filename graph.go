package lexicon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/atprose/lexicon/syntax"
)

// Resolver supplies lexicon documents referenced across document boundaries.
// Implementations may block (disk, network); the builder calls them
// synchronously and turns their failures into build errors.
type Resolver interface {
	ResolveLexicon(id string) (*Document, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(id string) (*Document, error)

func (f ResolverFunc) ResolveLexicon(id string) (*Document, error) { return f(id) }

// BuildOptions configures graph construction. The zero value builds with the
// default format registry and no cross-document resolution.
type BuildOptions struct {
	Resolver Resolver
	Formats  *FormatRegistry
}

// handle indexes a node in a graph's arena. Refs and unions store handles,
// never embedded copies, so cyclic reference graphs stay finite data.
type handle int32

const noHandle handle = -1

type keyKind int8

const (
	keyTID keyKind = iota
	keyLiteral
	keyAny
	keyNSID
)

// property is one compiled object member, ordered by name.
type property struct {
	name     string
	h        handle
	required bool
	nullable bool
}

// node is one resolved schema node. kind selects which fields are in play,
// mirroring Definition.
type node struct {
	kind Kind
	id   TypeID // exact id for named definitions, nearest named ancestor otherwise
	path string // definition path inside the document, for diagnostics

	// object / params
	props  []property
	byName map[string]int
	closed bool // object: reject unknown keys; union: reject unknown tags

	// array
	items handle

	// string and bytes byte bounds, array item-count bounds
	minLen *int
	maxLen *int

	// string
	minGraphemes *int
	maxGraphemes *int
	formatName   string
	format       FormatFunc
	enum         []string
	strConst     *string

	// integer
	min      *int64
	max      *int64
	intEnum  []int64
	intConst *int64

	// boolean
	boolConst *bool

	// blob
	accept  []string
	maxSize *int64

	// ref
	target handle

	// union
	members []handle
	tags    map[string]handle

	// record
	key        keyKind
	keyLiteral string
	payload    handle

	// query / procedure
	params handle
	input  handle
	output handle
}

// Graph is a compiled, immutable set of resolved schema nodes sharing one
// arena. Nodes capture their format validators at build time, so any number
// of goroutines may validate against it concurrently.
type Graph struct {
	nodes []node
	byID  map[TypeID]handle
	ids   []TypeID
}

// TypeIDs returns every addressable definition in the graph, sorted by
// canonical string.
func (g *Graph) TypeIDs() []TypeID {
	out := make([]TypeID, len(g.ids))
	copy(out, g.ids)
	return out
}

// lookup resolves an addressable definition id ("nsid" or "nsid#name").
func (g *Graph) lookup(id string) (handle, error) {
	tid, err := ParseTypeID(id)
	if err != nil {
		return noHandle, &BuildError{ID: id, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
	}
	h, ok := g.byID[tid]
	if !ok {
		return noHandle, buildErr(tid.String(), "", ErrNotFound, "")
	}
	return h, nil
}

// BuildGraph compiles docs into one resolved graph. Cross-document refs
// resolve through opts.Resolver, and every document the resolver supplies is
// compiled into the same arena. The first schema-authoring mistake aborts the
// build: a graph is never partially usable.
func BuildGraph(docs []*Document, opts BuildOptions) (*Graph, error) {
	b := &builder{
		opts:   opts,
		nodes:  make([]node, 0, 16),
		byID:   make(map[TypeID]handle),
		docs:   make(map[syntax.NSID]*Document),
		filled: make(map[syntax.NSID]bool),
	}
	b.formats = opts.Formats
	if b.formats == nil {
		b.formats = NewFormats()
	}

	// Sorted admission keeps the arena layout independent of the caller's
	// slice order.
	sorted := make([]*Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		switch {
		case sorted[i] == nil:
			return false
		case sorted[j] == nil:
			return true
		default:
			return sorted[i].ID < sorted[j].ID
		}
	})
	for _, doc := range sorted {
		if err := b.addDocument(doc); err != nil {
			return nil, err
		}
	}
	for _, doc := range sorted {
		if err := b.fillDocument(doc); err != nil {
			return nil, err
		}
	}
	if err := b.checkCycles(); err != nil {
		return nil, err
	}

	ids := make([]TypeID, 0, len(b.byID))
	for id := range b.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return &Graph{nodes: b.nodes, byID: b.byID, ids: ids}, nil
}

// MustBuildGraph is BuildGraph that panics on error, for schemas compiled in
// at program start.
func MustBuildGraph(docs []*Document, opts BuildOptions) *Graph {
	g, err := BuildGraph(docs, opts)
	if err != nil {
		panic(err)
	}
	return g
}

type builder struct {
	opts    BuildOptions
	formats *FormatRegistry
	nodes   []node
	byID    map[TypeID]handle
	docs    map[syntax.NSID]*Document
	filled  map[syntax.NSID]bool
}

// addDocument indexes doc and allocates arena slots for its named
// definitions, so refs between documents resolve regardless of fill order.
func (b *builder) addDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("lexicon: nil document")
	}
	if _, ok := b.docs[doc.ID]; ok {
		return buildErr(string(doc.ID), "", ErrDuplicateDefinition, "document provided more than once")
	}
	b.docs[doc.ID] = doc
	for _, name := range doc.DefNames() {
		def := doc.Defs[name]
		if def == nil {
			return buildErr(string(doc.ID), name, ErrUnsupportedDefinition, "definition is null")
		}
		switch def.Kind {
		case KindRecord, KindQuery, KindProcedure:
			if name != "main" {
				return buildErr(string(doc.ID), name, ErrUnsupportedDefinition, "%s definitions must be named main", def.Kind)
			}
		case KindParams:
			return buildErr(string(doc.ID), name, ErrUnsupportedDefinition, "params only appears as query or procedure parameters")
		}
		b.byID[TypeIDOf(doc.ID, name)] = b.alloc(def.Kind, TypeIDOf(doc.ID, name), name)
	}
	return nil
}

func (b *builder) fillDocument(doc *Document) error {
	if b.filled[doc.ID] {
		return nil
	}
	b.filled[doc.ID] = true
	for _, name := range doc.DefNames() {
		h := b.byID[TypeIDOf(doc.ID, name)]
		if err := b.fill(h, doc, name, doc.Defs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) alloc(kind Kind, id TypeID, path string) handle {
	h := handle(len(b.nodes))
	b.nodes = append(b.nodes, node{
		kind:    kind,
		id:      id,
		path:    path,
		items:   noHandle,
		target:  noHandle,
		payload: noHandle,
		params:  noHandle,
		input:   noHandle,
		output:  noHandle,
	})
	return h
}

// compileInline compiles an anonymous nested definition into a fresh slot.
func (b *builder) compileInline(doc *Document, id TypeID, path string, def *Definition) (handle, error) {
	if def == nil {
		return noHandle, buildErr(string(doc.ID), path, ErrUnsupportedDefinition, "definition is null")
	}
	switch def.Kind {
	case KindRecord, KindQuery, KindProcedure, KindParams:
		return noHandle, buildErr(string(doc.ID), path, ErrUnsupportedDefinition, "%s definitions cannot be nested here", def.Kind)
	}
	h := b.alloc(def.Kind, id, path)
	if err := b.fill(h, doc, path, def); err != nil {
		return noHandle, err
	}
	return h, nil
}

// fill populates the slot at h from def. Child definitions are compiled
// first; fields are written through b.nodes[h] afterwards because child
// allocation may move the arena.
func (b *builder) fill(h handle, doc *Document, path string, def *Definition) error {
	docID := string(doc.ID)
	id := b.nodes[h].id

	switch def.Kind {
	case KindRecord:
		kk, lit, err := parseKeyStrategy(def.Key)
		if err != nil {
			return &BuildError{ID: docID, Def: path, Err: err}
		}
		if def.Record.Kind != KindObject {
			return buildErr(docID, path, ErrUnsupportedDefinition, "record payload must be an object, not %s", def.Record.Kind)
		}
		ph, err := b.compileInline(doc, id, path+"/record", def.Record)
		if err != nil {
			return err
		}
		b.nodes[h].key = kk
		b.nodes[h].keyLiteral = lit
		b.nodes[h].payload = ph

	case KindQuery, KindProcedure:
		if def.Parameters != nil {
			if def.Parameters.Kind != KindParams {
				return buildErr(docID, path+"/parameters", ErrUnsupportedDefinition, "parameters must be a params definition, not %s", def.Parameters.Kind)
			}
			ph := b.alloc(KindParams, id, path+"/parameters")
			if err := b.fill(ph, doc, path+"/parameters", def.Parameters); err != nil {
				return err
			}
			b.nodes[h].params = ph
		}
		if def.Input != nil && def.Input.Schema != nil {
			ih, err := b.compileInline(doc, id, path+"/input", def.Input.Schema)
			if err != nil {
				return err
			}
			b.nodes[h].input = ih
		}
		if def.Output != nil && def.Output.Schema != nil {
			oh, err := b.compileInline(doc, id, path+"/output", def.Output.Schema)
			if err != nil {
				return err
			}
			b.nodes[h].output = oh
		}

	case KindObject, KindParams:
		required := make(map[string]bool, len(def.Required))
		for _, name := range def.Required {
			if _, ok := def.Properties[name]; !ok {
				return buildErr(docID, path, ErrUnresolvedRef, "required property %q is not declared", name)
			}
			required[name] = true
		}
		nullable := make(map[string]bool, len(def.Nullable))
		for _, name := range def.Nullable {
			if _, ok := def.Properties[name]; !ok {
				return buildErr(docID, path, ErrUnresolvedRef, "nullable property %q is not declared", name)
			}
			nullable[name] = true
		}
		names := make([]string, 0, len(def.Properties))
		for name := range def.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		props := make([]property, 0, len(names))
		for _, name := range names {
			pd := def.Properties[name]
			if def.Kind == KindParams && pd != nil && !paramKindOK(pd) {
				return buildErr(docID, path+"/"+name, ErrUnsupportedDefinition, "params properties must be boolean, integer, string, or unknown, or arrays of those")
			}
			ch, err := b.compileInline(doc, id, path+"/"+name, pd)
			if err != nil {
				return err
			}
			props = append(props, property{name: name, h: ch, required: required[name], nullable: nullable[name]})
		}
		byName := make(map[string]int, len(props))
		for i, p := range props {
			byName[p.name] = i
		}
		n := &b.nodes[h]
		n.props = props
		n.byName = byName
		n.closed = def.Closed

	case KindArray:
		ih, err := b.compileInline(doc, id, path+"/items", def.Items)
		if err != nil {
			return err
		}
		b.nodes[h].items = ih
		b.nodes[h].minLen = def.MinLength
		b.nodes[h].maxLen = def.MaxLength

	case KindString:
		var fn FormatFunc
		if def.Format != "" {
			f, ok := b.formats.Lookup(def.Format)
			if !ok {
				return buildErr(docID, path, ErrUnknownFormat, "%q (known: %s)", def.Format, strings.Join(b.formats.Names(), ", "))
			}
			fn = f
		}
		n := &b.nodes[h]
		n.minLen = def.MinLength
		n.maxLen = def.MaxLength
		n.minGraphemes = def.MinGraphemes
		n.maxGraphemes = def.MaxGraphemes
		n.formatName = def.Format
		n.format = fn
		n.enum = def.Enum
		n.strConst = def.Const

	case KindInteger:
		n := &b.nodes[h]
		n.min = def.Minimum
		n.max = def.Maximum
		n.intEnum = def.IntEnum
		n.intConst = def.IntConst

	case KindBoolean:
		b.nodes[h].boolConst = def.BoolConst

	case KindBytes:
		b.nodes[h].minLen = def.MinLength
		b.nodes[h].maxLen = def.MaxLength

	case KindBlob:
		accept := make([]string, len(def.Accept))
		for i, a := range def.Accept {
			accept[i] = strings.ToLower(a)
		}
		b.nodes[h].accept = accept
		b.nodes[h].maxSize = def.MaxSize

	case KindRef:
		th, err := b.resolveTarget(doc, path, def.Ref)
		if err != nil {
			return err
		}
		b.nodes[h].target = th

	case KindUnion:
		members := make([]handle, 0, len(def.Refs))
		tags := make(map[string]handle, len(def.Refs))
		for _, ref := range def.Refs {
			tid, err := ResolveRef(doc.ID, ref)
			if err != nil {
				return buildErr(docID, path, ErrUnresolvedRef, "%q: %v", ref, err)
			}
			th, err := b.resolveTypeID(doc, path, tid)
			if err != nil {
				return err
			}
			members = append(members, th)
			tags[tid.String()] = th
		}
		n := &b.nodes[h]
		n.members = members
		n.tags = tags
		n.closed = def.Closed

	case KindToken, KindUnknown, KindNull, KindCidLink:

	default:
		return buildErr(docID, path, ErrUnsupportedDefinition, "%q", def.Kind)
	}
	return nil
}

// paramKindOK reports whether def may appear as a params property.
func paramKindOK(def *Definition) bool {
	switch def.Kind {
	case KindBoolean, KindInteger, KindString, KindUnknown:
		return true
	case KindArray:
		if def.Items == nil {
			return false
		}
		switch def.Items.Kind {
		case KindBoolean, KindInteger, KindString, KindUnknown:
			return true
		}
	}
	return false
}

// resolveTarget resolves a ref target string as authored.
func (b *builder) resolveTarget(doc *Document, path, target string) (handle, error) {
	tid, err := ResolveRef(doc.ID, target)
	if err != nil {
		return noHandle, buildErr(string(doc.ID), path, ErrUnresolvedRef, "%q: %v", target, err)
	}
	return b.resolveTypeID(doc, path, tid)
}

// resolveTypeID returns the handle for tid, admitting the target document
// through the resolver when it is not yet part of the build.
func (b *builder) resolveTypeID(doc *Document, path string, tid TypeID) (handle, error) {
	if h, ok := b.byID[tid]; ok {
		return h, nil
	}
	if _, ok := b.docs[tid.NSID]; ok {
		return noHandle, buildErr(string(doc.ID), path, ErrUnresolvedRef, "%s has no definition %q", tid.NSID, tid.DefName())
	}
	if b.opts.Resolver == nil {
		return noHandle, buildErr(string(doc.ID), path, ErrUnresolvedRef, "%s: no resolver for cross-document refs", tid)
	}
	ext, err := b.opts.Resolver.ResolveLexicon(string(tid.NSID))
	if err != nil {
		return noHandle, &BuildError{ID: string(doc.ID), Def: path, Err: fmt.Errorf("resolve %s: %w", tid.NSID, err)}
	}
	if ext == nil || ext.ID != tid.NSID {
		got := "nothing"
		if ext != nil {
			got = string(ext.ID)
		}
		return noHandle, buildErr(string(doc.ID), path, ErrUnresolvedRef, "resolver returned %s for %s", got, tid.NSID)
	}
	if err := b.addDocument(ext); err != nil {
		return noHandle, err
	}
	if err := b.fillDocument(ext); err != nil {
		return noHandle, err
	}
	if h, ok := b.byID[tid]; ok {
		return h, nil
	}
	return noHandle, buildErr(string(doc.ID), path, ErrUnresolvedRef, "%s has no definition %q", tid.NSID, tid.DefName())
}

// parseKeyStrategy parses a record's key strategy string.
func parseKeyStrategy(s string) (keyKind, string, error) {
	if lit, ok := strings.CutPrefix(s, "literal:"); ok {
		if _, err := syntax.ParseRecordKey(lit); err != nil {
			return 0, "", fmt.Errorf("%w: literal %q: %v", ErrBadKeyStrategy, lit, err)
		}
		return keyLiteral, lit, nil
	}
	switch s {
	case "tid":
		return keyTID, "", nil
	case "any":
		return keyAny, "", nil
	case "nsid":
		return keyNSID, "", nil
	}
	return 0, "", fmt.Errorf("%w: %q", ErrBadKeyStrategy, s)
}

// checkCycles rejects reference cycles in which every edge is hard: a
// required non-nullable property, a ref target, a union member, or a record
// payload. An array hop or an optional/nullable property admits finite
// instances and breaks the cycle.
func (b *builder) checkCycles() error {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(b.nodes))
	var chain []handle
	var visit func(h handle) error
	visit = func(h handle) error {
		switch color[h] {
		case black:
			return nil
		case grey:
			return b.cycleError(chain, h)
		}
		color[h] = grey
		chain = append(chain, h)
		for _, e := range b.hardEdges(h) {
			if err := visit(e); err != nil {
				return err
			}
		}
		chain = chain[:len(chain)-1]
		color[h] = black
		return nil
	}
	for h := range b.nodes {
		if err := visit(handle(h)); err != nil {
			return err
		}
	}
	return nil
}

// hardEdges returns the edges that force a sub-instance to exist whenever an
// instance of h exists.
func (b *builder) hardEdges(h handle) []handle {
	n := &b.nodes[h]
	switch n.kind {
	case KindObject, KindParams:
		var out []handle
		for _, p := range n.props {
			if p.required && !p.nullable {
				out = append(out, p.h)
			}
		}
		return out
	case KindRef:
		return []handle{n.target}
	case KindUnion:
		return n.members
	case KindRecord:
		return []handle{n.payload}
	case KindQuery, KindProcedure:
		out := make([]handle, 0, 3)
		for _, e := range []handle{n.params, n.input, n.output} {
			if e != noHandle {
				out = append(out, e)
			}
		}
		return out
	}
	return nil
}

func (b *builder) cycleError(chain []handle, at handle) error {
	start := 0
	for i, h := range chain {
		if h == at {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(chain)-start+1)
	for _, h := range chain[start:] {
		parts = append(parts, b.nodeRef(h))
	}
	parts = append(parts, b.nodeRef(at))
	n := &b.nodes[at]
	return buildErr(string(n.id.NSID), n.path, ErrCycle, "%s", strings.Join(parts, " -> "))
}

// nodeRef names a node for diagnostics.
func (b *builder) nodeRef(h handle) string {
	n := &b.nodes[h]
	if n.path == n.id.DefName() {
		return n.id.String()
	}
	return n.id.String() + "/" + n.path
}
