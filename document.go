package lexicon

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/atprose/lexicon/syntax"
)

// Kind tags a Definition with its schema family. The set is closed: the
// graph builder and the value validator switch over it exhaustively.
type Kind string

const (
	KindRecord    Kind = "record"
	KindQuery     Kind = "query"
	KindProcedure Kind = "procedure"
	KindParams    Kind = "params"
	KindObject    Kind = "object"
	KindArray     Kind = "array"
	KindString    Kind = "string"
	KindInteger   Kind = "integer"
	KindBoolean   Kind = "boolean"
	KindBytes     Kind = "bytes"
	KindBlob      Kind = "blob"
	KindCidLink   Kind = "cid-link"
	KindNull      Kind = "null"
	KindRef       Kind = "ref"
	KindUnion     Kind = "union"
	KindUnknown   Kind = "unknown"
	KindToken     Kind = "token"
)

// Document is one parsed lexicon file: a format version, the NSID the file
// publishes definitions under, and the definitions themselves.
type Document struct {
	Lexicon     int
	ID          syntax.NSID
	Revision    int
	Description string
	Defs        map[string]*Definition
}

// DefNames returns the document's definition names in sorted order.
func (d *Document) DefNames() []string {
	names := make([]string, 0, len(d.Defs))
	for name := range d.Defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition is one schema node as authored: a tagged union over Kind, with
// only the constraint fields of that kind populated. Bound fields are
// pointers so that "absent" and "zero" stay distinguishable.
type Definition struct {
	Kind        Kind
	Description string

	// record
	Key    string // key strategy: tid | literal:<value> | any | nsid
	Record *Definition

	// query / procedure
	Parameters *Definition
	Input      *Body
	Output     *Body
	Errors     []Notice

	// object / params
	Properties map[string]*Definition
	Required   []string
	Nullable   []string

	// array
	Items *Definition

	// MinLength/MaxLength bound bytes for string and bytes definitions and
	// item counts for arrays.
	MinLength *int
	MaxLength *int

	// string
	MinGraphemes *int
	MaxGraphemes *int
	Format       string
	Enum         []string
	KnownValues  []string
	Const        *string
	Default      *string

	// integer
	Minimum    *int64
	Maximum    *int64
	IntEnum    []int64
	IntConst   *int64
	IntDefault *int64

	// boolean
	BoolConst   *bool
	BoolDefault *bool

	// blob
	Accept  []string
	MaxSize *int64

	// ref / union
	Ref    string
	Refs   []string
	Closed bool
}

// Body is the input or output schema of a query or procedure.
type Body struct {
	Description string      `json:"description,omitempty"`
	Encoding    string      `json:"encoding"`
	Schema      *Definition `json:"schema,omitempty"`
}

// Notice names an error condition a query or procedure may return.
type Notice struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type defWire struct {
	Type         string                 `json:"type"`
	Description  string                 `json:"description"`
	Key          string                 `json:"key"`
	Record       *Definition            `json:"record"`
	Parameters   *Definition            `json:"parameters"`
	Input        *Body                  `json:"input"`
	Output       *Body                  `json:"output"`
	Errors       []Notice               `json:"errors"`
	Properties   map[string]*Definition `json:"properties"`
	Required     []string               `json:"required"`
	Nullable     []string               `json:"nullable"`
	Items        *Definition            `json:"items"`
	MinLength    *int                   `json:"minLength"`
	MaxLength    *int                   `json:"maxLength"`
	MinGraphemes *int                   `json:"minGraphemes"`
	MaxGraphemes *int                   `json:"maxGraphemes"`
	Format       string                 `json:"format"`
	KnownValues  []string               `json:"knownValues"`
	Enum         json.RawMessage        `json:"enum"`
	Const        json.RawMessage        `json:"const"`
	Default      json.RawMessage        `json:"default"`
	Minimum      *int64                 `json:"minimum"`
	Maximum      *int64                 `json:"maximum"`
	Accept       []string               `json:"accept"`
	MaxSize      *int64                 `json:"maxSize"`
	Ref          string                 `json:"ref"`
	Refs         []string               `json:"refs"`
	Closed       *bool                  `json:"closed"`
}

// rawAs decodes an optional raw fragment into T; absence yields nil.
func rawAs[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UnmarshalJSON probes the "type" tag and keeps only the fields that kind
// declares, so a stray constraint on the wrong kind is dropped rather than
// smuggled into validation.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var w defWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.Kind = Kind(w.Type)
	d.Description = w.Description

	var err error
	switch d.Kind {
	case KindRecord:
		if w.Key == "" {
			return fmt.Errorf("record definition requires a key strategy")
		}
		if w.Record == nil {
			return fmt.Errorf("record definition requires a record payload")
		}
		d.Key = w.Key
		d.Record = w.Record
	case KindQuery:
		d.Parameters = w.Parameters
		d.Output = w.Output
		d.Errors = w.Errors
	case KindProcedure:
		d.Parameters = w.Parameters
		d.Input = w.Input
		d.Output = w.Output
		d.Errors = w.Errors
	case KindParams, KindObject:
		d.Properties = w.Properties
		d.Required = w.Required
		d.Nullable = w.Nullable
		d.Closed = w.Closed != nil && *w.Closed
	case KindArray:
		if w.Items == nil {
			return fmt.Errorf("array definition requires items")
		}
		d.Items = w.Items
		d.MinLength = w.MinLength
		d.MaxLength = w.MaxLength
	case KindString:
		d.Format = w.Format
		d.MinLength = w.MinLength
		d.MaxLength = w.MaxLength
		d.MinGraphemes = w.MinGraphemes
		d.MaxGraphemes = w.MaxGraphemes
		d.KnownValues = w.KnownValues
		var enum *[]string
		if enum, err = rawAs[[]string](w.Enum); err != nil {
			return fmt.Errorf("string enum: %w", err)
		}
		if enum != nil {
			d.Enum = *enum
		}
		if d.Const, err = rawAs[string](w.Const); err != nil {
			return fmt.Errorf("string const: %w", err)
		}
		if d.Default, err = rawAs[string](w.Default); err != nil {
			return fmt.Errorf("string default: %w", err)
		}
	case KindInteger:
		d.Minimum = w.Minimum
		d.Maximum = w.Maximum
		var enum *[]int64
		if enum, err = rawAs[[]int64](w.Enum); err != nil {
			return fmt.Errorf("integer enum: %w", err)
		}
		if enum != nil {
			d.IntEnum = *enum
		}
		if d.IntConst, err = rawAs[int64](w.Const); err != nil {
			return fmt.Errorf("integer const: %w", err)
		}
		if d.IntDefault, err = rawAs[int64](w.Default); err != nil {
			return fmt.Errorf("integer default: %w", err)
		}
	case KindBoolean:
		if d.BoolConst, err = rawAs[bool](w.Const); err != nil {
			return fmt.Errorf("boolean const: %w", err)
		}
		if d.BoolDefault, err = rawAs[bool](w.Default); err != nil {
			return fmt.Errorf("boolean default: %w", err)
		}
	case KindBytes:
		d.MinLength = w.MinLength
		d.MaxLength = w.MaxLength
	case KindBlob:
		d.Accept = w.Accept
		d.MaxSize = w.MaxSize
	case KindRef:
		if w.Ref == "" {
			return fmt.Errorf("ref definition requires a target")
		}
		d.Ref = w.Ref
	case KindUnion:
		d.Refs = w.Refs
		d.Closed = w.Closed != nil && *w.Closed
	case KindToken, KindUnknown, KindNull, KindCidLink:
	case "":
		return fmt.Errorf("definition is missing a type")
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDefinition, w.Type)
	}
	return nil
}

type docWire struct {
	Lexicon     *int                   `json:"lexicon"`
	ID          string                 `json:"id"`
	Revision    *int                   `json:"revision"`
	Description string                 `json:"description"`
	Defs        map[string]*Definition `json:"defs"`
}

// ParseDocument decodes one lexicon document from UTF-8 JSON text. Numbers
// are decoded with full precision, and a duplicated object key anywhere in
// the document is an error: plain decoding would keep the last duplicate and
// hide the authoring mistake.
func ParseDocument(data []byte) (*Document, error) {
	if err := scanDuplicateKeys(data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var w docWire
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("lexicon: decode document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("lexicon: decode document: trailing data after document")
	}
	version := 1 // absent means version 1
	if w.Lexicon != nil {
		version = *w.Lexicon
	}
	if version != 1 {
		return nil, buildErr(w.ID, "", ErrBadVersion, "lexicon %d", version)
	}
	id, err := syntax.ParseNSID(w.ID)
	if err != nil {
		return nil, &BuildError{ID: w.ID, Err: fmt.Errorf("document id: %w", err)}
	}
	doc := &Document{Lexicon: version, ID: id, Description: w.Description, Defs: w.Defs}
	if w.Revision != nil {
		doc.Revision = *w.Revision
	}
	if doc.Defs == nil {
		doc.Defs = map[string]*Definition{}
	}
	return doc, nil
}

// DecodeValue decodes one JSON value the way the validators expect it:
// numbers stay json.Number, and a duplicated object key is rejected rather
// than silently collapsed onto its last occurrence. Failures come back as
// Issues (parse_error, duplicate_key), the same family the validators report,
// because a malformed record is a data problem, not a schema-authoring one.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, Issues{issueCause("/", CodeParseError, "", err)}
	}
	if dec.More() {
		return nil, Issues{issueHint("/", CodeParseError, "trailing data after value")}
	}
	if err := scanDuplicateKeys(data); err != nil {
		return nil, Issues{issueCause("/", CodeDuplicateKey, "", err)}
	}
	return v, nil
}

type scanFrame struct {
	object       bool
	keys         map[string]struct{}
	key          string
	index        int
	expectingKey bool
}

// scanDuplicateKeys walks the raw token stream and reports the first object
// key repeated within a single object, with the path of the enclosing
// object.
func scanDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []scanFrame
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lexicon: scan document: %w", err)
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, scanFrame{object: true, keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, scanFrame{})
			case '}', ']':
				stack = stack[:len(stack)-1]
				scanCloseValue(stack)
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.object && top.expectingKey {
					if _, dup := top.keys[v]; dup {
						return fmt.Errorf("%w: key %q repeated at %s", ErrDuplicateDefinition, v, scanPath(stack))
					}
					top.keys[v] = struct{}{}
					top.key = v
					top.expectingKey = false
					continue
				}
			}
			scanCloseValue(stack)
		default:
			scanCloseValue(stack)
		}
	}
}

// scanCloseValue marks the end of one value inside the innermost frame.
func scanCloseValue(stack []scanFrame) {
	if len(stack) == 0 {
		return
	}
	top := &stack[len(stack)-1]
	if top.object {
		top.expectingKey = true
	} else {
		top.index++
	}
}

// scanPath renders the location of the innermost open object.
func scanPath(stack []scanFrame) string {
	if len(stack) <= 1 {
		return "/"
	}
	var b strings.Builder
	for i := 0; i < len(stack)-1; i++ {
		b.WriteByte('/')
		if stack[i].object {
			b.WriteString(stack[i].key)
		} else {
			b.WriteString(strconv.Itoa(stack[i].index))
		}
	}
	return b.String()
}
