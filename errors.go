package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType          = "invalid_type"
	CodeRequired             = "required"
	CodeUnknownKey           = "unknown_key"
	CodeDuplicateKey         = "duplicate_key"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodeTooFewGraphemes      = "too_few_graphemes"
	CodeTooManyGraphemes     = "too_many_graphemes"
	CodeTooFewItems          = "too_few_items"
	CodeTooManyItems         = "too_many_items"
	CodeOutOfRange           = "out_of_range"
	CodeInvalidEnum          = "invalid_enum"
	CodeConstMismatch        = "const_mismatch"
	CodeInvalidFormat        = "invalid_format"
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeTokenMismatch        = "token_mismatch"
	CodeBlobTooLarge         = "blob_too_large"
	CodeMimeNotAllowed       = "mime_not_allowed"
	CodeInvalidKey           = "invalid_key"
	CodeParseError           = "parse_error"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /body/languages/0).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: format names, offending keys, etc.
	Cause   error  // Optional: underlying error.
}

// Issues is a collection of validation errors that implements error.
// A non-nil error returned by a validation entry point is always Issues;
// schema-authoring mistakes surface as *BuildError instead, and the two
// families never mix.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_format at /body/languages/0
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Build error categories. A *BuildError wraps exactly one of these so callers
// can branch with errors.Is.
var (
	ErrBadVersion            = errors.New("unsupported lexicon version")
	ErrDuplicateDefinition   = errors.New("duplicate definition")
	ErrUnresolvedRef         = errors.New("unresolved reference")
	ErrUnknownFormat         = errors.New("unknown format")
	ErrCycle                 = errors.New("unconditional reference cycle")
	ErrBadKeyStrategy        = errors.New("unsupported record key strategy")
	ErrNotFound              = errors.New("lexicon not found")
	ErrNotARecord            = errors.New("definition is not a record")
	ErrUnsupportedDefinition = errors.New("unsupported definition kind")
)

// BuildError reports a schema-authoring mistake found while building a graph.
// It is always fatal: a graph is never partially usable.
type BuildError struct {
	ID  string // document id, when known
	Def string // definition name or path within the document
	Err error  // one of the Err* categories above, possibly wrapped further
}

func (e *BuildError) Error() string {
	switch {
	case e.ID != "" && e.Def != "":
		return fmt.Sprintf("lexicon %s#%s: %v", e.ID, e.Def, e.Err)
	case e.ID != "":
		return fmt.Sprintf("lexicon %s: %v", e.ID, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(id, def string, category error, format string, a ...any) *BuildError {
	if format == "" {
		return &BuildError{ID: id, Def: def, Err: category}
	}
	return &BuildError{ID: id, Def: def, Err: fmt.Errorf("%w: "+format, append([]any{category}, a...)...)}
}
