package lexicon

import (
	"strconv"

	"github.com/atprose/lexicon/i18n"
)

// pathField extends a JSON-Pointer style path with an object key.
func pathField(p, name string) string {
	if p == "" || p == "/" {
		return "/" + name
	}
	return p + "/" + name
}

// pathIndex extends a JSON-Pointer style path with an array index.
func pathIndex(p string, i int) string {
	return pathField(p, strconv.Itoa(i))
}

// issueAt creates an Issue at the given path, filling Message from the code's
// catalog entry. Call sites that have something more specific to say build the
// Issue literal instead.
func issueAt(path, code string) Issue {
	return Issue{Path: path, Code: code, Message: i18n.T(code, nil)}
}

// issueHint is issueAt with a short detail string (a bound, an expected value,
// an offending key).
func issueHint(path, code, hint string) Issue {
	iss := issueAt(path, code)
	iss.Hint = hint
	return iss
}

// issueCause is issueHint with the underlying error preserved for errors.Is
// inspection.
func issueCause(path, code, hint string, cause error) Issue {
	iss := issueHint(path, code, hint)
	iss.Cause = cause
	return iss
}
