package lexicon

import (
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func mustParseDoc(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestParseDocument_Minimal(t *testing.T) {
	doc := mustParseDoc(t, `{"lexicon": 1, "id": "com.example.post", "defs": {}}`)
	if doc.Lexicon != 1 {
		t.Errorf("Lexicon = %d, want 1", doc.Lexicon)
	}
	if string(doc.ID) != "com.example.post" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.Defs == nil || len(doc.Defs) != 0 {
		t.Errorf("Defs = %v, want empty non-nil map", doc.Defs)
	}
}

func TestParseDocument_VersionDefaultsToOne(t *testing.T) {
	doc := mustParseDoc(t, `{"id": "com.example.post"}`)
	if doc.Lexicon != 1 {
		t.Errorf("Lexicon = %d, want 1 when absent", doc.Lexicon)
	}
}

func TestParseDocument_BadVersion(t *testing.T) {
	_, err := ParseDocument([]byte(`{"lexicon": 2, "id": "com.example.post", "defs": {}}`))
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("err = %T, want *BuildError", err)
	}
	if be.ID != "com.example.post" {
		t.Errorf("BuildError.ID = %q", be.ID)
	}
}

func TestParseDocument_BadID(t *testing.T) {
	var be *BuildError
	_, err := ParseDocument([]byte(`{"lexicon": 1, "id": "nope", "defs": {}}`))
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BuildError", err)
	}
	if be.ID != "nope" {
		t.Errorf("BuildError.ID = %q, want the raw id", be.ID)
	}

	if _, err := ParseDocument([]byte(`{"lexicon": 1, "defs": {}}`)); err == nil {
		t.Error("missing id: want error")
	}
}

func TestParseDocument_DuplicateKeys(t *testing.T) {
	src := `{
		"lexicon": 1,
		"id": "com.example.post",
		"defs": {
			"main": {"type": "token", "type": "string"}
		}
	}`
	_, err := ParseDocument([]byte(src))
	if !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("err = %v, want ErrDuplicateDefinition", err)
	}
	if !strings.Contains(err.Error(), `"type"`) || !strings.Contains(err.Error(), "/defs/main") {
		t.Errorf("err = %q, want offending key and path", err)
	}
}

func TestParseDocument_DuplicateKeysInArrayElement(t *testing.T) {
	src := `{
		"lexicon": 1,
		"id": "com.example.proc",
		"defs": {
			"main": {
				"type": "procedure",
				"errors": [{"name": "A", "name": "B"}]
			}
		}
	}`
	_, err := ParseDocument([]byte(src))
	if !errors.Is(err, ErrDuplicateDefinition) {
		t.Fatalf("err = %v, want ErrDuplicateDefinition", err)
	}
	if !strings.Contains(err.Error(), "/defs/main/errors/0") {
		t.Errorf("err = %q, want array index in path", err)
	}
}

func TestParseDocument_TrailingData(t *testing.T) {
	_, err := ParseDocument([]byte(`{"lexicon": 1, "id": "com.example.post", "defs": {}} {}`))
	if err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("err = %v, want trailing data error", err)
	}
}

func TestParseDocument_RevisionAndDescription(t *testing.T) {
	doc := mustParseDoc(t, `{
		"lexicon": 1,
		"id": "com.example.post",
		"revision": 3,
		"description": "a post",
		"defs": {}
	}`)
	if doc.Revision != 3 {
		t.Errorf("Revision = %d, want 3", doc.Revision)
	}
	if doc.Description != "a post" {
		t.Errorf("Description = %q", doc.Description)
	}
}

func TestParseDocument_FullRecord(t *testing.T) {
	doc := mustParseDoc(t, `{
		"lexicon": 1,
		"id": "com.example.post",
		"defs": {
			"main": {
				"type": "record",
				"key": "tid",
				"record": {
					"type": "object",
					"required": ["text"],
					"nullable": ["via"],
					"properties": {
						"text": {"type": "string", "maxLength": 3000, "maxGraphemes": 300},
						"via": {"type": "string", "format": "at-uri"},
						"tags": {"type": "array", "items": {"type": "string"}, "maxLength": 8}
					}
				}
			},
			"flag": {"type": "token", "description": "marker"}
		}
	}`)

	main := doc.Defs["main"]
	if main == nil || main.Kind != KindRecord {
		t.Fatalf("main = %+v, want record", main)
	}
	if main.Key != "tid" {
		t.Errorf("Key = %q", main.Key)
	}
	payload := main.Record
	if payload == nil || payload.Kind != KindObject {
		t.Fatalf("payload = %+v, want object", payload)
	}
	if len(payload.Required) != 1 || payload.Required[0] != "text" {
		t.Errorf("Required = %v", payload.Required)
	}
	if len(payload.Nullable) != 1 || payload.Nullable[0] != "via" {
		t.Errorf("Nullable = %v", payload.Nullable)
	}
	text := payload.Properties["text"]
	if text == nil || text.Kind != KindString {
		t.Fatalf("text = %+v", text)
	}
	if text.MaxLength == nil || *text.MaxLength != 3000 {
		t.Errorf("text.MaxLength = %v", text.MaxLength)
	}
	if text.MaxGraphemes == nil || *text.MaxGraphemes != 300 {
		t.Errorf("text.MaxGraphemes = %v", text.MaxGraphemes)
	}
	tags := payload.Properties["tags"]
	if tags == nil || tags.Kind != KindArray || tags.Items == nil || tags.Items.Kind != KindString {
		t.Fatalf("tags = %+v", tags)
	}
	if doc.Defs["flag"].Kind != KindToken {
		t.Errorf("flag kind = %q", doc.Defs["flag"].Kind)
	}
}

func TestParseDocument_QueryAndProcedure(t *testing.T) {
	doc := mustParseDoc(t, `{
		"lexicon": 1,
		"id": "com.example.getPost",
		"defs": {
			"main": {
				"type": "query",
				"parameters": {
					"type": "params",
					"required": ["uri"],
					"properties": {
						"uri": {"type": "string", "format": "at-uri"},
						"limit": {"type": "integer", "minimum": 1, "maximum": 100}
					}
				},
				"output": {
					"encoding": "application/json",
					"schema": {"type": "ref", "ref": "#post"}
				},
				"errors": [{"name": "NotFound", "description": "no such post"}]
			},
			"post": {"type": "object", "properties": {"text": {"type": "string"}}}
		}
	}`)

	main := doc.Defs["main"]
	if main.Kind != KindQuery {
		t.Fatalf("kind = %q", main.Kind)
	}
	if main.Parameters == nil || main.Parameters.Kind != KindParams {
		t.Fatalf("parameters = %+v", main.Parameters)
	}
	if main.Output == nil || main.Output.Encoding != "application/json" {
		t.Fatalf("output = %+v", main.Output)
	}
	if main.Output.Schema == nil || main.Output.Schema.Ref != "#post" {
		t.Errorf("output schema = %+v", main.Output.Schema)
	}
	if len(main.Errors) != 1 || main.Errors[0].Name != "NotFound" {
		t.Errorf("errors = %+v", main.Errors)
	}
}

func TestDefinition_UnmarshalRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing type", `{"id": "com.example.x", "defs": {"main": {"key": "tid"}}}`},
		{"unknown type", `{"id": "com.example.x", "defs": {"main": {"type": "matrix"}}}`},
		{"record without key", `{"id": "com.example.x", "defs": {"main": {"type": "record", "record": {"type": "object"}}}}`},
		{"record without payload", `{"id": "com.example.x", "defs": {"main": {"type": "record", "key": "tid"}}}`},
		{"array without items", `{"id": "com.example.x", "defs": {"main": {"type": "array"}}}`},
		{"ref without target", `{"id": "com.example.x", "defs": {"main": {"type": "ref"}}}`},
		{"enum type mismatch", `{"id": "com.example.x", "defs": {"main": {"type": "string", "enum": [1, 2]}}}`},
		{"const type mismatch", `{"id": "com.example.x", "defs": {"main": {"type": "integer", "const": "five"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDocument([]byte(tc.src)); err == nil {
				t.Errorf("want error for %s", tc.name)
			}
		})
	}
}

func TestDefinition_UnknownKindError(t *testing.T) {
	_, err := ParseDocument([]byte(`{"id": "com.example.x", "defs": {"main": {"type": "matrix"}}}`))
	if !errors.Is(err, ErrUnsupportedDefinition) {
		t.Fatalf("err = %v, want ErrUnsupportedDefinition", err)
	}
}

func TestDefinition_ConstraintParsing(t *testing.T) {
	doc := mustParseDoc(t, `{
		"lexicon": 1,
		"id": "com.example.kinds",
		"defs": {
			"level": {"type": "integer", "enum": [1, 2, 3], "default": 1},
			"mood": {"type": "string", "knownValues": ["happy", "sad"], "default": "happy"},
			"version": {"type": "string", "const": "v1"},
			"pinned": {"type": "boolean", "const": true},
			"payload": {"type": "bytes", "maxLength": 64},
			"avatar": {"type": "blob", "accept": ["image/png", "image/*"], "maxSize": 1000000},
			"strict": {"type": "object", "closed": true, "properties": {}}
		}
	}`)

	level := doc.Defs["level"]
	if len(level.IntEnum) != 3 || level.IntEnum[0] != 1 {
		t.Errorf("IntEnum = %v", level.IntEnum)
	}
	if level.IntDefault == nil || *level.IntDefault != 1 {
		t.Errorf("IntDefault = %v", level.IntDefault)
	}
	mood := doc.Defs["mood"]
	if len(mood.KnownValues) != 2 {
		t.Errorf("KnownValues = %v", mood.KnownValues)
	}
	if mood.Default == nil || *mood.Default != "happy" {
		t.Errorf("Default = %v", mood.Default)
	}
	if v := doc.Defs["version"]; v.Const == nil || *v.Const != "v1" {
		t.Errorf("Const = %v", v.Const)
	}
	if p := doc.Defs["pinned"]; p.BoolConst == nil || !*p.BoolConst {
		t.Errorf("BoolConst = %v", p.BoolConst)
	}
	if b := doc.Defs["payload"]; b.MaxLength == nil || *b.MaxLength != 64 {
		t.Errorf("bytes MaxLength = %v", b.MaxLength)
	}
	avatar := doc.Defs["avatar"]
	if len(avatar.Accept) != 2 || avatar.MaxSize == nil || *avatar.MaxSize != 1000000 {
		t.Errorf("avatar = %+v", avatar)
	}
	if !doc.Defs["strict"].Closed {
		t.Error("strict.Closed = false, want true")
	}
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte(`{"n": 9007199254740993, "langs": ["en", "ja"]}`))
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("DecodeValue = %T, want map[string]any", v)
	}
	n, ok := m["n"].(json.Number)
	if !ok {
		t.Fatalf("n decoded as %T, want json.Number", m["n"])
	}
	if n.String() != "9007199254740993" {
		t.Errorf("n = %s, lost precision", n)
	}
}

func TestDecodeValue_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
		code string
	}{
		{"malformed", `{"text": `, CodeParseError},
		{"trailing data", `{"a": 1} true`, CodeParseError},
		{"duplicate key", `{"a": 1, "a": 2}`, CodeDuplicateKey},
		{"nested duplicate key", `{"embed": {"uri": "x", "uri": "y"}}`, CodeDuplicateKey},
	}
	for _, tc := range cases {
		_, err := DecodeValue([]byte(tc.in))
		iss, ok := AsIssues(err)
		if !ok {
			t.Fatalf("%s: err = %v, want Issues", tc.name, err)
		}
		if len(iss) != 1 {
			t.Fatalf("%s: got %d issues, want 1: %v", tc.name, len(iss), iss)
		}
		if iss[0].Code != tc.code || iss[0].Path != "/" {
			t.Errorf("%s: issue = %s at %s, want %s at /", tc.name, iss[0].Code, iss[0].Path, tc.code)
		}
	}
	_, err := DecodeValue([]byte(`{"a": 1, "a": 2}`))
	if iss, _ := AsIssues(err); !errors.Is(iss[0].Cause, ErrDuplicateDefinition) {
		t.Errorf("duplicate key cause = %v, want ErrDuplicateDefinition", iss[0].Cause)
	}
}

func TestDocument_DefNames(t *testing.T) {
	doc := mustParseDoc(t, `{
		"lexicon": 1,
		"id": "com.example.defs",
		"defs": {
			"zeta": {"type": "token"},
			"alpha": {"type": "token"},
			"main": {"type": "object", "properties": {}}
		}
	}`)
	names := doc.DefNames()
	want := []string{"alpha", "main", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("DefNames = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("DefNames = %v, want %v", names, want)
		}
	}
}
