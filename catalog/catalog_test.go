package catalog

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/atprose/lexicon"
)

var _ lexicon.Resolver = (*Catalog)(nil)

func TestCatalog_LoadTestdata(t *testing.T) {
	c := New()
	if err := c.Load(context.Background(), os.DirFS("testdata")); err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"com.atprose.feed.defs", "com.atprose.feed.like", "dev.atprose.test.post"}
	if diff := cmp.Diff(want, c.IDs()); diff != "" {
		t.Fatalf("IDs (-want +got):\n%s", diff)
	}

	g, err := c.Graph(lexicon.BuildOptions{})
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	like := map[string]any{
		"subject": map[string]any{
			"uri": "at://alice.example.com/dev.atprose.test.post/3kkqvzbva22jz",
			"cid": "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		},
		"createdAt": "2024-02-06T13:20:00Z",
	}
	if _, err := g.ValidateRecord(context.Background(), "com.atprose.feed.like", like); err != nil {
		t.Errorf("ValidateRecord: %v", err)
	}

	doc, err := c.Document("dev.atprose.test.post")
	if err != nil || doc.Defs["body"] == nil {
		t.Errorf("Document: %v, %v", doc, err)
	}
	if _, err := c.Document("dev.atprose.test.missing"); !errors.Is(err, lexicon.ErrNotFound) {
		t.Errorf("missing Document: err = %v, want ErrNotFound", err)
	}
}

func TestCatalog_WalksNestedDirsAndSkipsOtherFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":         {Data: []byte("# not a lexicon")},
		"notes.txt":         {Data: []byte("scratch")},
		"a/deep/doc.json":   {Data: []byte(`{"lexicon": 1, "id": "com.example.deep", "defs": {}}`)},
		"b/another.yml":     {Data: []byte("lexicon: 1\nid: com.example.other\ndefs: {}\n")},
		"b/.hidden/skip.md": {Data: []byte("")},
		"c/upper.JSON":      {Data: []byte(`{"lexicon": 1, "id": "com.example.upper", "defs": {}}`)},
	}
	c := New()
	if err := c.Load(context.Background(), fsys); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"com.example.deep", "com.example.other", "com.example.upper"}
	if diff := cmp.Diff(want, c.IDs()); diff != "" {
		t.Errorf("IDs (-want +got):\n%s", diff)
	}
}

func TestCatalog_AggregatesFailuresAndAdmitsNothing(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.json":   {Data: []byte(`{"lexicon": 1, "id": "com.example.bad"`)},
		"worse.yaml": {Data: []byte("lexicon: 2\nid: com.example.worse\ndefs: {}\n")},
		"good.json":  {Data: []byte(`{"lexicon": 1, "id": "com.example.good", "defs": {}}`)},
	}
	c := New()
	err := c.Load(context.Background(), fsys)
	if err == nil {
		t.Fatal("Load: want error")
	}
	if got := multierr.Errors(err); len(got) != 2 {
		t.Errorf("multierr.Errors = %d (%v), want 2", len(got), err)
	}
	for _, name := range []string{"bad.json", "worse.yaml"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("err = %q, want %s named", err, name)
		}
	}
	if !errors.Is(err, lexicon.ErrBadVersion) {
		t.Errorf("err = %v, want ErrBadVersion among the causes", err)
	}
	if ids := c.IDs(); len(ids) != 0 {
		t.Errorf("IDs = %v, want nothing admitted after a failed load", ids)
	}
}

func TestCatalog_DuplicateIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"one.json": {Data: []byte(`{"lexicon": 1, "id": "com.example.dup", "defs": {}}`)},
		"two.yaml": {Data: []byte("lexicon: 1\nid: com.example.dup\ndefs: {}\n")},
	}
	c := New()
	err := c.Load(context.Background(), fsys)
	if !errors.Is(err, lexicon.ErrDuplicateDefinition) {
		t.Fatalf("err = %v, want ErrDuplicateDefinition", err)
	}
	if !strings.Contains(err.Error(), "one.json") || !strings.Contains(err.Error(), "two.yaml") {
		t.Errorf("err = %q, want both files named", err)
	}
}

func TestCatalog_DuplicateAcrossLoads(t *testing.T) {
	src := fstest.MapFS{"doc.json": {Data: []byte(`{"lexicon": 1, "id": "com.example.dup", "defs": {}}`)}}
	c := New()
	if err := c.Load(context.Background(), src); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := c.Load(context.Background(), src); !errors.Is(err, lexicon.ErrDuplicateDefinition) {
		t.Fatalf("second Load: err = %v, want ErrDuplicateDefinition", err)
	}
	if got := c.IDs(); len(got) != 1 {
		t.Errorf("IDs = %v", got)
	}
}

func TestCatalog_YAMLRejectsDuplicateKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"dup.yaml": {Data: []byte("lexicon: 1\nid: com.example.a\nid: com.example.b\ndefs: {}\n")},
	}
	if err := New().Load(context.Background(), fsys); err == nil {
		t.Fatal("Load: want error for duplicated YAML key")
	}
}

func TestCatalog_YAMLRootMustBeMapping(t *testing.T) {
	fsys := fstest.MapFS{"list.yaml": {Data: []byte("- just\n- a\n- list\n")}}
	err := New().Load(context.Background(), fsys)
	if err == nil || !strings.Contains(err.Error(), "mapping") {
		t.Fatalf("err = %v, want mapping complaint", err)
	}
}

func TestCatalog_GraphUsesCatalogAsResolver(t *testing.T) {
	// Only the referencing document is loaded up front; the target comes out
	// of a second catalog acting as the resolver.
	registry := New()
	if err := registry.Load(context.Background(), fstest.MapFS{
		"defs.json": {Data: []byte(`{"lexicon": 1, "id": "com.example.defs", "defs": {"thing": {"type": "string"}}}`)},
	}); err != nil {
		t.Fatalf("registry Load: %v", err)
	}

	local := New()
	if err := local.Load(context.Background(), fstest.MapFS{
		"user.json": {Data: []byte(`{"lexicon": 1, "id": "com.example.user", "defs": {"main": {"type": "object", "properties": {"x": {"type": "ref", "ref": "com.example.defs#thing"}}}}}`)},
	}); err != nil {
		t.Fatalf("local Load: %v", err)
	}

	g, err := local.Graph(lexicon.BuildOptions{Resolver: registry})
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if _, err := g.Validate(context.Background(), "com.example.defs#thing", "ok"); err != nil {
		t.Errorf("Validate through resolver-admitted doc: %v", err)
	}
}

func TestCatalog_LoadCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fsys := fstest.MapFS{"doc.json": {Data: []byte(`{"lexicon": 1, "id": "com.example.a", "defs": {}}`)}}
	if err := New().Load(ctx, fsys); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
