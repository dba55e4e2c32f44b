// Package catalog loads lexicon documents from a filesystem tree and serves
// them to the schema graph builder. A catalog implements lexicon.Resolver, so
// cross-document refs can resolve straight out of the loaded set.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/atprose/lexicon"
)

// loadLimit bounds concurrent file parses during Load.
const loadLimit = 8

// Catalog is a set of lexicon documents indexed by id. Load may be called
// more than once; the loaded set only grows, and a document id never changes
// meaning once admitted.
type Catalog struct {
	mu   sync.Mutex
	docs map[string]*lexicon.Document
	from map[string]string // id -> file that declared it
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		docs: make(map[string]*lexicon.Document),
		from: make(map[string]string),
	}
}

// Load walks fsys for .json, .yaml, and .yml lexicon files and parses them
// concurrently. Per-file failures are aggregated: one malformed file does not
// hide the others. On any failure nothing is admitted, so a catalog never
// holds half a tree.
func (c *Catalog) Load(ctx context.Context, fsys fs.FS) error {
	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: walk: %w", err)
	}
	sort.Strings(paths)

	parsed := make([][]*lexicon.Document, len(paths))
	fileErrs := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadLimit)
	for i, p := range paths {
		i, p := i, p // per-iteration copies; required before Go 1.22 loopvar semantics
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				fileErrs[i] = err // fs errors already name the path
				return nil
			}
			docs, err := parseFile(p, data)
			if err != nil {
				fileErrs[i] = fmt.Errorf("%s: %w", p, err)
				return nil
			}
			parsed[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var errs error
	staged := make(map[string]string, len(paths))
	for i, docs := range parsed {
		if fileErrs[i] != nil {
			errs = multierr.Append(errs, fileErrs[i])
			continue
		}
		for _, doc := range docs {
			id := string(doc.ID)
			prev, dup := c.from[id]
			if !dup {
				prev, dup = staged[id]
			}
			if dup {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w: %s already loaded from %s", paths[i], lexicon.ErrDuplicateDefinition, id, prev))
				continue
			}
			staged[id] = paths[i]
		}
	}
	if errs != nil {
		return errs
	}
	for i, docs := range parsed {
		for _, doc := range docs {
			c.docs[string(doc.ID)] = doc
			c.from[string(doc.ID)] = paths[i]
		}
	}
	return nil
}

// parseFile decodes one file into documents. JSON files hold exactly one
// document; YAML files may hold a multi-document stream.
func parseFile(name string, data []byte) ([]*lexicon.Document, error) {
	if strings.ToLower(path.Ext(name)) == ".json" {
		doc, err := lexicon.ParseDocument(data)
		if err != nil {
			return nil, err
		}
		return []*lexicon.Document{doc}, nil
	}
	return parseYAML(data)
}

// Document returns the loaded document with the given id.
func (c *Catalog) Document(id string) (*lexicon.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lexicon.ErrNotFound, id)
	}
	return doc, nil
}

// ResolveLexicon implements lexicon.Resolver.
func (c *Catalog) ResolveLexicon(id string) (*lexicon.Document, error) {
	return c.Document(id)
}

// Graph builds one schema graph over every loaded document. Unless opts
// names another resolver, the catalog serves as its own.
func (c *Catalog) Graph(opts lexicon.BuildOptions) (*lexicon.Graph, error) {
	if opts.Resolver == nil {
		opts.Resolver = c
	}
	c.mu.Lock()
	docs := make([]*lexicon.Document, 0, len(c.docs))
	for _, doc := range c.docs {
		docs = append(docs, doc)
	}
	c.mu.Unlock()
	return lexicon.BuildGraph(docs, opts)
}

// IDs returns the loaded document ids in sorted order.
func (c *Catalog) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
