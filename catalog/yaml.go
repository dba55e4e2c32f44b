package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/atprose/lexicon"
)

// parseYAML decodes a YAML stream into lexicon documents. Every document in
// the stream is normalized to JSON-shaped maps and re-encoded through the
// shared JSON path, so YAML catalogs get the same version and syntax checks
// as JSON ones.
func parseYAML(data []byte) ([]*lexicon.Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []*lexicon.Document
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("yaml: %w", err)
		}
		if node == nil {
			continue
		}
		m := yamlStringMap(node)
		if m == nil {
			return nil, fmt.Errorf("yaml: document root is not a mapping")
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("yaml: re-encode: %w", err)
		}
		doc, err := lexicon.ParseDocument(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// yamlStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlValue(t[i])
		}
		return arr
	default:
		return v
	}
}
