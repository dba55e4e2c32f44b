package lexicon

// Package lexicon provides:
//
// - Parsing and structural validation of lexicon schema documents (ParseDocument)
// - Compilation of document sets into an immutable, ref-resolved Graph (BuildGraph)
// - Record, value, and query/procedure parameter validation with canonicalizing normalization
// - A stable data-error model via Issues (JSON Pointer, code, message), kept strictly
//   apart from schema-authoring errors (BuildError wrapping sentinel categories)
//
// Design policy:
// - Keep the engine's public API in the root package; identifier syntax lives under
//   syntax/, filesystem loading under catalog/, messages under i18n/, the CLI under
//   cmd/lexicon.
// - Schemas are data. Documents arrive as JSON (or YAML through the catalog), never
//   as Go code, and compile into a graph that is immutable afterwards.
// - Validation is exhaustive by default; WithFailFast(ctx, true) stops at the first issue.
//
// Typical usage:
//
//  doc, err := lexicon.ParseDocument(schemaJSON)
//  g, err := lexicon.BuildGraph([]*lexicon.Document{doc}, lexicon.BuildOptions{})
//
//  out, err := g.ValidateRecord(ctx, "app.example.feed.post", record)
//  if iss, ok := lexicon.AsIssues(err); ok {
//      // iss is ordered; each Issue carries Path, Code, Message.
//  }
