// Package syntax validates and normalizes the protocol's primitive
// identifier strings: DIDs, handles, NSIDs, TIDs, record keys, AT-URIs,
// content identifiers, language tags and RFC3339 timestamps.
//
// Every Parse function is pure: it returns either the canonical form of its
// input or an error wrapping the package sentinel for that identifier family.
// Canonical forms are deterministic and idempotent: parsing a canonical form
// yields it unchanged.
package syntax
