// Package cache implements the multi-source data cache backing the resolver
// and every UI call-site.
//
// It maintains a family of per-(source, scope) stores with independent
// freshness policies, secondary indexes for bulk invalidation, LRU-style
// eviction, and persistence to a single on-disk artifact.
package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/kiroku-media/kiroku/media"
)

// Descriptor is a structured lookup key: an unordered mapping of named
// fields to scalar values. Two descriptors that are equal as mappings
// (after nil is coerced to the empty string) always canonicalize to the
// same string, regardless of construction order.
type Descriptor map[string]any

// Reserved descriptor field names recognized by the codec and the indexes.
const (
	FieldScope  = "__scope"
	FieldType   = "__type"
	FieldID     = "__id"
	FieldSource = "__source"
)

// scopeSources is the prefix alphabet recognized when parsing composite
// scope names. It extends the provider alphabet with the enrichment-only
// imdb details store. Prefixes outside this set are treated as part of a
// bare scope name, so user-defined scopes containing colons never collapse
// into a provider namespace by accident.
var scopeSources = map[string]struct{}{
	string(media.SourceAnilist): {},
	string(media.SourceMal):     {},
	string(media.SourceSimkl):   {},
	"imdb":                      {},
}

// Key canonicalizes an arbitrary lookup input into a stable string key.
// Strings pass through verbatim, other scalars are stringified, and
// descriptors are emitted as a sorted URL-query encoding. Canonicalization
// is pure and total; it never fails.
func Key(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case Descriptor:
		return canonicalize(v)
	case map[string]any:
		return canonicalize(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StructuredKey builds a canonical key from the reserved scope/type/id
// triple plus optional metadata fields.
func StructuredKey(scope, typ string, id any, meta Descriptor) string {
	desc := Descriptor{
		FieldScope: scope,
		FieldType:  typ,
		FieldID:    fmt.Sprint(id),
	}
	for name, value := range meta {
		desc[name] = value
	}
	return canonicalize(desc)
}

// canonicalize sorts field names ascending, coerces nil to the empty
// string, and emits the deterministic textual mapping.
func canonicalize(desc map[string]any) string {
	names := make([]string, 0, len(desc))
	for name := range desc {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(scalar(desc[name])))
	}
	return b.String()
}

// scalar stringifies a descriptor field value, mapping nil to "".
func scalar(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// ParseDescriptor attempts to read a canonical key back into its fields.
// Keys that were not produced from a descriptor report ok=false; callers
// treat those as opaque and skip secondary indexing.
func ParseDescriptor(key string) (url.Values, bool) {
	if !strings.ContainsRune(key, '=') {
		return nil, false
	}
	values, err := url.ParseQuery(key)
	if err != nil {
		return nil, false
	}
	return values, true
}

// CompositeScope namespaces a scope by a provider source. An empty source
// yields the bare scope unchanged.
func CompositeScope(scope, source string) string {
	if source == "" {
		return scope
	}
	return source + ":" + scope
}

// ParseCompositeScope splits a store name into its base scope and source.
// Only prefixes in the configured source alphabet are recognized; anything
// else is returned as a bare scope.
func ParseCompositeScope(name string) (scope, source string) {
	prefix, rest, found := strings.Cut(name, ":")
	if !found {
		return name, ""
	}
	if _, known := scopeSources[prefix]; !known {
		return name, ""
	}
	return rest, prefix
}
