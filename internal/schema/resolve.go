// Package schema walks raw schema nodes inside a loaded document: it resolves
// local $ref pointers and synthesizes representative example values.
package schema

import (
	"strings"

	"github.com/mark3labs/openapi-actions/internal/document"
	"github.com/mark3labs/openapi-actions/internal/fault"
)

// Resolve follows a local same-document pointer (e.g. "#/components/schemas/Pet")
// and returns the referenced node. Pointers that do not start with "#/" are
// unsupported; a missing path segment is a broken reference.
func Resolve(doc document.Tree, ref string) (map[string]any, error) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, fault.New(fault.Reference, "unsupported reference %q (only local #/ pointers)", ref)
	}
	parts := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	node := any(doc)
	for _, part := range parts {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fault.New(fault.Reference, "broken reference %q: segment %q is not an object", ref, part)
		}
		next, ok := m[part]
		if !ok {
			return nil, fault.New(fault.Reference, "broken reference %q: missing segment %q", ref, part)
		}
		node = next
	}
	out, ok := node.(map[string]any)
	if !ok {
		return nil, fault.New(fault.Reference, "broken reference %q: target is not an object", ref)
	}
	return out, nil
}

// Deref resolves a chain of $ref pointers at the root of node, tracking seen
// pointers so reference cycles terminate instead of recursing forever.
func Deref(doc document.Tree, node map[string]any) (map[string]any, error) {
	seen := map[string]bool{}
	for {
		ref, ok := node["$ref"].(string)
		if !ok || ref == "" {
			return node, nil
		}
		if seen[ref] {
			return nil, fault.New(fault.Reference, "reference cycle through %q", ref)
		}
		seen[ref] = true
		resolved, err := Resolve(doc, ref)
		if err != nil {
			return nil, err
		}
		node = resolved
	}
}
