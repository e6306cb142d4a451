package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/openapi-actions/internal/document"
)

// maxSynthesisDepth bounds recursion through nested or self-referential
// schemas. Hitting the bound yields the fallback literal.
const maxSynthesisDepth = 32

// Synthesize produces a plausible example value for a schema node. Explicit
// example, examples, default, and enum fields win over type-derived values, in
// that order. A $ref at the root of the node is resolved first.
func Synthesize(doc document.Tree, node map[string]any) any {
	return synthesize(doc, node, map[string]bool{}, 0)
}

func synthesize(doc document.Tree, node map[string]any, seen map[string]bool, depth int) any {
	if node == nil || depth > maxSynthesisDepth {
		return "example"
	}

	if ref, ok := node["$ref"].(string); ok && ref != "" {
		if seen[ref] {
			return "example"
		}
		resolved, err := Resolve(doc, ref)
		if err != nil {
			return "example"
		}
		seen[ref] = true
		v := synthesize(doc, resolved, seen, depth+1)
		delete(seen, ref)
		return v
	}

	if ex, ok := node["example"]; ok {
		return ex
	}
	if ex, ok := firstExample(node); ok {
		return ex
	}
	if def, ok := node["default"]; ok {
		return def
	}
	if enum, ok := node["enum"].([]any); ok && len(enum) > 0 {
		return enum[0]
	}

	typ, _ := node["type"].(string)
	switch typ {
	case "object":
		out := map[string]any{}
		props, _ := node["properties"].(map[string]any)
		for _, name := range sortedKeys(props) {
			child, _ := props[name].(map[string]any)
			out[name] = synthesize(doc, child, seen, depth+1)
		}
		return out
	case "array":
		items, _ := node["items"].(map[string]any)
		if items == nil {
			items = map[string]any{}
		}
		return []any{synthesize(doc, items, seen, depth+1)}
	case "string":
		switch node["format"] {
		case "date-time":
			return "2023-01-01T00:00:00Z"
		case "date":
			return "2023-01-01"
		case "uuid":
			return "123e4567-e89b-12d3-a456-426614174000"
		case "email":
			return "user@example.com"
		}
		return "string"
	case "integer":
		return 0
	case "number":
		return 0.0
	case "boolean":
		return true
	default:
		return "example"
	}
}

// firstExample picks a value from an "examples" mapping: the entry's "value"
// field when the entry is an object carrying one, or the entry itself when it
// is already a literal string. Entries are visited in sorted key order since
// the tree is a Go map.
func firstExample(node map[string]any) (any, bool) {
	examples, ok := node["examples"].(map[string]any)
	if !ok {
		return nil, false
	}
	for _, name := range sortedKeys(examples) {
		switch entry := examples[name].(type) {
		case map[string]any:
			if v, ok := entry["value"]; ok {
				return v, true
			}
		case string:
			return entry, true
		}
	}
	return nil, false
}

// ExampleText returns a " Example: ..." annotation when the node carries an
// explicit example, or the empty string otherwise.
func ExampleText(node map[string]any) string {
	if ex, ok := node["example"]; ok {
		return " Example: " + FormatValue(ex)
	}
	if ex, ok := firstExample(node); ok {
		return " Example: " + FormatValue(ex)
	}
	return ""
}

// FormatValue renders an example value for inclusion in descriptive text.
// Composite values are rendered as JSON, scalars with their natural form.
func FormatValue(v any) string {
	switch v.(type) {
	case map[string]any, []any:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
