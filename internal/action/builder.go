package action

import (
	"sort"
	"strings"

	"github.com/mark3labs/openapi-actions/internal/document"
	"github.com/mark3labs/openapi-actions/internal/fault"
	"github.com/mark3labs/openapi-actions/internal/schema"
)

// DefaultMediaType is assumed for operations without a request body.
const DefaultMediaType = "application/json"

// Build converts the operation at (path, method) into an action descriptor and
// its dispatch metadata. The action name is the operation's operationId when
// present, else method_path with separators flattened; a non-empty prefix
// yields "prefix:name". Meta.AuthType and Meta.Service are left for the
// registry to fill in.
func Build(doc document.Tree, path, method, prefix string) (*Descriptor, *Meta, error) {
	op, err := lookupOperation(doc, path, method)
	if err != nil {
		return nil, nil, err
	}

	name, _ := op["operationId"].(string)
	if name == "" {
		name = strings.Trim(strings.ReplaceAll(strings.ToLower(method)+"_"+path, "/", "_"), "_")
	}
	if prefix != "" {
		name = prefix + ":" + name
	}

	description, _ := op["description"].(string)
	if description == "" {
		description, _ = op["summary"].(string)
	}

	properties := map[string]any{}
	var required []string
	locations := map[string]Location{}

	params, _ := op["parameters"].([]any)
	for _, raw := range params {
		param, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		pname, _ := param["name"].(string)
		if pname == "" {
			continue
		}
		prop, err := parameterProperty(doc, param)
		if err != nil {
			return nil, nil, err
		}
		properties[pname] = prop
		locations[pname] = paramLocation(param)
		if req, _ := param["required"].(bool); req && !contains(required, pname) {
			required = append(required, pname)
		}
	}

	mediaType := DefaultMediaType
	if rb, ok := op["requestBody"].(map[string]any); ok {
		mt, bodyProp, err := bodyProperty(rb)
		if err != nil {
			return nil, nil, err
		}
		mediaType = mt
		properties["body"] = bodyProp
		locations["body"] = InBody
		// A declared request body always makes "body" required, even when the
		// document marks it optional.
		required = append(required, "body")
	}

	desc := &Descriptor{
		Name:        name,
		Description: description,
		InputSchema: InputSchema{Type: "object", Properties: properties, Required: required},
	}
	meta := &Meta{
		Method:           strings.ToUpper(method),
		Path:             path,
		ParamLocations:   locations,
		Required:         required,
		ContentMediaType: mediaType,
	}
	return desc, meta, nil
}

func lookupOperation(doc document.Tree, path, method string) (map[string]any, error) {
	paths, _ := doc["paths"].(map[string]any)
	pathItem, ok := paths[path].(map[string]any)
	if !ok {
		return nil, fault.New(fault.OperationNotFound, "path %q not found in document", path)
	}
	op, ok := pathItem[strings.ToLower(method)].(map[string]any)
	if !ok {
		return nil, fault.New(fault.OperationNotFound, "method %q not found for path %q", method, path)
	}
	return op, nil
}

// parameterProperty derives the exposed property for one declared parameter.
// $ref schemas are resolved first; the description concatenates the schema's
// text, the enum values, and an example hint (explicit when present, else
// synthesized).
func parameterProperty(doc document.Tree, param map[string]any) (map[string]any, error) {
	node, _ := param["schema"].(map[string]any)
	if node == nil {
		node = map[string]any{}
	}
	node, err := schema.Deref(doc, node)
	if err != nil {
		return nil, err
	}

	typ, _ := node["type"].(string)
	if typ == "" {
		typ = "string"
	}
	prop := map[string]any{"type": typ}

	desc, _ := node["description"].(string)
	if desc == "" {
		desc, _ = param["description"].(string)
	}
	if enum, ok := node["enum"].([]any); ok && len(enum) > 0 {
		desc += " Possible values: " + schema.FormatValue(enum)
	}
	example := schema.ExampleText(node)
	if example == "" {
		example = " Example: " + schema.FormatValue(schema.Synthesize(doc, node))
	}
	desc += example
	if desc != "" {
		prop["description"] = desc
	}
	return prop, nil
}

// bodyProperty picks the request body's media type and returns a copy of its
// schema node annotated with the content type and any inlined example.
func bodyProperty(requestBody map[string]any) (string, map[string]any, error) {
	content, _ := requestBody["content"].(map[string]any)
	if len(content) == 0 {
		return "", nil, fault.New(fault.Validation, "request body has empty content")
	}

	mediaType := pickMediaType(content)
	entry, _ := content[mediaType].(map[string]any)
	node, _ := entry["schema"].(map[string]any)

	prop := make(map[string]any, len(node)+1)
	for k, v := range node {
		prop[k] = v
	}
	desc, _ := prop["description"].(string)
	desc += " Body Content-Type: " + mediaType
	if ex, ok := entry["example"]; ok {
		desc += " Example: " + schema.FormatValue(ex)
	}
	prop["description"] = desc
	return mediaType, prop, nil
}

// pickMediaType prefers application/json, else the lexicographically first
// declared media type (the tree is a Go map, so declaration order is gone).
func pickMediaType(content map[string]any) string {
	if _, ok := content[DefaultMediaType]; ok {
		return DefaultMediaType
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

func paramLocation(param map[string]any) Location {
	switch param["in"] {
	case "path":
		return InPath
	case "header":
		return InHeader
	default:
		return InQuery
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Tags returns the operation's declared tags, trimmed of blanks.
func Tags(op map[string]any) []string {
	raw, _ := op["tags"].([]any)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, _ := t.(string); strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
