// Package action converts a single OpenAPI operation into a named, callable
// action descriptor plus the operation metadata the dispatcher needs.
package action

// InputSchema is the normalized parameter schema exposed to callers: the
// operation's flattened parameters plus, when a request body is declared, a
// synthetic "body" property.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// Descriptor names one callable action. Immutable once built.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Location says where an argument travels in the outbound request.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
	InBody   Location = "body"
)

// Meta is the per-action dispatch record. Not exposed to callers.
type Meta struct {
	Method           string
	Path             string
	ParamLocations   map[string]Location
	Required         []string
	ContentMediaType string
	AuthType         string
	Service          string
}
