package llm

import "context"

type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeInteger Type = "integer"
)

// Schema is a minimal declarative description of the JSON shape a structured
// generation call must return. Providers translate it into their native form.
type Schema struct {
	Type       Type
	Properties map[string]*Schema
	Items      *Schema
	Required   []string
}

type Provider interface {
	// GenerateText returns a single free-text completion.
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	// GenerateObject returns raw JSON constrained to schema.
	GenerateObject(ctx context.Context, system, prompt string, schema *Schema) ([]byte, error)
	Close() error
}
