package registry

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// FieldSpec is the declarative constraint table for one tool argument.
// Validation logic is generic; only these tables differ per tool.
type FieldSpec struct {
	Type        string      `json:"type"` // "string", "number", "boolean"
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	MinLength   int         `json:"minLength,omitempty"` // strings only; 0 means unconstrained
	MaxLength   int         `json:"maxLength,omitempty"` // strings only; 0 means unconstrained
	Enum        []string    `json:"enum,omitempty"`      // strings only; empty means unconstrained
	Default     interface{} `json:"default,omitempty"`
}

// InputSchema maps argument names to their constraints.
type InputSchema map[string]FieldSpec

// Validate checks raw arguments against the schema and returns a normalized
// argument map: defaults filled in, every value type-checked. It fails with
// a ValidationError naming the first offending field.
//
// Unknown arguments are rejected so a typo in an optional argument name
// surfaces as an error instead of silently doing nothing.
func (s InputSchema) Validate(toolName string, raw map[string]interface{}) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(s))

	for name := range raw {
		if _, ok := s[name]; !ok {
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: "unknown argument"}
		}
	}

	for name, spec := range s {
		value, present := raw[name]
		if !present || value == nil {
			if spec.Required {
				return nil, &ValidationError{Tool: toolName, Field: name, Reason: "required argument missing"}
			}
			if spec.Default != nil {
				args[name] = spec.Default
			}
			continue
		}

		checked, err := spec.check(toolName, name, value)
		if err != nil {
			return nil, err
		}
		args[name] = checked
	}

	return args, nil
}

func (spec FieldSpec) check(toolName, name string, value interface{}) (interface{}, error) {
	switch spec.Type {
	case "string":
		str, ok := value.(string)
		if !ok {
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("expected string, got %T", value)}
		}
		if spec.MinLength > 0 && len(str) < spec.MinLength {
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("shorter than minimum length %d", spec.MinLength)}
		}
		if spec.MaxLength > 0 && len(str) > spec.MaxLength {
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("longer than maximum length %d", spec.MaxLength)}
		}
		if len(spec.Enum) > 0 {
			found := false
			for _, allowed := range spec.Enum {
				if str == allowed {
					found = true
					break
				}
			}
			if !found {
				return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("must be one of %v", spec.Enum)}
			}
		}
		return str, nil

	case "number":
		// JSON decoding hands numbers over as float64; accept int for
		// arguments constructed in Go code.
		switch n := value.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		default:
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("expected number, got %T", value)}
		}

	case "boolean":
		b, ok := value.(bool)
		if !ok {
			return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("expected boolean, got %T", value)}
		}
		return b, nil

	default:
		return nil, &ValidationError{Tool: toolName, Field: name, Reason: fmt.Sprintf("unsupported schema type %q", spec.Type)}
	}
}

// MCPSchema converts the constraint table into the JSON Schema shape MCP
// clients expect from tools/list.
func (s InputSchema) MCPSchema() mcp.ToolInputSchema {
	properties := make(map[string]interface{}, len(s))
	required := []string{}

	for name, spec := range s {
		prop := map[string]interface{}{
			"type":        spec.Type,
			"description": spec.Description,
		}
		if spec.MinLength > 0 {
			prop["minLength"] = spec.MinLength
		}
		if spec.MaxLength > 0 {
			prop["maxLength"] = spec.MaxLength
		}
		if len(spec.Enum) > 0 {
			prop["enum"] = spec.Enum
		}
		if spec.Default != nil {
			prop["default"] = spec.Default
		}
		properties[name] = prop

		if spec.Required {
			required = append(required, name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
