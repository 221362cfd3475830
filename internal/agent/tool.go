package agent

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidTool is returned when a tool's schema is malformed.
var ErrInvalidTool = errors.New("invalid tool")

// ParamKind is the value type of a tool parameter.
type ParamKind int

// Parameter kinds, named after their JSON schema types.
const (
	KindString ParamKind = iota + 1
	KindInteger
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

var kindNames = map[ParamKind]string{
	KindString:  "string",
	KindInteger: "integer",
	KindNumber:  "number",
	KindBoolean: "boolean",
	KindArray:   "array",
	KindObject:  "object",
}

func (k ParamKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// MarshalText renders the kind as its JSON schema type name.
func (k ParamKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown parameter kind %d", int(k))
	}
	return []byte(name), nil
}

// accepts reports whether v is a Go value of this kind.
func (k ParamKind) accepts(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInteger:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case KindNumber:
		switch v.(type) {
		case float32, float64, int, int32, int64:
			return true
		}
		return false
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindArray:
		kind := reflect.TypeOf(v).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case KindObject:
		kind := reflect.TypeOf(v).Kind()
		return kind == reflect.Map || kind == reflect.Struct
	}
	return false
}

// ToolParameter describes one named input of a tool.
type ToolParameter struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
}

// ToolResult is the structured outcome of a tool execution.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  any    `json:"output"`
	Error   string `json:"error,omitempty"`
}

// Succeeded wraps output in a successful result.
func Succeeded(output any) ToolResult {
	return ToolResult{Success: true, Output: output}
}

// Failed builds a failed result. The error message is never empty.
func Failed(msg string) ToolResult {
	if msg == "" {
		msg = "tool execution failed"
	}
	return ToolResult{Success: false, Output: nil, Error: msg}
}

// Tool is a named, schema-described capability an Agent can invoke.
type Tool interface {
	Name() string
	Description() string
	Parameters() []ToolParameter
	// Execute runs the tool. params already has defaults applied and all
	// required parameters present.
	Execute(ctx context.Context, params map[string]any) (ToolResult, error)
}

// Schema is the serializable description of a registered tool.
type Schema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// SchemaOf returns the schema of t.
func SchemaOf(t Tool) Schema {
	params := t.Parameters()
	if params == nil {
		params = []ToolParameter{}
	}
	return Schema{Name: t.Name(), Description: t.Description(), Parameters: params}
}

// validateTool checks the tool's schema once, at registration time.
func validateTool(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("%w: tool must have a name", ErrInvalidTool)
	}
	if t.Description() == "" {
		return fmt.Errorf("%w: tool %q must have a description", ErrInvalidTool, t.Name())
	}

	seen := make(map[string]bool)
	for _, p := range t.Parameters() {
		if p.Name == "" {
			return fmt.Errorf("%w: tool %q has a parameter without a name", ErrInvalidTool, t.Name())
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: tool %q declares parameter %q twice", ErrInvalidTool, t.Name(), p.Name)
		}
		seen[p.Name] = true

		if _, ok := kindNames[p.Kind]; !ok {
			return fmt.Errorf("%w: parameter %q of tool %q has unknown kind %d", ErrInvalidTool, p.Name, t.Name(), int(p.Kind))
		}
		if p.Default != nil && !p.Kind.accepts(p.Default) {
			return fmt.Errorf("%w: default %v of parameter %q does not match kind %s", ErrInvalidTool, p.Default, p.Name, p.Kind)
		}
	}
	return nil
}

// bindParams applies declared defaults and checks required parameters.
// Undeclared parameters are passed through untouched.
func bindParams(t Tool, params map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(params))
	for k, v := range params {
		bound[k] = v
	}
	for _, p := range t.Parameters() {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			bound[p.Name] = p.Default
			continue
		}
		if p.Required {
			return nil, fmt.Errorf("missing required parameter %q", p.Name)
		}
	}
	return bound, nil
}
