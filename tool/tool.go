// Package tool defines the tool abstraction exposed to the model and the
// per-session set that tracks which tools a session currently carries.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is a capability the model can invoke during a task.
type Tool interface {
	// Name returns the unique tool name as exposed to the model.
	Name() string

	// Description returns the human-readable description sent to the model.
	Description() string

	// InputSchema returns the JSON schema describing the tool's input.
	InputSchema() Schema

	// Execute runs the tool with the given JSON input and returns its
	// output as text. Errors are surfaced to the model as error results,
	// not propagated up the turn.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Schema describes a tool's input as a JSON schema object.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single property in a tool input schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ObjectSchema returns a Schema for an object with the given properties.
func ObjectSchema(props map[string]Property, required ...string) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

// Func adapts a plain function into a Tool.
type Func struct {
	ToolName        string
	ToolDescription string
	ToolSchema      Schema
	Run             func(ctx context.Context, input json.RawMessage) (string, error)
}

func (f *Func) Name() string        { return f.ToolName }
func (f *Func) Description() string { return f.ToolDescription }
func (f *Func) InputSchema() Schema { return f.ToolSchema }

func (f *Func) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	return f.Run(ctx, input)
}
