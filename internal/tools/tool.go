package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Invocation carries what a tool needs to run one call. UserID is the
// authenticated user of the chat turn, not a value chosen by the model.
type Invocation struct {
	UserID    int
	Arguments string
}

// Tool is the interface that all tools must implement
type Tool interface {
	// Name returns the tool name
	Name() string

	// Description returns a description of what the tool does
	Description() string

	// Parameters returns the JSON schema for the tool's parameters
	Parameters() map[string]interface{}

	// Execute runs the tool. The result must be JSON encodable.
	Execute(ctx context.Context, inv Invocation) (interface{}, error)
}

// GenerateSchema reflects T into an inline JSON schema object
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot marshal schema for %T: %v", v, err))
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("tools: cannot decode schema for %T: %v", v, err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
