package agent

import (
	"context"

	"github.com/invopop/jsonschema"
)

// Stage names one step of the generation pipeline.
type Stage string

const (
	StagePlanner Stage = "planner"
	StageWriter  Stage = "writer"
	StageEditor  Stage = "editor"
)

// Schema constrains a completion to a JSON document.
type Schema struct {
	Name        string
	Description string
	Value       *jsonschema.Schema
}

// Prompt is a single chat completion request.
type Prompt struct {
	Stage Stage
	// Topic is the article topic the prompt was built for. It is not sent to the model.
	Topic  string
	System string
	User   string
	// Schema is optional; nil asks for free text.
	Schema *Schema
}

// LLM completes prompts. Implementations must be safe for concurrent use.
type LLM interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// reflectSchema builds a strict schema: every field required, nothing extra allowed.
func reflectSchema(v any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}
