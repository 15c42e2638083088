package generation

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/alchemy/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// contentSchema derives the response schema from model.ContentPackage so the
// struct stays the single definition of the ten fields
func contentSchema() (*genai.Schema, error) {
	schema, err := jsonschema.For[model.ContentPackage](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to infer content package schema")
	}
	converted, err := convertJSONSchemaToGenai(schema)
	if err != nil {
		return nil, err
	}

	// Keep the field order of the struct in the generated JSON
	for _, f := range (&model.ContentPackage{}).Fields() {
		converted.PropertyOrdering = append(converted.PropertyOrdering, f[0])
	}
	return converted, nil
}

// convertJSONSchemaToGenai converts JSON Schema to Gemini genai.Schema
func convertJSONSchemaToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	genaiSchema := &genai.Schema{
		Description: schema.Description,
		Required:    schema.Required,
	}

	switch schema.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number", "integer":
		genaiSchema.Type = genai.TypeNumber
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	case "array":
		genaiSchema.Type = genai.TypeArray
	default:
		if schema.Type != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
	}

	if len(schema.Properties) > 0 {
		genaiSchema.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := convertJSONSchemaToGenai(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			genaiSchema.Properties[name] = converted
		}
	}

	if schema.Items != nil {
		converted, err := convertJSONSchemaToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		genaiSchema.Items = converted
	}

	return genaiSchema, nil
}
