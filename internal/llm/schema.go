package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// generateSchema reflects a Go struct into a JSON schema suitable for the
// OpenAI structured-output constraint: no references, no additional
// properties, every property required.
func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	enforceStrictness(m)
	return m
}

// enforceStrictness walks the schema and marks every object closed with all
// fields required, which the strict json_schema response format demands.
func enforceStrictness(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			var required []string
			for name := range props {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema["required"] = required
			}
		}
	}

	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				enforceStrictness(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		enforceStrictness(items)
	}
}
