package builtin

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// reflectSchema derives a tool's declared parameter schema from a Go struct's
// field types and `jsonschema` tags, grounded on kadirpekel-hector's
// functiontool.generateSchema — avoids hand-maintaining a parallel map
// literal next to every parameter struct a tool already unmarshals into.
func reflectSchema[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return data
	}
	delete(m, "$schema")
	delete(m, "$id")

	out, err := json.Marshal(m)
	if err != nil {
		return data
	}
	return out
}
