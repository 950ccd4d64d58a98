package hookcfg

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/hook-document.json
var hookDocumentSchema []byte

// ValidateDocument validates raw YAML document bytes against the embedded
// hook-document JSON Schema. Structural problems the loader would also catch
// are reported here with field-level detail, which is what `prehook validate`
// surfaces to the user.
func ValidateDocument(data []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return &ConfigError{Msg: "invalid YAML", Err: err}
	}

	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return &ConfigError{Msg: "cannot convert document to JSON for validation", Err: err}
	}

	schemaLoader := gojsonschema.NewBytesLoader(hookDocumentSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ConfigError{Msg: "schema validation error", Err: err}
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &ConfigError{Msg: "document validation failed:\n" + strings.Join(problems, "\n")}
	}

	return nil
}

// normalizeYAML converts map[interface{}]interface{} trees produced by YAML
// decoding into map[string]interface{} so they can round-trip through JSON.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = normalizeYAML(item)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, item := range val {
			s[i] = normalizeYAML(item)
		}
		return s
	default:
		return v
	}
}
