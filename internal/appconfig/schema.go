// internal/appconfig/schema.go
package appconfig

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// configSchema describes the structural shape of a config document. Semantic
// rules that cross fields (for example, a level exceeding requestsPerLevel)
// live in Config.Validate.
const configSchema = `{
  "type": "object",
  "required": ["engineA", "engineB", "model", "concurrencyLevels", "requestsPerLevel", "prompts"],
  "properties": {
    "engineA": {
      "type": "object",
      "required": ["name", "url"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "url": {"type": "string", "minLength": 1}
      }
    },
    "engineB": {
      "type": "object",
      "required": ["name", "url"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "url": {"type": "string", "minLength": 1}
      }
    },
    "model": {"type": "string", "minLength": 1},
    "concurrencyLevels": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "integer", "minimum": 1}
    },
    "requestsPerLevel": {"type": "integer", "minimum": 1},
    "warmupRequests": {"type": "integer", "minimum": 0},
    "generationConfig": {"type": "object"},
    "prompts": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "timeout": {"type": "integer", "minimum": 0},
    "logFile": {"type": "string"},
    "chartPath": {"type": "string"},
    "resultsDir": {"type": "string"},
    "progress": {"type": "boolean"},
    "debug": {"type": "boolean"}
  }
}`

// ValidateSchema checks a raw config document against the expected shape
// before it is decoded into a Config.
func ValidateSchema(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(details, "; "))
}
