package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchema is returned when a request body does not match SimulationSchema
var ErrSchema = errors.New("schema validation failed")

// SimulationSchema describes the POST /v1/simulations body
const SimulationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["grid", "mowers"],
  "properties": {
    "mode": {
      "type": "string",
      "enum": ["concurrent", "sequential"]
    },
    "grid": {
      "type": "object",
      "additionalProperties": false,
      "required": ["x_max", "y_max"],
      "properties": {
        "x_min": {"type": "integer"},
        "y_min": {"type": "integer"},
        "x_max": {"type": "integer"},
        "y_max": {"type": "integer"}
      }
    },
    "mowers": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["x", "y", "orientation", "program"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "x": {"type": "integer"},
          "y": {"type": "integer"},
          "orientation": {"type": "string", "pattern": "^[NESWnesw]$"},
          "program": {"type": "string", "pattern": "^[GDAgda]*$"}
        }
      }
    }
  }
}`

var simulationSchemaLoader = gojsonschema.NewStringLoader(SimulationSchema)

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(simulationSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}
	return nil
}
