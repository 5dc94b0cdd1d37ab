package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ForwardRequestSchema describes the body the wallet client posts to the relay.
// Numeric fields may be JSON numbers or decimal strings; the nonce is never sent.
const ForwardRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["from", "to", "value", "gas", "deadline", "data", "signature"],
  "properties": {
    "from":      {"$ref": "#/definitions/address"},
    "to":        {"$ref": "#/definitions/address"},
    "value":     {"$ref": "#/definitions/uint"},
    "gas":       {"$ref": "#/definitions/uint"},
    "deadline":  {"$ref": "#/definitions/uint"},
    "data":      {"$ref": "#/definitions/hex"},
    "signature": {"type": "string", "pattern": "^0x([0-9a-fA-F]{2})+$"}
  },
  "definitions": {
    "address": {"type": "string", "pattern": "^0x[0-9a-fA-F]{40}$"},
    "hex":     {"type": "string", "pattern": "^0x([0-9a-fA-F]{2})*$"},
    "uint": {
      "oneOf": [
        {"type": "integer", "minimum": 0},
        {"type": "string", "pattern": "^[0-9]+$"}
      ]
    }
  }
}`

// ErrSchemaViolation wraps every schema validation failure
var ErrSchemaViolation = errors.New("request does not match schema")

var forwardRequestSchema = gojsonschema.NewStringLoader(ForwardRequestSchema)

// ValidateForwardRequest checks a raw relay request body against ForwardRequestSchema.
// All violations are reported in a single error.
func ValidateForwardRequest(body []byte) error {
	result, err := gojsonschema.Validate(forwardRequestSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(msgs, "; "))
}
