package blocks

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadMIME is the transfer type drag sources attach descriptors under.
const PayloadMIME = "application/json"

const payloadSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "type", "label", "labelAr"],
  "properties": {
    "id":      {"type": "string", "minLength": 1},
    "type":    {"enum": ["motion", "looks", "sound", "events", "control", "sensing"]},
    "label":   {"type": "string"},
    "labelAr": {"type": "string"},
    "color":   {"type": "string"},
    "icon":    {"type": "string"}
  }
}`

var payloadSchema = jsonschema.MustCompileString("block-payload.schema.json", payloadSchemaJSON)

// PayloadError reports a drag payload that could not be turned into a
// Descriptor.
type PayloadError struct {
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return "invalid block payload: " + e.Reason + ": " + e.Err.Error()
	}
	return "invalid block payload: " + e.Reason
}

func (e *PayloadError) Unwrap() error { return e.Err }

// EncodePayload serializes d the way a palette drag source does.
func EncodePayload(d Descriptor) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal block %s: %w", d.ID, err)
	}
	return b, nil
}

// DecodePayload parses and validates a drag payload.
func DecodePayload(data []byte) (Descriptor, error) {
	if len(data) == 0 {
		return Descriptor{}, &PayloadError{Reason: "empty payload"}
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Descriptor{}, &PayloadError{Reason: "not JSON", Err: err}
	}
	if err := payloadSchema.Validate(raw); err != nil {
		return Descriptor{}, &PayloadError{Reason: "schema", Err: err}
	}

	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return Descriptor{}, &PayloadError{Reason: "decode", Err: err}
	}
	return d, nil
}
