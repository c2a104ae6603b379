package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// direction 只要求是字符串：未知方向在世界层按 no-op 处理，而不是在这里拒绝
const moveSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["direction", "speed"],
  "properties": {
    "direction": {"type": "string"},
    "speed": {"type": "number"}
  }
}`

var moveSchema = jsonschema.MustCompileString("move-player.schema.json", moveSchemaJSON)

func validateMove(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("validate move: %w", ErrEmptyFrame)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("validate move: %w", err)
	}
	if err := moveSchema.Validate(v); err != nil {
		return fmt.Errorf("validate move: %w", err)
	}
	return nil
}
