package api

import (
	"encoding/json"
)

// Codec encodes messages as JSON. It replaces Connect's built-in "json"
// codec, which only handles protobuf messages.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
