package codec

import (
	"encoding/json"
	"fmt"
)

// JSON serializes values as compact JSON. Larger on disk than CBOR but
// convenient when stored records must stay human-inspectable.
type JSON struct{}

func NewJSON() *JSON { return &JSON{} }

func (*JSON) Method() uint8 { return MethodJSON }
func (*JSON) Name() string  { return "json" }

func (*JSON) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: json marshal %T: %w", v, err)
	}
	return data, nil
}

func (*JSON) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: json unmarshal into %T: %w", v, err)
	}
	return nil
}

func (*JSON) RequiresSafetyAssertion() bool { return false }
