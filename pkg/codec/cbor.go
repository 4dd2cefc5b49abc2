package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR is the default serializer backend. Self-describing and
// deterministic (core deterministic encoding), so index keys derived
// from serialized values are stable across processes.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR builds a CBOR serializer with deterministic encoding options.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor decode mode: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (c *CBOR) Method() uint8 { return MethodCBOR }
func (c *CBOR) Name() string  { return "cbor" }

func (c *CBOR) Marshal(v any) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: cbor marshal %T: %w", v, err)
	}
	return data, nil
}

func (c *CBOR) Unmarshal(data []byte, v any) error {
	if err := c.dec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: cbor unmarshal into %T: %w", v, err)
	}
	return nil
}

func (c *CBOR) RequiresSafetyAssertion() bool { return false }
