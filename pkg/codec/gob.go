package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Gob serializes values with encoding/gob. Compact, but gob drops
// zero-valued fields and flattens some structures silently, so types
// must be asserted safe (AssertSafe) before this backend accepts them.
type Gob struct{}

func NewGob() *Gob { return &Gob{} }

func (*Gob) Method() uint8 { return MethodGob }
func (*Gob) Name() string  { return "gob" }

func (g *Gob) Marshal(v any) ([]byte, error) {
	if err := guardAsserted(g.Name(), v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("codec: gob marshal %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

func (g *Gob) Unmarshal(data []byte, v any) error {
	if err := guardAsserted(g.Name(), v); err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("codec: gob unmarshal into %T: %w", v, err)
	}
	return nil
}

func (*Gob) RequiresSafetyAssertion() bool { return true }
