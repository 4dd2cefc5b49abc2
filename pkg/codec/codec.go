// Package codec provides the serialization stage of the storage
// pipeline.
//
// Exactly one serializer backend is configured per store. Backends that
// are known to silently mishandle structurally complex values must not
// be used with a type until that type has been explicitly asserted safe
// (see AssertSafe), turning a class of silent-corruption bugs into a
// loud configuration error.
package codec

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Method identifiers, stored in the layer descriptor's 5-bit
// implementation field. On-disk values, do not renumber.
const (
	MethodCBOR uint8 = 0
	MethodJSON uint8 = 1
	MethodGob  uint8 = 2
)

// Serializer converts typed values to bytes and back. Implementations
// must be stateless and safe for concurrent use.
type Serializer interface {
	// Method returns the on-disk implementation id for descriptors.
	Method() uint8
	// Name returns a human-readable backend name for diagnostics.
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// RequiresSafetyAssertion reports whether types must be explicitly
	// vetted (AssertSafe) before this backend will touch them.
	RequiresSafetyAssertion() bool
}

// MethodName resolves a serializer method id for error messages about
// data written by a differently configured store.
func MethodName(method uint8) string {
	switch method {
	case MethodCBOR:
		return "cbor"
	case MethodJSON:
		return "json"
	case MethodGob:
		return "gob"
	default:
		return fmt.Sprintf("serializer(%d)", method)
	}
}

// ErrUnassertedType is wrapped when a type is used with an
// assertion-requiring backend without having been vetted.
var ErrUnassertedType = errors.New("codec: type not asserted safe for this serializer")

var (
	safeMu    sync.RWMutex
	safeTypes = map[reflect.Type]struct{}{}
)

// AssertSafe registers the concrete type of v as vetted for
// assertion-requiring serializer backends. The assertion is a manual
// promise that the type survives the backend's structural quirks
// (field skipping, interface flattening) with full fidelity; make it
// only after verifying a round-trip.
func AssertSafe(v any) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return
	}
	safeMu.Lock()
	safeTypes[t] = struct{}{}
	safeMu.Unlock()
}

// IsSafe reports whether the concrete type of v has been asserted safe.
func IsSafe(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return false
	}
	safeMu.RLock()
	_, ok := safeTypes[t]
	safeMu.RUnlock()
	return ok
}

func guardAsserted(name string, v any) error {
	if !IsSafe(v) {
		return fmt.Errorf("%w: %T with %s", ErrUnassertedType, v, name)
	}
	return nil
}
