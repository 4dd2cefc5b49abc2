// Package pipeline chains the processing layers that turn a value into
// a stored record and back: serialize, compress, encrypt, protect on
// write, reversed on read. Every applied stage pushes a descriptor at
// the record tail, so a record always says how to read itself.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/i5heu/ouroboros-seal/pkg/buffer"
	"github.com/i5heu/ouroboros-seal/pkg/codec"
	"github.com/i5heu/ouroboros-seal/pkg/compress"
	"github.com/i5heu/ouroboros-seal/pkg/correct"
	"github.com/i5heu/ouroboros-seal/pkg/encrypt"
	"github.com/i5heu/ouroboros-seal/pkg/keyring"
	"github.com/i5heu/ouroboros-seal/pkg/layer"
)

var (
	// ErrMissingBackend is returned by New when a capability has no
	// backend. A pipeline always carries exactly one backend per
	// capability, even for stages a profile never enables.
	ErrMissingBackend = errors.New("pipeline: missing backend")

	// ErrBytesExpected is returned by Encode when serialization is
	// excluded on write but the value is not already a byte slice.
	ErrBytesExpected = errors.New("pipeline: serialization excluded on write, value must be a byte slice")
)

// MismatchError reports a record written with a different backend than
// the pipeline is configured with. Non-recoverable: the record must be
// migrated with a pipeline configured like its writer.
type MismatchError struct {
	Stage      layer.Kind
	Stored     uint8
	Configured uint8
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("pipeline: %s layer written with %s but pipeline is configured with %s",
		e.Stage, methodName(e.Stage, e.Stored), methodName(e.Stage, e.Configured))
}

func methodName(kind layer.Kind, method uint8) string {
	switch kind {
	case layer.Serialization:
		return codec.MethodName(method)
	case layer.Compression:
		return compress.MethodName(method)
	case layer.Encryption:
		return encrypt.MethodName(method)
	case layer.Correction:
		if method == correct.MethodReedSolomon {
			return "reed-solomon"
		}
	}
	return fmt.Sprintf("method(%d)", method)
}

// Profile configures which stages run for a value type and in which
// direction. A stage applied on write records its direction in the
// descriptor, so the read side honors the write-time choice even if the
// profile has changed since.
type Profile struct {
	Serialize layer.Direction
	Compress  layer.Direction
	Encrypt   layer.Direction
	Protect   layer.Direction

	// Level is the parity sizing used when Protect applies on write.
	Level correct.Level

	// Dictionary is an optional compression dictionary. Not stored
	// with the record; reads must supply the same one.
	Dictionary []byte
}

// DefaultProfile runs every stage in both directions with basic parity.
func DefaultProfile() Profile {
	return Profile{
		Serialize: layer.Both,
		Compress:  layer.Both,
		Encrypt:   layer.Both,
		Protect:   layer.Both,
		Level:     correct.Basic,
	}
}

// Config carries one backend per capability plus the encryption key.
type Config struct {
	Serializer codec.Serializer
	Compressor compress.Compressor
	Encryptor  encrypt.Encryptor
	Corrector  *correct.Corrector
	Key        keyring.Key
	Logger     *slog.Logger
}

// Pipeline applies the processing layers. One backend per capability:
// the backend set is fixed at construction, profiles only choose which
// stages run.
type Pipeline struct {
	serializer codec.Serializer
	compressor compress.Compressor
	encryptor  encrypt.Encryptor
	corrector  *correct.Corrector
	key        keyring.Key
	log        *slog.Logger
}

func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Serializer == nil:
		return nil, fmt.Errorf("%w: serializer", ErrMissingBackend)
	case cfg.Compressor == nil:
		return nil, fmt.Errorf("%w: compressor", ErrMissingBackend)
	case cfg.Encryptor == nil:
		return nil, fmt.Errorf("%w: encryptor", ErrMissingBackend)
	case cfg.Corrector == nil:
		return nil, fmt.Errorf("%w: corrector", ErrMissingBackend)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		serializer: cfg.Serializer,
		compressor: cfg.Compressor,
		encryptor:  cfg.Encryptor,
		corrector:  cfg.Corrector,
		key:        cfg.Key,
		log:        log,
	}, nil
}

// Encode runs the write-direction stages over value and returns the
// record bytes. Stages whose direction excludes write are skipped and
// leave no descriptor; the skipped serialization stage instead records
// a raw descriptor so the record stays self-terminating.
func (p *Pipeline) Encode(value any, prof Profile) (*buffer.Buffer, error) {
	var buf *buffer.Buffer

	if prof.Serialize.AppliesOnWrite() {
		raw, err := p.serializer.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize value: %w", err)
		}
		buf = buffer.Owned(raw)
		d, err := layer.New(layer.Serialization, p.serializer.Method(), prof.Serialize)
		if err != nil {
			return nil, err
		}
		buf = layer.Push(buf, d)
	} else {
		raw, ok := rawBytes(value)
		if !ok {
			return nil, fmt.Errorf("%w, got %T", ErrBytesExpected, value)
		}
		buf = buffer.Borrowed(raw)
		d, err := layer.New(layer.Raw, 0, prof.Serialize)
		if err != nil {
			return nil, err
		}
		buf = layer.Push(buf, d)
	}

	if prof.Compress.AppliesOnWrite() {
		compressed, err := p.compressor.Compress(buf.Bytes(), prof.Dictionary)
		if err != nil {
			return nil, fmt.Errorf("failed to compress record: %w", err)
		}
		buf = buf.Replace(compressed)
		d, err := layer.New(layer.Compression, p.compressor.Method(), prof.Compress)
		if err != nil {
			return nil, err
		}
		buf = layer.Push(buf, d)
	}

	if prof.Encrypt.AppliesOnWrite() {
		sealed, err := p.encryptor.Encrypt(buf.Bytes(), p.key, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt record: %w", err)
		}
		buf = buf.Replace(sealed)
		d, err := layer.New(layer.Encryption, p.encryptor.Method(), prof.Encrypt)
		if err != nil {
			return nil, err
		}
		buf = layer.Push(buf, d)
	}

	if prof.Protect.AppliesOnWrite() {
		protected, err := p.corrector.Protect(buf, prof.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to protect record: %w", err)
		}
		d, err := layer.New(layer.Correction, p.corrector.Method(), prof.Protect)
		if err != nil {
			return nil, err
		}
		buf = layer.Push(protected, d)
	}

	return buf, nil
}

// rawBytes extracts the payload for serialization-excluded writes.
// Accepts []byte, pointers to byte slices, and named byte-slice types,
// so store records can be byte slices with methods and a decoded
// *[]byte can be re-encoded as is.
func rawBytes(value any) ([]byte, bool) {
	if raw, ok := value.([]byte); ok {
		return raw, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), true
	}
	return nil, false
}

// Outcome reports what Decode did beyond filling out.
type Outcome struct {
	// Decoded is true when out was populated by the serialization
	// layer.
	Decoded bool

	// Partial is true when reversal stopped at a stage whose stored
	// direction excludes read. Raw then holds the record still wrapped
	// in that stage.
	Partial bool

	// Recovered is true when error correction rebuilt corrupted bytes
	// on the way. The caller may want to re-persist the record.
	Recovered bool

	// Raw holds the bytes at the point Decode stopped: the payload
	// after a raw terminal, or the partially unwound record.
	Raw *buffer.Buffer
}

// Decode pops descriptors off the record tail and undoes each stage in
// reverse write order. Each descriptor is validated against the
// configured backend before its stage is reversed; a stage whose stored
// direction excludes read ends reversal with the bytes as they are.
func (p *Pipeline) Decode(buf *buffer.Buffer, prof Profile, out any) (Outcome, error) {
	recovered := buf.IsRecovered()

	for {
		d, err := layer.Pop(buf)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to read layer descriptor: %w", err)
		}

		if !d.Direction().AppliesOnRead() && d.Kind() != layer.Raw {
			return Outcome{Partial: true, Recovered: recovered, Raw: layer.Push(buf, d)}, nil
		}

		switch d.Kind() {
		case layer.Correction:
			if d.Method() != p.corrector.Method() {
				return Outcome{}, &MismatchError{Stage: d.Kind(), Stored: d.Method(), Configured: p.corrector.Method()}
			}
			buf, err = p.corrector.Recover(buf)
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to recover record: %w", err)
			}
			recovered = recovered || buf.IsRecovered()

		case layer.Encryption:
			if d.Method() != p.encryptor.Method() {
				return Outcome{}, &MismatchError{Stage: d.Kind(), Stored: d.Method(), Configured: p.encryptor.Method()}
			}
			plain, err := p.encryptor.Decrypt(buf.Bytes(), p.key)
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to decrypt record: %w", err)
			}
			buf = buf.Replace(plain)

		case layer.Compression:
			if d.Method() != p.compressor.Method() {
				return Outcome{}, &MismatchError{Stage: d.Kind(), Stored: d.Method(), Configured: p.compressor.Method()}
			}
			expanded, err := p.compressor.Decompress(buf.Bytes(), prof.Dictionary)
			if err != nil {
				return Outcome{}, fmt.Errorf("failed to decompress record: %w", err)
			}
			buf = buf.Replace(expanded)

		case layer.Serialization:
			if d.Method() != p.serializer.Method() {
				return Outcome{}, &MismatchError{Stage: d.Kind(), Stored: d.Method(), Configured: p.serializer.Method()}
			}
			if err := p.serializer.Unmarshal(buf.Bytes(), out); err != nil {
				return Outcome{}, fmt.Errorf("failed to deserialize record: %w", err)
			}
			if recovered {
				buf.MarkRecovered()
			}
			return Outcome{Decoded: true, Recovered: recovered, Raw: buf}, nil

		case layer.Raw:
			// Terminal: the remaining bytes are the payload itself.
			if recovered {
				buf.MarkRecovered()
			}
			if dst, ok := out.(*[]byte); ok && dst != nil {
				*dst = buf.Bytes()
			}
			return Outcome{Recovered: recovered, Raw: buf}, nil
		}
	}
}
