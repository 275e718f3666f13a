// Package codec centralizes snapshot encoding.
//
// Persisted and published snapshots are self-describing: Encode prefixes the
// payload with the codec name, and Decode selects the codec from that
// header. Switching Default therefore never breaks reading older snapshots,
// as long as the old codec is still registered in ByName.
package codec

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrUnknownCodec is returned when an envelope names an unregistered codec.
	ErrUnknownCodec = errors.New("codec: unknown codec")
	// ErrMalformed is returned for data without a valid envelope header.
	ErrMalformed = errors.New("codec: malformed envelope")
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Encode marshals v with c and wraps it in an envelope: codec name, a NUL
// separator, then the payload. A nil c selects Default.
func Encode(c Codec, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	payload, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s marshal failed: %w", c.Name(), err)
	}
	out := make([]byte, 0, len(c.Name())+1+len(payload))
	out = append(out, c.Name()...)
	out = append(out, 0)
	return append(out, payload...), nil
}

// Decode unwraps an envelope produced by Encode and unmarshals it into v.
func Decode(data []byte, v any) error {
	i := bytes.IndexByte(data, 0)
	if i <= 0 {
		return ErrMalformed
	}
	name := string(data[:i])
	c, ok := ByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	if err := c.Unmarshal(data[i+1:], v); err != nil {
		return fmt.Errorf("codec %s unmarshal failed: %w", name, err)
	}
	return nil
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
