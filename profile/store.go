package profile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/hypervec/hdc"
	"github.com/hupe1980/hypervec/internal/hash"
	"github.com/hupe1980/hypervec/kv"
)

// Frame layout (little-endian):
//
//	magic   [4]byte "HVP1"
//	dims    uint32
//	events  uint64
//	values  dims × float32
//	crc     uint32 CRC32C of all preceding bytes
const (
	frameMagic      = "HVP1"
	frameHeaderSize = 4 + 4 + 8
	frameCRCSize    = 4
)

// Key returns the kv key of the profile with dimension dims.
func Key(dims int) string {
	return fmt.Sprintf("profile/%d", dims)
}

// MarshalFrame encodes v and the event counter as a checksummed frame.
func MarshalFrame(v hdc.Vector, events uint64) []byte {
	buf := make([]byte, frameHeaderSize+4*len(v)+frameCRCSize)
	copy(buf, frameMagic)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(v)))
	binary.LittleEndian.PutUint64(buf[8:], events)
	off := frameHeaderSize
	for _, x := range v {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:], hash.CRC32C(buf[:off]))
	return buf
}

// UnmarshalFrame decodes a frame written by MarshalFrame.
func UnmarshalFrame(data []byte) (hdc.Vector, uint64, error) {
	if len(data) < frameHeaderSize+frameCRCSize || string(data[:4]) != frameMagic {
		return nil, 0, ErrCorrupt
	}
	dims := int(binary.LittleEndian.Uint32(data[4:]))
	if len(data) != frameHeaderSize+4*dims+frameCRCSize {
		return nil, 0, fmt.Errorf("%w: length %d does not match %d dimensions", ErrCorrupt, len(data), dims)
	}
	body := len(data) - frameCRCSize
	if hash.CRC32C(data[:body]) != binary.LittleEndian.Uint32(data[body:]) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	events := binary.LittleEndian.Uint64(data[8:])
	v := make(hdc.Vector, dims)
	off := frameHeaderSize
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	return v, events, nil
}

// Save writes every profile to store under Key(dims).
func (a *Accumulator) Save(ctx context.Context, store kv.Store) error {
	a.mu.RLock()
	frames := make(map[int][]byte, len(a.profiles))
	for d, p := range a.profiles {
		frames[d] = MarshalFrame(p, a.events)
	}
	a.mu.RUnlock()

	for _, d := range a.opts.dimensions {
		if err := store.Set(ctx, Key(d), frames[d]); err != nil {
			return fmt.Errorf("profile: save %d: %w", d, err)
		}
	}
	return nil
}

// Load reads every profile from store. Missing keys keep the current
// profile. Profiles are replaced only if all present frames are valid.
func (a *Accumulator) Load(ctx context.Context, store kv.Store) error {
	loaded := make(map[int]hdc.Vector, len(a.opts.dimensions))
	var events uint64
	for _, d := range a.opts.dimensions {
		data, err := store.Get(ctx, Key(d))
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("profile: load %d: %w", d, err)
		}
		v, n, err := UnmarshalFrame(data)
		if err != nil {
			return fmt.Errorf("profile: load %d: %w", d, err)
		}
		if len(v) != d {
			return fmt.Errorf("profile: load %d: %w", d, &hdc.ErrDimensionMismatch{Expected: d, Actual: len(v)})
		}
		loaded[d] = v
		events = max(events, n)
	}
	if len(loaded) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for d, v := range loaded {
		a.profiles[d] = v
	}
	a.events = events
	return nil
}
