package anchor

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/hypervec/codec"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/sparse"
)

// StoreKey is the kv key under which Save persists the anchor list.
const StoreKey = "anchors"

const snapshotVersion = 1

// Snapshot is the serializable state of a Learner.
type Snapshot struct {
	Version        int              `json:"version"`
	Anchors        []AnchorSnapshot `json:"anchors"`
	Processed      uint64           `json:"processed"`
	Reinforcements uint64           `json:"reinforcements"`
	Created        uint64           `json:"created"`
	Rejected       uint64           `json:"rejected"`
}

// AnchorSnapshot is one anchor with its reinforcement counters.
type AnchorSnapshot struct {
	Coordinates map[uint32]uint16 `json:"coordinates"`
	Counts      map[uint32]uint32 `json:"counts,omitempty"`
}

// Snapshot returns a deep copy of the learner state.
func (l *Learner) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Snapshot{
		Version:        snapshotVersion,
		Anchors:        make([]AnchorSnapshot, len(l.anchors)),
		Processed:      l.processed,
		Reinforcements: l.reinforcements,
		Created:        l.created,
		Rejected:       l.rejected,
	}
	for i, st := range l.anchors {
		counts := make(map[uint32]uint32, len(st.counts))
		for k, c := range st.counts {
			counts[k] = c
		}
		s.Anchors[i] = AnchorSnapshot{
			Coordinates: map[uint32]uint16(st.vec.Clone()),
			Counts:      counts,
		}
	}
	return s
}

// Restore replaces the learner state with s and rebuilds the inverted
// index. Anchors larger than MaxDimensions are compressed. On error the
// learner is left unchanged.
func (l *Learner) Restore(s Snapshot) error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("anchor: unsupported snapshot version %d", s.Version)
	}

	anchors := make([]*anchorState, len(s.Anchors))
	index := make(map[uint32]*roaring.Bitmap)
	for i, a := range s.Anchors {
		vec := sparse.Vector(a.Coordinates).Clone()
		if err := vec.Validate(); err != nil {
			return fmt.Errorf("anchor: snapshot anchor %d: %w", i, err)
		}
		counts := make(map[uint32]uint32, len(a.Counts))
		for k, c := range a.Counts {
			counts[k] = c
		}
		st := &anchorState{vec: vec, counts: counts}
		compress(st, l.opts.maxDimensions, l.opts.strategy)
		anchors[i] = st

		for coord := range st.vec {
			bm, ok := index[coord]
			if !ok {
				bm = roaring.New()
				index[coord] = bm
			}
			bm.Add(uint32(i))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.anchors = anchors
	l.index = index
	l.processed = s.Processed
	l.reinforcements = s.Reinforcements
	l.created = s.Created
	l.rejected = s.Rejected
	return nil
}

// Save persists the snapshot under StoreKey.
func (l *Learner) Save(ctx context.Context, store kv.Store) error {
	data, err := codec.Encode(nil, l.Snapshot())
	if err != nil {
		return err
	}
	if err := store.Set(ctx, StoreKey, data); err != nil {
		return fmt.Errorf("anchor: save: %w", err)
	}
	return nil
}

// Load restores the snapshot stored under StoreKey. A missing key leaves
// the learner unchanged and is not an error.
func (l *Learner) Load(ctx context.Context, store kv.Store) error {
	data, err := store.Get(ctx, StoreKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("anchor: load: %w", err)
	}
	var s Snapshot
	if err := codec.Decode(data, &s); err != nil {
		return fmt.Errorf("anchor: load: %w", err)
	}
	return l.Restore(s)
}
