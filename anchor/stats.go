package anchor

// Stats summarizes learner activity.
type Stats struct {
	// Processed counts accepted Learn inputs.
	Processed uint64
	// Reinforcements counts inputs merged into an existing anchor.
	Reinforcements uint64
	// Created counts inputs that started a new anchor.
	Created uint64
	// Rejected counts invalid inputs.
	Rejected uint64
	// Anchors is the current anchor count.
	Anchors int
	// AvgDimensions is the mean coordinate count per anchor.
	AvgDimensions float64
	// MemoryBytes approximates the heap held by anchors, counters and the
	// inverted index.
	MemoryBytes uint64
}

const (
	mapEntryOverhead = 8
	anchorOverhead   = 96
)

// Stats returns a point-in-time summary.
func (l *Learner) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		Processed:      l.processed,
		Reinforcements: l.reinforcements,
		Created:        l.created,
		Rejected:       l.rejected,
		Anchors:        len(l.anchors),
	}

	var coords int
	var mem uint64
	for _, st := range l.anchors {
		coords += len(st.vec)
		mem += anchorOverhead
		mem += uint64(len(st.vec)) * (4 + 2 + mapEntryOverhead)
		mem += uint64(len(st.counts)) * (4 + 4 + mapEntryOverhead)
	}
	for _, bm := range l.index {
		mem += 4 + mapEntryOverhead + bm.GetSizeInBytes()
	}
	if len(l.anchors) > 0 {
		s.AvgDimensions = float64(coords) / float64(len(l.anchors))
	}
	s.MemoryBytes = mem
	return s
}
