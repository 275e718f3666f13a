// Package pipeline runs expensive passes off the hot path.
//
// A Batcher accumulates events in a bounded buffer and hands them to a
// handler once the stream has been idle for a configured interval or the
// batch reaches a size threshold, whichever comes first. Events sharing a
// key are merged so only the latest one is processed.
//
// The Clusterer is the handler used for anchor learning: it learns the
// batch, persists the anchors and emits a snapshot through a rate-limited
// Publisher to a Sink. Sinks only ever receive snapshots; merging state
// from other instances is outside this package.
package pipeline
