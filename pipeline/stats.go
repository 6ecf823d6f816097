package pipeline

import (
	"sync/atomic"

	"live-translator/model"
)

// Stats are counters shared with the UI. Every field is read and written
// atomically.
type Stats struct {
	SamplesHeard       atomic.Int64
	SamplesProcessed   atomic.Int64
	ChunksEmitted      atomic.Int64
	Coalesced          atomic.Int64
	DroppedSamples     atomic.Int64
	Transcribing       atomic.Int64
	TranslationsQueued atomic.Int64
	Translating        atomic.Int64
	TranscriptErrors   atomic.Int64
	TranslationErrors  atomic.Int64

	// SamplesSinceChunk is the audio heard since the last chunk was cut.
	SamplesSinceChunk atomic.Int64
}

func (s *Stats) FrameHeard(samples int) {
	s.SamplesHeard.Add(int64(samples))
	s.SamplesSinceChunk.Add(int64(samples))
}

func (s *Stats) ChunkEmitted(chunk model.Chunk) {
	s.ChunksEmitted.Add(1)
	s.SamplesSinceChunk.Store(0)
}

func (s *Stats) Backpressure(coalesced int, droppedSamples int) {
	s.Coalesced.Store(int64(coalesced))
	s.DroppedSamples.Add(int64(droppedSamples))
}
