package model

import (
	"time"
)

// Frame is a fixed-size block of mono PCM samples read from the input device.
type Frame struct {
	Seq      uint64
	Samples  []int16
	Captured time.Time
}

// Chunk is an utterance-sized span of audio cut by the segmenter. Chunks are
// handed downstream in Seq order and never overlap.
type Chunk struct {
	Seq        uint64
	Samples    []int16
	SampleRate int
	Start      time.Time
	End        time.Time

	// Coalesced counts the chunks merged into this one while the
	// transcription queue was saturated.
	Coalesced int
}

func (c Chunk) Duration() time.Duration {
	return SampleDuration(len(c.Samples), c.SampleRate)
}

// SampleCount is the number of samples that span d at sampleRate.
func SampleCount(d time.Duration, sampleRate int) int {
	return int(int64(d) * int64(sampleRate) / int64(time.Second))
}

// SampleDuration is the time n samples take to play at sampleRate.
func SampleDuration(n int, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(n) * time.Second / time.Duration(sampleRate)
}

// Float32 returns the samples scaled to [-1, 1] as whisper expects.
func (c Chunk) Float32() []float32 {
	data := make([]float32, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = float32(s) / 32768
	}

	return data
}

// TranscriptSegment is the text produced for one chunk. A partial segment may
// be superseded by later partials and finally by exactly one final segment
// carrying the same ID.
type TranscriptSegment struct {
	ID       uint64
	ChunkSeq uint64
	Text     string
	Final    bool
	Err      error
}

// TranslationSegment carries the translation of the transcript segment with
// id SegmentID. Complete is false while the translation is still streaming.
type TranslationSegment struct {
	SegmentID uint64
	Text      string
	Complete  bool
	Err       error
}
