// Package presentation holds the ordered log of transcript lines and their
// translations that the UI renders.
package presentation

import (
	"sort"
	"sync"
	"sync/atomic"

	"live-translator/logging"
	"live-translator/model"
)

type TranslationState int

const (
	TranslationPending TranslationState = iota
	TranslationPartial
	TranslationDone
	TranslationFailed
	// TranslationSkipped marks lines that will never be translated, such as
	// lines whose transcription failed.
	TranslationSkipped
)

// Line pairs a final transcript segment with its translation.
type Line struct {
	ID       uint64
	ChunkSeq uint64

	Source    string
	SourceErr error

	Translation      string
	TranslationState TranslationState
	TranslationErr   error

	// Latest marks the most recently appended line.
	Latest bool
}

// Live is the partial transcript of the utterance being decoded.
type Live struct {
	ID   uint64
	Text string
}

// Snapshot is an immutable view of the buffer. Lines are ordered by ID.
type Snapshot struct {
	Version uint64
	Lines   []Line
	Latest  uint64
	Live    Live
	Evicted uint64
}

type Config struct {
	// MaxLines bounds retention; zero keeps everything.
	MaxLines int
}

// Buffer is the one piece of state shared between pipeline stages. Writers
// serialise on a mutex and publish a fresh snapshot, so readers never wait.
type Buffer struct {
	mu       sync.Mutex
	maxLines int
	lines    []Line
	latest   uint64
	live     Live
	evicted  uint64
	version  uint64

	snapshot atomic.Pointer[Snapshot]
}

func New(cfg *Config) *Buffer {
	b := &Buffer{}
	if cfg != nil && cfg.MaxLines > 0 {
		b.maxLines = cfg.MaxLines
	}

	b.snapshot.Store(&Snapshot{})

	return b
}

// Snapshot returns the latest published view without locking.
func (b *Buffer) Snapshot() *Snapshot {
	return b.snapshot.Load()
}

// UpsertTranscript records a transcript segment. Partials only update the
// live line; a final becomes a Line keyed by its ID. It reports whether a
// line was added.
func (b *Buffer) UpsertTranscript(seg model.TranscriptSegment) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !seg.Final {
		if seg.ID >= b.live.ID {
			b.live = Live{ID: seg.ID, Text: seg.Text}
			b.publish()
		}
		return false
	}

	if b.live.ID <= seg.ID {
		b.live = Live{}
	}

	if seg.Text == "" && seg.Err == nil {
		// nothing was said; no line for it
		b.publish()
		return false
	}

	line := Line{
		ID:        seg.ID,
		ChunkSeq:  seg.ChunkSeq,
		Source:    seg.Text,
		SourceErr: seg.Err,
	}
	if seg.Err != nil {
		line.TranslationState = TranslationSkipped
	}

	added := b.insert(line)
	b.publish()

	return added
}

func (b *Buffer) insert(line Line) bool {
	n := len(b.lines)

	if n == 0 || line.ID > b.lines[n-1].ID {
		b.lines = append(b.lines, line)
	} else {
		i := b.find(line.ID)
		if i < n && b.lines[i].ID == line.ID {
			logging.Warning(logging.CategoryBuffer, "segment %d is already final, ignoring", line.ID)
			return false
		}

		if i == 0 && b.evicted > 0 && line.ID < b.lines[0].ID {
			logging.Warning(logging.CategoryBuffer, "segment %d is older than the retention window, ignoring", line.ID)
			return false
		}

		b.lines = append(b.lines, Line{})
		copy(b.lines[i+1:], b.lines[i:])
		b.lines[i] = line
	}

	if line.ID > b.latest {
		b.latest = line.ID
	}

	b.evict()

	return true
}

// ApplyTranslation attaches t to the line with the referenced ID. Unknown IDs
// are logged and ignored. A partial never replaces a finished translation.
func (b *Buffer) ApplyTranslation(t model.TranslationSegment) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.find(t.SegmentID)
	if i >= len(b.lines) || b.lines[i].ID != t.SegmentID {
		logging.Warning(logging.CategoryBuffer, "translation for unknown segment %d dropped", t.SegmentID)
		return false
	}

	line := &b.lines[i]

	if line.TranslationState == TranslationDone || line.TranslationState == TranslationFailed {
		if !t.Complete {
			return false
		}
	}

	switch {
	case t.Err != nil:
		line.TranslationState = TranslationFailed
		line.TranslationErr = t.Err
	case t.Complete:
		line.TranslationState = TranslationDone
		line.Translation = t.Text
		line.TranslationErr = nil
	default:
		line.TranslationState = TranslationPartial
		line.Translation = t.Text
	}

	b.publish()

	return true
}

func (b *Buffer) find(id uint64) int {
	return sort.Search(len(b.lines), func(i int) bool {
		return b.lines[i].ID >= id
	})
}

// evict drops the oldest lines beyond the retention window.
func (b *Buffer) evict() {
	if b.maxLines == 0 || len(b.lines) <= b.maxLines {
		return
	}

	over := len(b.lines) - b.maxLines
	b.lines = append(b.lines[:0:0], b.lines[over:]...)
	b.evicted += uint64(over)
}

// publish must be called with mu held.
func (b *Buffer) publish() {
	b.version++

	lines := make([]Line, len(b.lines))
	copy(lines, b.lines)
	for i := range lines {
		lines[i].Latest = lines[i].ID == b.latest
	}

	b.snapshot.Store(&Snapshot{
		Version: b.version,
		Lines:   lines,
		Latest:  b.latest,
		Live:    b.live,
		Evicted: b.evicted,
	})
}
