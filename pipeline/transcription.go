package pipeline

import (
	"fmt"

	"live-translator/logging"
	"live-translator/model"
	"live-translator/recorder"
	"live-translator/speech_to_text"
)

// transcriber runs inference for one chunk at a time, in chunk order, and
// gives every chunk exactly one final segment.
type transcriber struct {
	engine   speech_to_text.Interface
	recorder recorder.Interface
	stats    *Stats
	nextID   uint64
}

func (t *transcriber) run(in <-chan model.Chunk, out chan<- model.TranscriptSegment) {
	defer close(out)

	for chunk := range in {
		t.nextID++
		id := t.nextID

		if err := t.recorder.Save(chunk); err != nil {
			logging.Warning(logging.CategoryTranscribe, "dumping chunk %d: %v", chunk.Seq, err)
		}

		if chunk.Coalesced > 0 {
			logging.Info(logging.CategoryTranscribe, "chunk %d carries %d coalesced utterances", chunk.Seq, chunk.Coalesced)
		}

		out <- t.transcribe(id, chunk, out)
	}

	logging.Info(logging.CategoryTranscribe, "transcription drained after %d segments", t.nextID)
}

func (t *transcriber) transcribe(id uint64, chunk model.Chunk, out chan<- model.TranscriptSegment) (seg model.TranscriptSegment) {
	seg = model.TranscriptSegment{ID: id, ChunkSeq: chunk.Seq, Final: true}

	t.stats.Transcribing.Add(1)
	defer t.stats.Transcribing.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			seg.Text = ""
			seg.Err = &model.InferenceError{Stage: "transcription", SegmentID: id, Err: fmt.Errorf("panic: %v", r)}
		}

		if seg.Err != nil {
			t.stats.TranscriptErrors.Add(1)
			logging.Error(logging.CategoryTranscribe, "%v", seg.Err)
		}
	}()

	text, err := t.engine.Process(chunk, func(partial string) {
		out <- model.TranscriptSegment{ID: id, ChunkSeq: chunk.Seq, Text: partial}
	})

	t.stats.SamplesProcessed.Add(int64(len(chunk.Samples)))

	if err != nil {
		seg.Err = &model.InferenceError{Stage: "transcription", SegmentID: id, Err: err}
		return seg
	}

	seg.Text = text

	return seg
}
