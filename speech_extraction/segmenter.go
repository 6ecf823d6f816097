package speech_extraction

import (
	"fmt"
	"sync/atomic"
	"time"

	"live-translator/logging"
	"live-translator/model"
	"live-translator/ring_buffer"
	"live-translator/speech_extraction/vad"
)

// Observer receives segmenter events that only matter for statistics.
type Observer interface {
	FrameHeard(samples int)
	ChunkEmitted(chunk model.Chunk)
	Backpressure(coalesced int, droppedSamples int)
}

type Config struct {
	SampleRate       int
	FrameSize        int
	SilenceThreshold float64
	FluxRatio        float64
	EndSilence       time.Duration
	PreSpeech        time.Duration
	MinVoiced        time.Duration
	MaxChunk         time.Duration
	Observer         Observer
}

// Segmenter turns a continuous frame stream into utterance chunks. All
// durations are counted in samples so the output does not depend on how fast
// frames arrive.
type Segmenter struct {
	sampleRate int
	endSilence int
	minVoiced  int
	maxChunk   int
	maxPending int

	detector  *vad.Detector
	preRoll   *ring_buffer.RingBuffer
	observer  Observer
	paused    atomic.Bool
	wasPaused bool

	inSpeech   bool
	buffer     []int16
	voiced     int
	silenceRun int
	start      time.Time
	end        time.Time

	pending *model.Chunk
	nextSeq uint64
}

func New(cfg *Config) (*Segmenter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("sample rate and frame size must be positive")
	}

	samples := func(d time.Duration) int {
		return model.SampleCount(d, cfg.SampleRate)
	}

	if samples(cfg.MaxChunk) <= samples(cfg.MinVoiced) {
		return nil, fmt.Errorf("max chunk must be longer than min voiced")
	}

	if samples(cfg.EndSilence) <= 0 {
		return nil, fmt.Errorf("end silence must be positive")
	}

	return &Segmenter{
		sampleRate: cfg.SampleRate,
		endSilence: samples(cfg.EndSilence),
		minVoiced:  samples(cfg.MinVoiced),
		maxChunk:   samples(cfg.MaxChunk),
		maxPending: 2 * samples(cfg.MaxChunk),
		detector: vad.New(cfg.FrameSize, vad.Config{
			Threshold: cfg.SilenceThreshold,
			FluxRatio: cfg.FluxRatio,
		}),
		preRoll:  ring_buffer.New(samples(cfg.PreSpeech)),
		observer: cfg.Observer,
	}, nil
}

// SetPaused stops (or resumes) cutting utterances. Frames keep being consumed
// while paused so the device is never stalled.
func (s *Segmenter) SetPaused(paused bool) {
	s.paused.Store(paused)
}

func (s *Segmenter) Paused() bool {
	return s.paused.Load()
}

// Run consumes frames until in is closed, then flushes the utterance in
// progress, delivers anything still pending and closes out.
func (s *Segmenter) Run(in <-chan model.Frame, out chan<- model.Chunk) {
	defer close(out)

	for frame := range in {
		s.process(frame, out)
		s.tryFlush(out)
	}

	if s.inSpeech {
		s.finalize(out)
	}

	s.flush(out)
}

func (s *Segmenter) process(frame model.Frame, out chan<- model.Chunk) {
	if s.observer != nil {
		s.observer.FrameHeard(len(frame.Samples))
	}

	if s.paused.Load() {
		if !s.wasPaused {
			logging.Info(logging.CategorySegmenter, "paused, dropping utterance in progress")
			s.reset()
			s.wasPaused = true
		}
		return
	}
	s.wasPaused = false

	voiced := s.detector.Voiced(frame.Samples)

	if !s.inSpeech {
		if !voiced {
			// keep a buffer of the first bit of audio before detection
			s.preRoll.Add(frame.Samples)
			return
		}

		preRoll := s.preRoll.Read()
		s.inSpeech = true
		s.buffer = append(s.buffer[:0], preRoll...)
		s.start = frame.Captured.Add(-s.duration(len(preRoll)))
		s.voiced = 0
		s.silenceRun = 0
	}

	s.buffer = append(s.buffer, frame.Samples...)
	s.end = frame.Captured.Add(s.duration(len(frame.Samples)))

	if voiced {
		s.voiced += len(frame.Samples)
		s.silenceRun = 0
	} else {
		s.silenceRun += len(frame.Samples)
	}

	if s.silenceRun >= s.endSilence {
		s.finalize(out)
	} else if len(s.buffer) >= s.maxChunk {
		logging.Debug(logging.CategorySegmenter, "utterance reached %v, cutting", s.duration(len(s.buffer)))
		s.finalize(out)
	}
}

func (s *Segmenter) finalize(out chan<- model.Chunk) {
	defer s.reset()

	if s.voiced < s.minVoiced {
		logging.Debug(logging.CategorySegmenter, "dropping %v of audio with %v voiced as noise",
			s.duration(len(s.buffer)), s.duration(s.voiced))
		return
	}

	samples := make([]int16, len(s.buffer))
	copy(samples, s.buffer)

	s.emit(model.Chunk{
		Samples:    samples,
		SampleRate: s.sampleRate,
		Start:      s.start,
		End:        s.end,
	}, out)
}

// emit hands a chunk downstream without blocking. A saturated queue is the
// backpressure signal: the chunk joins whatever is already pending and the
// oldest pending audio goes first if that grows too long.
func (s *Segmenter) emit(chunk model.Chunk, out chan<- model.Chunk) {
	dropped := 0

	if s.pending == nil {
		s.pending = &chunk
	} else {
		s.pending.Samples = append(s.pending.Samples, chunk.Samples...)
		s.pending.End = chunk.End
		s.pending.Coalesced++

		if over := len(s.pending.Samples) - s.maxPending; over > 0 {
			s.pending.Samples = append([]int16(nil), s.pending.Samples[over:]...)
			s.pending.Start = s.pending.Start.Add(s.duration(over))
			dropped = over
		}
	}

	if s.tryFlush(out) {
		return
	}

	logging.Warning(logging.CategorySegmenter, "%v: holding %v of audio, %d utterances coalesced, %v of oldest audio dropped",
		model.ErrBackpressure, s.duration(len(s.pending.Samples)), s.pending.Coalesced, s.duration(dropped))

	if s.observer != nil {
		s.observer.Backpressure(s.pending.Coalesced, dropped)
	}
}

func (s *Segmenter) tryFlush(out chan<- model.Chunk) bool {
	if s.pending == nil {
		return true
	}

	chunk := s.next()

	select {
	case out <- chunk:
		s.delivered(chunk)
		return true
	default:
		return false
	}
}

// flush blocks until the pending chunk is accepted.
func (s *Segmenter) flush(out chan<- model.Chunk) {
	if s.pending == nil {
		return
	}

	chunk := s.next()
	out <- chunk
	s.delivered(chunk)
}

func (s *Segmenter) next() model.Chunk {
	chunk := *s.pending
	chunk.Seq = s.nextSeq + 1
	return chunk
}

func (s *Segmenter) delivered(chunk model.Chunk) {
	s.nextSeq = chunk.Seq
	s.pending = nil

	if s.observer != nil {
		s.observer.ChunkEmitted(chunk)
	}
}

func (s *Segmenter) reset() {
	s.inSpeech = false
	s.buffer = s.buffer[:0]
	s.voiced = 0
	s.silenceRun = 0
	s.preRoll.Clear()
	s.detector.Reset()
}

func (s *Segmenter) duration(samples int) time.Duration {
	return model.SampleDuration(samples, s.sampleRate)
}
