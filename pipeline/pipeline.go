package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"live-translator/clients/translator"
	"live-translator/listener"
	"live-translator/logging"
	"live-translator/model"
	"live-translator/presentation"
	"live-translator/recorder"
	"live-translator/speech_extraction"
	"live-translator/speech_to_text"
)

const (
	transcriptQueueSize  = 32
	translationQueueSize = 32
)

type Config struct {
	Source      listener.Interface
	Segmenter   *speech_extraction.Config
	Transcriber speech_to_text.Interface
	Translator  translator.Interface
	Buffer      *presentation.Buffer
	Recorder    recorder.Interface

	SourceLanguage     string
	TargetLanguage     string
	QueueSize          int
	TranslationWorkers int
	TranslationBacklog int
	TranslationTimeout time.Duration
}

// Pipeline wires audio capture, segmentation, transcription and translation
// into the presentation buffer. Stages only talk through channels; the
// buffer is the single shared state.
type Pipeline struct {
	source      listener.Interface
	segmenter   *speech_extraction.Segmenter
	transcriber *transcriber
	translation *translationStage
	buffer      *presentation.Buffer
	queueSize   int
	stats       *Stats
}

func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if cfg.Segmenter == nil {
		return nil, fmt.Errorf("segmenter config is nil")
	}

	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is nil")
	}

	if cfg.Translator == nil {
		return nil, fmt.Errorf("translator is nil")
	}

	if cfg.Buffer == nil {
		return nil, fmt.Errorf("buffer is nil")
	}

	if cfg.QueueSize <= 0 || cfg.TranslationWorkers <= 0 || cfg.TranslationBacklog <= 0 {
		return nil, fmt.Errorf("queue size, translation workers and backlog must be positive")
	}

	if cfg.TranslationTimeout <= 0 {
		return nil, fmt.Errorf("translation timeout must be positive")
	}

	stats := &Stats{}

	segCfg := *cfg.Segmenter
	segCfg.Observer = stats

	segmenter, err := speech_extraction.New(&segCfg)
	if err != nil {
		return nil, fmt.Errorf("error with speech_extraction.New: %w", err)
	}

	rec := cfg.Recorder
	if rec == nil {
		rec = recorder.Noop{}
	}

	return &Pipeline{
		source:    cfg.Source,
		segmenter: segmenter,
		transcriber: &transcriber{
			engine:   cfg.Transcriber,
			recorder: rec,
			stats:    stats,
		},
		translation: &translationStage{
			client:     cfg.Translator,
			sourceLang: cfg.SourceLanguage,
			targetLang: cfg.TargetLanguage,
			workers:    cfg.TranslationWorkers,
			backlog:    cfg.TranslationBacklog,
			timeout:    cfg.TranslationTimeout,
			stats:      stats,
		},
		buffer:    cfg.Buffer,
		queueSize: cfg.QueueSize,
		stats:     stats,
	}, nil
}

func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// SetPaused stops or resumes listening. Audio keeps flowing from the device.
func (p *Pipeline) SetPaused(paused bool) {
	p.segmenter.SetPaused(paused)
}

func (p *Pipeline) Paused() bool {
	return p.segmenter.Paused()
}

// Run blocks until ctx is cancelled (or the source stops) and every stage has
// drained. Only the source watches ctx; the others stop when their input
// channel closes, so in-flight inference always completes and is committed.
// The returned error is the source's, typically a *model.DeviceError.
func (p *Pipeline) Run(ctx context.Context) error {
	var (
		wg           sync.WaitGroup
		chunks       = make(chan model.Chunk, p.queueSize)
		transcripts  = make(chan model.TranscriptSegment, transcriptQueueSize)
		finals       = make(chan model.TranscriptSegment, translationQueueSize)
		translations = make(chan model.TranslationSegment, translationQueueSize)
	)

	stages := []func(){
		func() { p.segmenter.Run(p.source.Frames(), chunks) },
		func() { p.transcriber.run(chunks, transcripts) },
		func() { p.commit(transcripts, finals) },
		func() { p.translation.run(finals, translations) },
		func() { p.apply(translations) },
	}

	for _, stage := range stages {
		wg.Add(1)
		go func(stage func()) {
			defer wg.Done()
			stage()
		}(stage)
	}

	logging.Info(logging.CategoryApp, "pipeline started")

	err := p.source.Run(ctx)
	if err != nil {
		logging.Fail(logging.CategoryAudio, "%v", err)
	}

	wg.Wait()

	logging.Info(logging.CategoryApp, "pipeline drained: %d chunks, %d transcript errors, %d translation errors",
		p.stats.ChunksEmitted.Load(), p.stats.TranscriptErrors.Load(), p.stats.TranslationErrors.Load())

	return err
}

// commit records transcripts and forwards translatable finals.
func (p *Pipeline) commit(in <-chan model.TranscriptSegment, finals chan<- model.TranscriptSegment) {
	defer close(finals)

	for seg := range in {
		p.buffer.UpsertTranscript(seg)

		if seg.Final && seg.Err == nil && seg.Text != "" {
			finals <- seg
		}
	}
}

func (p *Pipeline) apply(in <-chan model.TranslationSegment) {
	for t := range in {
		p.buffer.ApplyTranslation(t)
	}
}
