package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"live-translator/logging"
	"live-translator/pipeline"
	"live-translator/presentation"
)

type LoopConfig struct {
	Screen   tcell.Screen
	Surface  Surface
	Buffer   *presentation.Buffer
	Controls Controls
	Stats    *pipeline.Stats
	Interval time.Duration

	// OnQuit, if set, is called on a quit key instead of returning, and the
	// loop keeps drawing until its context is done so a draining pipeline
	// stays visible.
	OnQuit func()

	SampleRate     int
	SourceLanguage string
	TargetLanguage string
}

// Loop redraws the surface on a fixed cadence and handles keys. It only ever
// reads the buffer.
type Loop struct {
	screen   tcell.Screen
	surface  Surface
	buffer   *presentation.Buffer
	controls Controls
	stats    *pipeline.Stats
	interval time.Duration
	onQuit   func()
	stopping bool

	sampleRate     int
	sourceLanguage string
	targetLanguage string

	scroll Scroll
}

func NewLoop(cfg *LoopConfig) (*Loop, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Screen == nil {
		return nil, fmt.Errorf("screen is nil")
	}

	if cfg.Buffer == nil {
		return nil, fmt.Errorf("buffer is nil")
	}

	if cfg.Controls == nil {
		return nil, fmt.Errorf("controls is nil")
	}

	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("render interval must be positive")
	}

	surface := cfg.Surface
	if surface == nil {
		surface = NewScreen(cfg.Screen)
	}

	stats := cfg.Stats
	if stats == nil {
		stats = &pipeline.Stats{}
	}

	return &Loop{
		screen:         cfg.Screen,
		surface:        surface,
		buffer:         cfg.Buffer,
		controls:       cfg.Controls,
		stats:          stats,
		interval:       cfg.Interval,
		onQuit:         cfg.OnQuit,
		sampleRate:     cfg.SampleRate,
		sourceLanguage: cfg.SourceLanguage,
		targetLanguage: cfg.TargetLanguage,
	}, nil
}

// Run draws until ctx is cancelled, or until the user quits when no OnQuit
// hook is set.
func (l *Loop) Run(ctx context.Context) {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go l.screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.draw()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}

			if !l.handle(ev) || l.stopping {
				continue
			}

			logging.Info(logging.CategoryUI, "quit requested")

			if l.onQuit == nil {
				return
			}

			l.stopping = true
			l.onQuit()
			l.draw()
		case <-ticker.C:
			l.draw()
		}
	}
}

// handle reacts to one terminal event and reports whether to quit.
func (l *Loop) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		l.screen.Sync()
		l.draw()

	case *tcell.EventKey:
		mod := ev.Modifiers()

		// ctrl scrolls the translation, alt the transcript, plain arrows both
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyCtrlJ:
			l.scrollBy(0, 1)
		case tcell.KeyCtrlK:
			l.scrollBy(0, -1)
		case tcell.KeyDown, tcell.KeyUp:
			step := 1
			if ev.Key() == tcell.KeyUp {
				step = -1
			}

			switch {
			case mod&tcell.ModCtrl != 0:
				l.scrollBy(0, step)
			case mod&tcell.ModAlt != 0:
				l.scrollBy(step, 0)
			default:
				l.scrollBy(step, step)
			}
		case tcell.KeyRune:
			if mod&tcell.ModAlt != 0 {
				switch ev.Rune() {
				case 'j':
					l.scrollBy(1, 0)
				case 'k':
					l.scrollBy(-1, 0)
				}
				return false
			}

			switch ev.Rune() {
			case 'q':
				return true
			case 's':
				paused := !l.controls.Paused()
				l.controls.SetPaused(paused)
				logging.Info(logging.CategoryUI, "listening paused: %v", paused)
				l.draw()
			}
		}
	}

	return false
}

func (l *Loop) scrollBy(source, target int) {
	l.scroll.Source = max(l.scroll.Source+source, 0)
	l.scroll.Target = max(l.scroll.Target+target, 0)
	l.draw()
}

func (l *Loop) draw() {
	frame := Compose(l.buffer.Snapshot(), l.status(), l.scroll)
	l.scroll = frame.Scroll
	l.surface.Draw(frame)
}

func (l *Loop) status() Status {
	return Status{
		Paused:            l.controls.Paused(),
		Stopping:          l.stopping,
		SampleRate:        l.sampleRate,
		SamplesHeard:      l.stats.SamplesHeard.Load(),
		SamplesSinceChunk: l.stats.SamplesSinceChunk.Load(),
		Transcribing:      l.stats.Transcribing.Load(),
		Translating:       l.stats.Translating.Load(),
		Queued:            l.stats.TranslationsQueued.Load(),
		DroppedSamples:    l.stats.DroppedSamples.Load(),
		Errors:            l.stats.TranscriptErrors.Load() + l.stats.TranslationErrors.Load(),
		SourceLanguage:    l.sourceLanguage,
		TargetLanguage:    l.targetLanguage,
	}
}
