package ui

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"live-translator/presentation"
)

type fakeControls struct {
	paused atomic.Bool
}

func (c *fakeControls) SetPaused(paused bool) { c.paused.Store(paused) }
func (c *fakeControls) Paused() bool          { return c.paused.Load() }

type recordingSurface struct {
	mu     sync.Mutex
	frames []Frame
}

func (s *recordingSurface) Draw(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
}

func (s *recordingSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recordingSurface) last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[len(s.frames)-1]
}

func newLoop(t *testing.T, buf *presentation.Buffer) (*Loop, tcell.SimulationScreen, *fakeControls, *recordingSurface) {
	t.Helper()

	screen := simulationScreen(t, 80, 24)
	controls := &fakeControls{}
	surface := &recordingSurface{}

	loop, err := NewLoop(&LoopConfig{
		Screen:   screen,
		Surface:  surface,
		Buffer:   buf,
		Controls: controls,
		Interval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return loop, screen, controls, surface
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoop(t *testing.T) {
	t.Run("redraws on its own cadence", func(t *testing.T) {
		loop, _, _, surface := newLoop(t, presentation.New(nil))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			loop.Run(ctx)
			close(done)
		}()

		eventually(t, func() bool { return surface.count() >= 3 })

		cancel()
		<-done
	})

	t.Run("s toggles listening and q quits", func(t *testing.T) {
		loop, screen, controls, _ := newLoop(t, presentation.New(nil))

		done := make(chan struct{})
		go func() {
			loop.Run(context.Background())
			close(done)
		}()

		screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
		eventually(t, controls.Paused)

		screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)
		eventually(t, func() bool { return !controls.Paused() })

		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("loop did not quit")
		}
	})

	t.Run("escape and ctrl-c quit", func(t *testing.T) {
		loop, _, _, _ := newLoop(t, presentation.New(nil))

		for _, key := range []tcell.Key{tcell.KeyEscape, tcell.KeyCtrlC} {
			if !loop.handle(tcell.NewEventKey(key, 0, tcell.ModNone)) {
				t.Errorf("expected key %v to quit", key)
			}
		}
	})

	t.Run("each panel scrolls on its own and is clamped to the history", func(t *testing.T) {
		buf := presentation.New(nil)
		for id := uint64(1); id <= 3; id++ {
			buf.UpsertTranscript(final(id, "line"))
		}

		loop, _, _, surface := newLoop(t, buf)

		key := func(k tcell.Key, r rune, mod tcell.ModMask) {
			loop.handle(tcell.NewEventKey(k, r, mod))
		}

		for i := 0; i < 5; i++ {
			key(tcell.KeyCtrlJ, 0, tcell.ModCtrl)
		}
		if loop.scroll != (Scroll{Target: 2}) || surface.last().Scroll != (Scroll{Target: 2}) {
			t.Errorf("expected only the translation scrolled and clamped to 2, got %+v", loop.scroll)
		}

		key(tcell.KeyRune, 'j', tcell.ModAlt)
		if loop.scroll != (Scroll{Source: 1, Target: 2}) {
			t.Errorf("expected alt-j to scroll the transcript, got %+v", loop.scroll)
		}

		key(tcell.KeyCtrlK, 0, tcell.ModCtrl)
		key(tcell.KeyUp, 0, tcell.ModAlt)
		if loop.scroll != (Scroll{Source: 0, Target: 1}) {
			t.Errorf("expected ctrl-k and alt-up to scroll back, got %+v", loop.scroll)
		}

		key(tcell.KeyDown, 0, tcell.ModNone)
		if loop.scroll != (Scroll{Source: 1, Target: 2}) {
			t.Errorf("expected a plain arrow to scroll both panels, got %+v", loop.scroll)
		}

		for i := 0; i < 3; i++ {
			key(tcell.KeyUp, 0, tcell.ModNone)
		}
		if loop.scroll != (Scroll{}) {
			t.Errorf("expected scroll back at the top, got %+v", loop.scroll)
		}

		if controls := loop.controls.(*fakeControls); controls.Paused() {
			t.Errorf("alt-j/k must not reach the rune keys")
		}
	})

	t.Run("with a quit hook the loop keeps drawing until its context ends", func(t *testing.T) {
		screen := simulationScreen(t, 80, 24)
		surface := &recordingSurface{}

		var quits atomic.Int32
		loop, err := NewLoop(&LoopConfig{
			Screen:   screen,
			Surface:  surface,
			Buffer:   presentation.New(nil),
			Controls: &fakeControls{},
			Interval: 10 * time.Millisecond,
			OnQuit:   func() { quits.Add(1) },
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			loop.Run(ctx)
			close(done)
		}()

		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
		eventually(t, func() bool { return quits.Load() == 1 })

		drawn := surface.count()
		eventually(t, func() bool { return surface.count() > drawn+2 })

		select {
		case <-done:
			t.Fatalf("loop returned before its context ended")
		default:
		}

		if !strings.Contains(surface.last().Status, "Stopping") {
			t.Errorf("expected a stopping status, got %q", surface.last().Status)
		}

		screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
		cancel()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("loop did not stop after cancel")
		}

		if quits.Load() != 1 {
			t.Errorf("expected the quit hook to run once, got %d", quits.Load())
		}
	})

	t.Run("resize redraws without touching the buffer", func(t *testing.T) {
		buf := presentation.New(nil)
		buf.UpsertTranscript(final(1, "line"))
		version := buf.Snapshot().Version

		loop, _, _, surface := newLoop(t, buf)

		if loop.handle(tcell.NewEventResize(100, 30)) {
			t.Errorf("resize should not quit")
		}

		if surface.count() != 1 {
			t.Errorf("expected one redraw, got %d", surface.count())
		}

		if buf.Snapshot().Version != version {
			t.Errorf("render loop mutated the buffer")
		}
	})
}

func TestNewLoop(t *testing.T) {
	if _, err := NewLoop(nil); err == nil {
		t.Errorf("expected error for nil config")
	}

	if _, err := NewLoop(&LoopConfig{Interval: time.Second}); err == nil {
		t.Errorf("expected error for missing screen")
	}
}
