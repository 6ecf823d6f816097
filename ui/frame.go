// Package ui renders the presentation buffer to the terminal.
package ui

import (
	"fmt"
	"time"

	"live-translator/presentation"
)

const (
	PlaceholderTranslating = "Translating..."
	PlaceholderError       = "[error]"
	PlaceholderSkipped     = "-"
	PlaceholderListening   = "Listening..."
)

type Style int

const (
	StyleNormal Style = iota
	StyleLatest
	StyleOlder
	StylePlaceholder
	StyleError
)

type StyledLine struct {
	Text  string
	Style Style
}

// Status is the live pipeline state shown above the history.
type Status struct {
	Paused            bool
	Stopping          bool
	SampleRate        int
	SamplesHeard      int64
	SamplesSinceChunk int64
	Transcribing      int64
	Translating       int64
	Queued            int64
	DroppedSamples    int64
	Errors            int64

	SourceLanguage string
	TargetLanguage string
}

// Scroll counts the newest entries skipped in each column.
type Scroll struct {
	Source int
	Target int
}

// Frame is everything a Surface needs to draw one screen. Source and Target
// hold one entry per presentation line, newest first, each scrolled on its
// own.
type Frame struct {
	Status string

	LiveTitle string
	Live      StyledLine

	SourceTitle string
	TargetTitle string
	Source      []StyledLine
	Target      []StyledLine

	// Scroll is the requested scroll clamped to the history.
	Scroll Scroll
}

// Compose builds a Frame from a snapshot. It is a pure function of its
// arguments.
func Compose(snap *presentation.Snapshot, status Status, scroll Scroll) Frame {
	frame := Frame{
		Status:      statusLine(status),
		LiveTitle:   fmt.Sprintf("Live %s", languageLabel(status.SourceLanguage)),
		SourceTitle: fmt.Sprintf("Transcript %s", languageLabel(status.SourceLanguage)),
		TargetTitle: fmt.Sprintf("Translation %s", languageLabel(status.TargetLanguage)),
	}

	switch {
	case snap != nil && snap.Live.Text != "":
		frame.Live = StyledLine{Text: snap.Live.Text, Style: StyleNormal}
	case status.Paused:
		frame.Live = StyledLine{Text: "Paused. Press 's' to resume listening", Style: StylePlaceholder}
	default:
		frame.Live = StyledLine{
			Text:  fmt.Sprintf("%s (%d samples processed this segment)", PlaceholderListening, status.SamplesSinceChunk),
			Style: StylePlaceholder,
		}
	}

	if snap == nil || len(snap.Lines) == 0 {
		frame.Source = []StyledLine{{Text: PlaceholderListening, Style: StylePlaceholder}}
		frame.Target = []StyledLine{{Text: "", Style: StylePlaceholder}}
		return frame
	}

	last := len(snap.Lines) - 1
	frame.Scroll = Scroll{
		Source: clamp(scroll.Source, 0, last),
		Target: clamp(scroll.Target, 0, last),
	}

	for i := last - frame.Scroll.Source; i >= 0; i-- {
		source, _ := entry(snap.Lines[i])
		frame.Source = append(frame.Source, source)
	}

	for i := last - frame.Scroll.Target; i >= 0; i-- {
		_, target := entry(snap.Lines[i])
		frame.Target = append(frame.Target, target)
	}

	return frame
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func entry(line presentation.Line) (StyledLine, StyledLine) {
	style := StyleOlder
	if line.Latest {
		style = StyleLatest
	}

	source := StyledLine{Text: line.Source, Style: style}
	if line.SourceErr != nil {
		source = StyledLine{Text: PlaceholderError, Style: StyleError}
	}

	var target StyledLine
	switch line.TranslationState {
	case presentation.TranslationPending:
		target = StyledLine{Text: PlaceholderTranslating, Style: StylePlaceholder}
	case presentation.TranslationPartial:
		target = StyledLine{Text: line.Translation, Style: StylePlaceholder}
	case presentation.TranslationDone:
		target = StyledLine{Text: line.Translation, Style: style}
	case presentation.TranslationFailed:
		target = StyledLine{Text: PlaceholderError, Style: StyleError}
	case presentation.TranslationSkipped:
		target = StyledLine{Text: PlaceholderSkipped, Style: StyleError}
	}

	return source, target
}

func statusLine(status Status) string {
	if status.Stopping {
		return "Status: Stopping, finishing in-flight work..."
	}

	if status.Paused {
		return "Status: Paused (Press 's' to Start, 'q' to Quit)"
	}

	line := fmt.Sprintf("Status: Listening (%d samples processed) (Press 's' to Stop, 'q' to Quit)", status.SamplesHeard)

	if busy := status.Transcribing + status.Translating + status.Queued; busy > 0 {
		line += fmt.Sprintf(" | transcribing %d, translating %d, %d queued",
			status.Transcribing, status.Translating, status.Queued)
	}

	if status.DroppedSamples > 0 && status.SampleRate > 0 {
		dropped := time.Duration(status.DroppedSamples) * time.Second / time.Duration(status.SampleRate)
		line += fmt.Sprintf(" | %v of audio dropped", dropped.Round(100*time.Millisecond))
	}

	if status.Errors > 0 {
		line += fmt.Sprintf(" | %d errors", status.Errors)
	}

	return line
}

func languageLabel(code string) string {
	if code == "" {
		return ""
	}
	return "(" + code + ")"
}
