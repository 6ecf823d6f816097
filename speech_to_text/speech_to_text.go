package speech_to_text

import (
	"fmt"
	"io"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"live-translator/logging"
	"live-translator/model"
)

type sttImpl struct {
	model    whisper.Model
	language string
}

type Config struct {
	Model    whisper.Model
	Language string
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Model == nil {
		return nil, fmt.Errorf("model is nil")
	}

	if cfg.Language == "" {
		return nil, fmt.Errorf("language is empty")
	}

	return &sttImpl{
		model:    cfg.Model,
		language: cfg.Language,
	}, nil
}

func (stt *sttImpl) Process(chunk model.Chunk, onPartial func(text string)) (string, error) {
	// Create processing context
	context, err := stt.model.NewContext()
	if err != nil {
		return "", err
	}

	if err := context.SetLanguage(stt.language); err != nil {
		return "", fmt.Errorf("set language %q: %w", stt.language, err)
	}

	partial := newCollector()

	// a callback puts the binding in single-segment mode, so partials arrive
	// once per decoded window and not per sentence
	err = context.Process(chunk.Float32(), segmentCallback(partial, onPartial))
	if err != nil {
		return "", err
	}

	text, err := outputSegments(context)
	if err != nil {
		return "", err
	}

	logging.Debug(logging.CategoryTranscribe, "chunk %d (%v): %q", chunk.Seq, chunk.Duration(), text)

	return text, nil
}

// Collect the final text of the context
func outputSegments(context whisper.Context) (string, error) {
	c := newCollector()

	for {
		segment, err := context.NextSegment()
		if err == io.EOF {
			return c.String(), nil
		} else if err != nil {
			return "", err
		}

		c.add(segment)
	}
}

// segmentCallback is nil without a partial listener so whisper can decode
// the chunk as a whole.
func segmentCallback(c *collector, onPartial func(text string)) whisper.SegmentCallback {
	if onPartial == nil {
		return nil
	}

	return func(segment whisper.Segment) {
		if c.add(segment) {
			onPartial(c.String())
		}
	}
}

// minSegmentConfidence is the mean token probability below which a segment is
// treated as decoded noise, in place of a no-speech probability cut-off.
const minSegmentConfidence = 0.15

func confident(segment whisper.Segment) bool {
	if len(segment.Tokens) == 0 {
		return true
	}

	var sum float32
	for _, token := range segment.Tokens {
		sum += token.P
	}

	return sum/float32(len(segment.Tokens)) >= minSegmentConfidence
}

// collector joins segment texts, skipping annotations and repeats.
type collector struct {
	seenText map[string]bool
	parts    []string
}

func newCollector() *collector {
	return &collector{seenText: make(map[string]bool)}
}

// add reports whether text was kept.
func (c *collector) add(segment whisper.Segment) bool {
	text := strings.TrimSpace(segment.Text)
	if text == "" {
		return false
	}

	if !confident(segment) {
		logging.Debug(logging.CategoryTranscribe, "dropping low-confidence segment %q", text)
		return false
	}

	// if segment text starts or ends with a parenthesis or a bracket, then ignore it
	if text[0] == '(' || text[0] == '[' ||
		text[len(text)-1] == ')' || text[len(text)-1] == ']' {
		return false
	}

	// if we've already seen this text, then ignore it
	if c.seenText[text] {
		return false
	}
	c.seenText[text] = true

	// whisper keeps the leading space where the language uses one
	c.parts = append(c.parts, segment.Text)

	return true
}

func (c *collector) String() string {
	return strings.TrimSpace(strings.Join(c.parts, ""))
}
