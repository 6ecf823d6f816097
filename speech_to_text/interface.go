package speech_to_text

import "live-translator/model"

// Interface runs speech-to-text over one chunk. onPartial, if not nil, is
// called with the text decoded so far while inference is still running.
type Interface interface {
	Process(chunk model.Chunk, onPartial func(text string)) (string, error)
}
