package translator

import "context"

// Interface translates text. onPartial, if not nil, receives the translation
// accumulated so far while it streams in.
type Interface interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string, onPartial func(text string)) (string, error)
}
