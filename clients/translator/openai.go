package translator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Model is the name sent to the local server. Servers that host a single
// model ignore it.
const Model = "qwen2.5-7b-instruct"

const NoTranslation = "[No translation generated]"

const systemPrompt = "You are an expert translator. Translate the given %s text to %s accurately and concisely. " +
	"Output only the %s translation. Do not add any pleasantries or extra explanations. " +
	"Do not translate text that is already in %s, keep it as is."

var templateMarkers = []string{"<|im_start|>", "<|im_end|>", "<|eot_id|>"}

type clientImpl struct {
	client *openai.Client
}

type Config struct {
	BaseURL string
	APIKey  string
}

// NewClient talks to any OpenAI-compatible chat endpoint, typically a local
// llama.cpp or Ollama server.
func NewClient(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("missing parameter: cfg.BaseURL")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &clientImpl{
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (c *clientImpl) Translate(ctx context.Context, text, sourceLang, targetLang string, onPartial func(text string)) (string, error) {
	source, target := languageName(sourceLang), languageName(targetLang)

	req := openai.ChatCompletionRequest{
		Model: Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPrompt, source, target, target, target),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.1,
		Stream:      true,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "create completion stream")
	}

	defer stream.Close()

	var raw strings.Builder

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", errors.Wrap(err, "receive completion")
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}

		raw.WriteString(resp.Choices[0].Delta.Content)

		if onPartial != nil {
			if partial := Clean(raw.String()); partial != "" {
				onPartial(partial)
			}
		}
	}

	translation := Clean(raw.String())
	if translation == "" {
		return NoTranslation, nil
	}

	return translation, nil
}

// Clean strips chat-template markers some local servers leak into content.
func Clean(s string) string {
	for _, marker := range templateMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}

	return strings.TrimSpace(s)
}

var languageNames = map[string]string{
	"ja": "Japanese",
	"en": "English",
	"zh": "Chinese",
	"ko": "Korean",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
}

func languageName(tag string) string {
	if name, ok := languageNames[strings.ToLower(tag)]; ok {
		return name
	}

	return tag
}
