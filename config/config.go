package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the pipeline. Segmentation thresholds are
// policy, so all of them have documented defaults here instead of constants
// in the segmenter.
type Config struct {
	ModelPath string
	Input     string

	SourceLanguage string
	TargetLanguage string

	TranslationURL     string
	TranslationAPIKey  string
	TranslationWorkers int
	TranslationBacklog int
	TranslationTimeout time.Duration

	SampleRate       int
	FrameSize        int
	SilenceThreshold float64
	FluxRatio        float64
	EndSilence       time.Duration
	PreSpeech        time.Duration
	MinVoiced        time.Duration
	MaxChunk         time.Duration
	QueueSize        int

	MaxLines       int
	RenderInterval time.Duration

	LogFile  string
	LogLevel string
	DumpDir  string
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		SourceLanguage:     "ja",
		TargetLanguage:     "en",
		TranslationURL:     "http://localhost:8080/v1",
		TranslationWorkers: 2,
		TranslationBacklog: 64,
		TranslationTimeout: 60 * time.Second,
		SampleRate:         16000,
		FrameSize:          1024,
		SilenceThreshold:   0.015,
		FluxRatio:          1.75,
		EndSilence:         400 * time.Millisecond,
		PreSpeech:          200 * time.Millisecond,
		MinVoiced:          250 * time.Millisecond,
		MaxChunk:           10 * time.Second,
		QueueSize:          4,
		MaxLines:           500,
		RenderInterval:     50 * time.Millisecond,
		LogFile:            "live-translator.log",
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, a .env file, LT_* environment
// variables and finally the command-line arguments, in increasing precedence.
func Load(args []string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("live-translator", flag.ContinueOnError)

	fs.StringVar(&cfg.ModelPath, "m", cfg.ModelPath, "model file for whisper")
	fs.StringVar(&cfg.Input, "input", cfg.Input, "WAV file to replay instead of the microphone")
	fs.StringVar(&cfg.SourceLanguage, "source", cfg.SourceLanguage, "spoken language")
	fs.StringVar(&cfg.TargetLanguage, "target", cfg.TargetLanguage, "translation language")
	fs.StringVar(&cfg.TranslationURL, "translation-url", cfg.TranslationURL, "OpenAI-compatible endpoint of the local translation server")
	fs.StringVar(&cfg.TranslationAPIKey, "translation-api-key", cfg.TranslationAPIKey, "API key for the translation server, if it wants one")
	fs.IntVar(&cfg.TranslationWorkers, "translation-workers", cfg.TranslationWorkers, "concurrent translation requests")
	fs.IntVar(&cfg.TranslationBacklog, "translation-backlog", cfg.TranslationBacklog, "segments waiting for translation before the oldest is skipped")
	fs.DurationVar(&cfg.TranslationTimeout, "translation-timeout", cfg.TranslationTimeout, "maximum time for one translation")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "capture sample rate")
	fs.IntVar(&cfg.FrameSize, "frame-size", cfg.FrameSize, "samples per captured frame")
	fs.Float64Var(&cfg.SilenceThreshold, "silence-threshold", cfg.SilenceThreshold, "RMS level (0..1) below which a frame is silent")
	fs.Float64Var(&cfg.FluxRatio, "flux-ratio", cfg.FluxRatio, "spectral flux jump that marks speech onset")
	fs.DurationVar(&cfg.EndSilence, "end-silence", cfg.EndSilence, "trailing silence that ends an utterance")
	fs.DurationVar(&cfg.PreSpeech, "pre-speech", cfg.PreSpeech, "audio kept from before speech onset")
	fs.DurationVar(&cfg.MinVoiced, "min-voiced", cfg.MinVoiced, "utterances with less voiced audio are dropped as noise")
	fs.DurationVar(&cfg.MaxChunk, "max-chunk", cfg.MaxChunk, "longest utterance before it is cut")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "utterances waiting for transcription")
	fs.IntVar(&cfg.MaxLines, "max-lines", cfg.MaxLines, "lines kept on screen history")
	fs.DurationVar(&cfg.RenderInterval, "render-interval", cfg.RenderInterval, "redraw cadence")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warning, error)")
	fs.StringVar(&cfg.DumpDir, "dump-dir", cfg.DumpDir, "directory to dump every utterance as WAV, for debugging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	cfg.ModelPath = getEnv("LT_MODEL", cfg.ModelPath)
	cfg.Input = getEnv("LT_INPUT", cfg.Input)
	cfg.SourceLanguage = getEnv("LT_SOURCE_LANG", cfg.SourceLanguage)
	cfg.TargetLanguage = getEnv("LT_TARGET_LANG", cfg.TargetLanguage)
	cfg.TranslationURL = getEnv("LT_TRANSLATION_URL", cfg.TranslationURL)
	cfg.TranslationAPIKey = getEnv("LT_TRANSLATION_API_KEY", cfg.TranslationAPIKey)
	cfg.LogFile = getEnv("LT_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("LT_LOG_LEVEL", cfg.LogLevel)
	cfg.DumpDir = getEnv("LT_DUMP_DIR", cfg.DumpDir)

	ints := map[string]*int{
		"LT_TRANSLATION_WORKERS": &cfg.TranslationWorkers,
		"LT_TRANSLATION_BACKLOG": &cfg.TranslationBacklog,
		"LT_SAMPLE_RATE":         &cfg.SampleRate,
		"LT_FRAME_SIZE":          &cfg.FrameSize,
		"LT_QUEUE_SIZE":          &cfg.QueueSize,
		"LT_MAX_LINES":           &cfg.MaxLines,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"LT_SILENCE_THRESHOLD": &cfg.SilenceThreshold,
		"LT_FLUX_RATIO":        &cfg.FluxRatio,
	}
	for key, dst := range floats {
		if v := getEnv(key, ""); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = f
		}
	}

	durations := map[string]*time.Duration{
		"LT_TRANSLATION_TIMEOUT": &cfg.TranslationTimeout,
		"LT_END_SILENCE":         &cfg.EndSilence,
		"LT_PRE_SPEECH":          &cfg.PreSpeech,
		"LT_MIN_VOICED":          &cfg.MinVoiced,
		"LT_MAX_CHUNK":           &cfg.MaxChunk,
		"LT_RENDER_INTERVAL":     &cfg.RenderInterval,
	}
	for key, dst := range durations {
		if v := getEnv(key, ""); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	return nil
}

// Validate checks required fields and value ranges.
func (cfg *Config) Validate() error {
	if cfg.ModelPath == "" {
		return fmt.Errorf("model file not specified (-m or LT_MODEL)")
	}

	if cfg.SourceLanguage == "" || cfg.TargetLanguage == "" {
		return fmt.Errorf("source and target languages are required")
	}

	if cfg.TranslationURL == "" {
		return fmt.Errorf("translation url is required")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 {
		return fmt.Errorf("sample rate and frame size must be positive")
	}

	if cfg.SilenceThreshold <= 0 || cfg.SilenceThreshold >= 1 {
		return fmt.Errorf("silence threshold must be between 0 and 1, got %v", cfg.SilenceThreshold)
	}

	if cfg.MaxChunk <= cfg.MinVoiced {
		return fmt.Errorf("max chunk (%v) must be longer than min voiced (%v)", cfg.MaxChunk, cfg.MinVoiced)
	}

	if cfg.EndSilence <= 0 || cfg.PreSpeech < 0 {
		return fmt.Errorf("end silence must be positive and pre-speech non-negative")
	}

	if cfg.QueueSize <= 0 || cfg.TranslationWorkers <= 0 || cfg.TranslationBacklog <= 0 {
		return fmt.Errorf("queue size, translation workers and backlog must be positive")
	}

	if cfg.TranslationTimeout <= 0 || cfg.RenderInterval <= 0 {
		return fmt.Errorf("translation timeout and render interval must be positive")
	}

	if cfg.MaxLines < 0 {
		return fmt.Errorf("max lines must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
