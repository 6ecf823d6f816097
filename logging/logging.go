// Package logging wraps the standard logger with categories and levels. The
// terminal belongs to the UI while the pipeline runs, so output goes to a file.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const (
	CategoryApp        = "App"
	CategoryAudio      = "Audio"
	CategorySegmenter  = "Segmenter"
	CategoryTranscribe = "Transcribe"
	CategoryTranslate  = "Translate"
	CategoryBuffer     = "Buffer"
	CategoryUI         = "UI"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var (
	mu     sync.RWMutex
	logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	level  = LevelInfo
	closer io.Closer
)

type Config struct {
	FileSys   afero.Fs
	Path      string
	Level     string
	SessionID string
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}

	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Init redirects logging to cfg.Path on cfg.FileSys.
func Init(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return fmt.Errorf("fileSys is nil")
	}

	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	f, err := cfg.FileSys.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", cfg.Path, err)
	}

	prefix := ""
	if cfg.SessionID != "" {
		prefix = "[" + cfg.SessionID + "] "
	}

	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
	}

	logger = log.New(f, prefix, log.LstdFlags|log.Lmicroseconds)
	level = lvl
	closer = f

	return nil
}

// Shutdown closes the log file, if any, and falls back to stderr.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()

	if closer != nil {
		closer.Close()
		closer = nil
	}

	logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	level = LevelInfo
}

func output(lvl Level, tag, category, msg string, params ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if lvl < level {
		return
	}

	logger.Printf("%-7s %-10s %s", tag, category, fmt.Sprintf(msg, params...))
}

func Debug(category, msg string, params ...interface{}) {
	output(LevelDebug, "DEBUG", category, msg, params...)
}

func Info(category, msg string, params ...interface{}) {
	output(LevelInfo, "INFO", category, msg, params...)
}

// Warning is used for degraded-quality conditions such as coalesced audio.
func Warning(category, msg string, params ...interface{}) {
	output(LevelWarning, "WARNING", category, msg, params...)
}

func Error(category, msg string, params ...interface{}) {
	output(LevelError, "ERROR", category, msg, params...)
}

// Fail logs an unrecoverable failure. It is always written.
func Fail(category, msg string, params ...interface{}) {
	output(LevelError+1, "FAIL", category, msg, params...)
}
