package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply when only the model is given", func(t *testing.T) {
		cfg, err := Load([]string{"-m", "ggml-base.bin"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.EndSilence != 400*time.Millisecond || cfg.MaxChunk != 10*time.Second {
			t.Errorf("unexpected defaults: %+v", cfg)
		}

		if cfg.SourceLanguage != "ja" || cfg.TargetLanguage != "en" {
			t.Errorf("unexpected languages: %s -> %s", cfg.SourceLanguage, cfg.TargetLanguage)
		}
	})

	t.Run("flags override environment which overrides defaults", func(t *testing.T) {
		t.Setenv("LT_MODEL", "from-env.bin")
		t.Setenv("LT_MAX_CHUNK", "5s")
		t.Setenv("LT_QUEUE_SIZE", "9")

		cfg, err := Load([]string{"-max-chunk", "7s"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ModelPath != "from-env.bin" {
			t.Errorf("expected model from env, got %s", cfg.ModelPath)
		}

		if cfg.MaxChunk != 7*time.Second {
			t.Errorf("expected flag to win, got %v", cfg.MaxChunk)
		}

		if cfg.QueueSize != 9 {
			t.Errorf("expected queue size from env, got %d", cfg.QueueSize)
		}
	})

	t.Run("missing model is rejected", func(t *testing.T) {
		t.Setenv("LT_MODEL", "")

		if _, err := Load(nil); err == nil {
			t.Errorf("expected error without model")
		}
	})

	t.Run("malformed environment values are rejected", func(t *testing.T) {
		t.Setenv("LT_END_SILENCE", "soon")

		if _, err := Load([]string{"-m", "x.bin"}); err == nil {
			t.Errorf("expected error for bad duration")
		}
	})

	t.Run("max chunk must exceed min voiced", func(t *testing.T) {
		if _, err := Load([]string{"-m", "x.bin", "-max-chunk", "100ms"}); err == nil {
			t.Errorf("expected validation error")
		}
	})
}
