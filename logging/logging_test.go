package logging

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestInit(t *testing.T) {
	t.Run("writes levelled lines to the log file", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		err := Init(&Config{FileSys: fs, Path: "test.log", Level: "warning", SessionID: "abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		Info(CategoryApp, "hidden %d", 1)
		Warning(CategorySegmenter, "coalesced %d chunks", 2)
		Fail(CategoryAudio, "device gone")

		Shutdown()

		data, err := afero.ReadFile(fs, "test.log")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := string(data)

		if strings.Contains(out, "hidden") {
			t.Errorf("info line should be filtered at warning level: %s", out)
		}

		if !strings.Contains(out, "coalesced 2 chunks") || !strings.Contains(out, "device gone") {
			t.Errorf("missing expected lines: %s", out)
		}

		if !strings.Contains(out, "[abc]") {
			t.Errorf("missing session prefix: %s", out)
		}
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		err := Init(&Config{FileSys: afero.NewMemMapFs(), Path: "x.log", Level: "loud"})
		if err == nil {
			t.Errorf("expected error for unknown level")
		}
	})
}
