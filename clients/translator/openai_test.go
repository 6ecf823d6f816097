package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func streamServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		var req struct {
			Stream   bool `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if !req.Stream || len(req.Messages) != 2 || !strings.Contains(req.Messages[0].Content, "Japanese") {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			content, _ := json.Marshal(d)
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\","+
				"\"choices\":[{\"index\":0,\"delta\":{\"content\":%s}}]}\n\n", content)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestTranslate(t *testing.T) {
	t.Run("streams partial translations and returns the cleaned result", func(t *testing.T) {
		server := streamServer(t, []string{"<|im_start|>Hello", ", how", " are you?<|im_end|>"})
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL + "/v1/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var mu sync.Mutex
		var partials []string

		out, err := client.Translate(context.Background(), "こんにちは、お元気ですか", "ja", "en", func(text string) {
			mu.Lock()
			defer mu.Unlock()
			partials = append(partials, text)
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out != "Hello, how are you?" {
			t.Errorf("unexpected translation %q", out)
		}

		if len(partials) != 3 || partials[0] != "Hello" {
			t.Errorf("unexpected partials %q", partials)
		}
	})

	t.Run("empty output becomes a visible placeholder", func(t *testing.T) {
		server := streamServer(t, []string{"<|im_end|>"})
		defer server.Close()

		client, _ := NewClient(&Config{BaseURL: server.URL + "/v1"})

		out, err := client.Translate(context.Background(), "えーと", "ja", "en", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if out != NoTranslation {
			t.Errorf("expected placeholder, got %q", out)
		}
	})

	t.Run("server errors are returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
		}))
		defer server.Close()

		client, _ := NewClient(&Config{BaseURL: server.URL + "/v1"})

		if _, err := client.Translate(context.Background(), "テスト", "ja", "en", nil); err == nil {
			t.Errorf("expected error")
		}
	})
}

func TestClean(t *testing.T) {
	if got := Clean("  <|im_start|>Good morning<|im_end|>\n"); got != "Good morning" {
		t.Errorf("unexpected %q", got)
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(&Config{}); err == nil {
		t.Errorf("expected error without base url")
	}
}
