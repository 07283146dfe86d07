package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeOllama serves the chat and embedding endpoints of an Ollama server.
// Every embedding has the given size and starts with the input's length.
func fakeOllama(t *testing.T, size int) *httptest.Server {
	t.Helper()

	vector := func(text string) []float32 {
		v := make([]float32, size)
		if size > 0 {
			v[0] = float32(len(text))
		}
		return v
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"model":"test","message":{"role":"assistant","content":"from ollama"},"done":true}` + "\n"))
		case "/api/embeddings":
			prompt, _ := body["prompt"].(string)
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vector(prompt)})
		case "/api/embed":
			var inputs []string
			switch in := body["input"].(type) {
			case string:
				inputs = []string{in}
			case []any:
				for _, s := range in {
					str, _ := s.(string)
					inputs = append(inputs, str)
				}
			}
			out := make([][]float32, len(inputs))
			for i, s := range inputs {
				out[i] = vector(s)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOllamaClient_Chat(t *testing.T) {
	server := fakeOllama(t, 4)
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "gemma2:2b", 4)
	if err != nil {
		t.Fatalf("NewOllamaClient() error = %v", err)
	}

	reply, err := client.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.Contains(reply, "from ollama") {
		t.Errorf("Chat() = %q", reply)
	}
}

func TestOllamaClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name       string
		serverSize int
		wantSize   int
		texts      []string
		wantErr    bool
	}{
		{name: "matching size", serverSize: 4, wantSize: 4, texts: []string{"a", "bbb"}},
		{name: "size mismatch", serverSize: 3, wantSize: 4, texts: []string{"a"}, wantErr: true},
		{name: "empty input", serverSize: 4, wantSize: 4, texts: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := fakeOllama(t, tt.serverSize)
			defer server.Close()

			client, err := NewOllamaClient(server.URL, "nomic-embed-text", tt.wantSize)
			if err != nil {
				t.Fatalf("NewOllamaClient() error = %v", err)
			}

			got, err := client.EmbedTexts(context.Background(), tt.texts)
			if tt.wantErr {
				if err == nil {
					t.Error("EmbedTexts() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("EmbedTexts() error = %v", err)
			}
			if len(got) != len(tt.texts) {
				t.Fatalf("EmbedTexts() returned %d vectors, want %d", len(got), len(tt.texts))
			}
			for i, v := range got {
				if len(v) != tt.wantSize {
					t.Errorf("vector %d size = %d, want %d", i, len(v), tt.wantSize)
				}
			}
		})
	}
}
