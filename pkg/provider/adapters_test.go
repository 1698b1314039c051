package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOllamaAdapterShowHit(t *testing.T) {
	var pulls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			w.WriteHeader(http.StatusOK)
		case "/api/pull":
			pulls++
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	adapter := &OllamaAdapter{BaseURL: srv.URL}
	client, err := adapter.Load(context.Background(), Identifier{Provider: "ollama", Name: "llama3.2:latest"})
	require.NoError(t, err)
	require.Equal(t, "llama3.2:latest", client.ModelName())
	require.Zero(t, pulls, "present model must not be pulled")
}

func TestOllamaAdapterPullsMissingModel(t *testing.T) {
	var pulls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		case "/api/pull":
			pulls++
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	adapter := &OllamaAdapter{BaseURL: srv.URL}
	client, err := adapter.Load(context.Background(), Identifier{Provider: "ollama", Name: "mistral:7b"})
	require.NoError(t, err)
	require.Equal(t, "mistral:7b", client.ModelName())
	require.Equal(t, 1, pulls)
}

func TestOllamaAdapterPullFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no such model"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &OllamaAdapter{BaseURL: srv.URL}
	_, err := adapter.Load(context.Background(), Identifier{Provider: "ollama", Name: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}

func TestGeminiAdapter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		if r.URL.Path == "/models/gemini-1.5-pro" {
			_, _ = w.Write([]byte(`{"name":"models/gemini-1.5-pro"}`))
			return
		}
		http.Error(w, `{"error":{"message":"not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &GeminiAdapter{APIKey: "secret", BaseURL: srv.URL}
	client, err := adapter.Load(context.Background(), Identifier{Provider: "gemini", Name: "gemini-1.5-pro"})
	require.NoError(t, err)
	require.Equal(t, "gemini", client.Provider())

	_, err = adapter.Load(context.Background(), Identifier{Provider: "gemini", Name: "gemini-9"})
	require.Error(t, err)

	_, err = (&GeminiAdapter{}).Load(context.Background(), Identifier{Provider: "gemini", Name: "gemini-1.5-pro"})
	require.Error(t, err, "missing key fails closed")
}

func TestOpenAIAdapterVerifiesModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/gpt-4.1" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"gpt-4.1","object":"model","created":0,"owned_by":"openai"}`))
			return
		}
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &OpenAIAdapter{APIKey: "secret", BaseURL: srv.URL}
	client, err := adapter.Load(context.Background(), Identifier{Provider: "openai", Name: "gpt-4.1"})
	require.NoError(t, err)
	require.Equal(t, "gpt-4.1", client.ModelName())

	_, err = adapter.Load(context.Background(), Identifier{Provider: "openai", Name: "gpt-99"})
	require.Error(t, err)

	_, err = (&OpenAIAdapter{}).Load(context.Background(), Identifier{Provider: "openai", Name: "gpt-4.1"})
	require.Error(t, err, "missing key fails closed")
}

func TestLocalAdapter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story-7b.bin"), []byte("weights"), 0o600))

	adapter := &LocalAdapter{ModelsDir: dir}

	client, err := adapter.Load(context.Background(), Identifier{Provider: "local", Name: "story-7b"})
	require.NoError(t, err)
	require.Equal(t, "story-7b", client.ModelName())

	_, err = adapter.Load(context.Background(), Identifier{Provider: "local", Name: "missing"})
	require.Error(t, err)

	// A disallowed artifact extension is rejected before any filesystem
	// probe.
	_, err = adapter.Load(context.Background(), Identifier{Provider: "local", Name: "x.exe"})
	require.Error(t, err)
}
