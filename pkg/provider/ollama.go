package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaHost is used when neither the identifier nor configuration
// names a host.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// pulls of large models can run for minutes over slow links
const ollamaPullTimeout = 15 * time.Minute

// OllamaAdapter verifies a model against a local Ollama daemon and pulls it
// when missing, mirroring the daemon's own show-then-pull flow.
type OllamaAdapter struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (a *OllamaAdapter) Name() string { return "ollama" }

func (a *OllamaAdapter) Load(ctx context.Context, id Identifier) (Client, error) {
	base := a.baseURL(id)
	client := a.httpClient()

	if err := a.show(ctx, client, base, id.Name); err == nil {
		return &ollamaClient{baseURL: base, model: id.Name}, nil
	}

	// Not present locally: attempt a pull, then trust its success.
	if err := a.pull(ctx, client, base, id.Name); err != nil {
		return nil, err
	}
	return &ollamaClient{baseURL: base, model: id.Name}, nil
}

func (a *OllamaAdapter) show(ctx context.Context, client *http.Client, base, model string) error {
	return a.post(ctx, client, base+"/api/show", map[string]any{"model": model})
}

func (a *OllamaAdapter) pull(ctx context.Context, client *http.Client, base, model string) error {
	pullCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, ollamaPullTimeout)
		defer cancel()
	}
	return a.post(pullCtx, client, base+"/api/pull", map[string]any{"model": model, "stream": false})
}

func (a *OllamaAdapter) post(ctx context.Context, client *http.Client, url string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("ollama: %s returned status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func (a *OllamaAdapter) baseURL(id Identifier) string {
	if id.Host != "" {
		host := id.Host
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		return strings.TrimRight(host, "/")
	}
	if strings.TrimSpace(a.BaseURL) != "" {
		return strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	}
	return DefaultOllamaHost
}

func (a *OllamaAdapter) httpClient() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return http.DefaultClient
}

type ollamaClient struct {
	baseURL string
	model   string
}

func (c *ollamaClient) Provider() string  { return "ollama" }
func (c *ollamaClient) ModelName() string { return c.model }
func (c *ollamaClient) Host() string      { return c.baseURL }
