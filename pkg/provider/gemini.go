package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiAdapter verifies a model against the Generative Language API.
type GeminiAdapter struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (a *GeminiAdapter) Name() string { return "gemini" }

func (a *GeminiAdapter) Load(ctx context.Context, id Identifier) (Client, error) {
	if a.APIKey == "" {
		return nil, errors.New("gemini: no API key configured")
	}

	base := defaultGeminiBaseURL
	if strings.TrimSpace(a.BaseURL) != "" {
		base = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	}
	endpoint := base + "/models/" + url.PathEscape(id.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", a.APIKey)

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("gemini: model lookup returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return &geminiClient{model: id.Name}, nil
}

type geminiClient struct {
	model string
}

func (c *geminiClient) Provider() string  { return "gemini" }
func (c *geminiClient) ModelName() string { return c.model }
