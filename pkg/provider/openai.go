package provider

import (
	"context"
	"errors"
	"net/http"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter verifies a model against the OpenAI API. The key comes from
// configuration, loaded once at process start; it is never logged.
type OpenAIAdapter struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) Load(ctx context.Context, id Identifier) (Client, error) {
	if a.APIKey == "" {
		return nil, errors.New("openai: no API key configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(a.APIKey)}
	if a.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.BaseURL))
	}
	if a.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(a.HTTPClient))
	}

	client := openaisdk.NewClient(opts...)
	if _, err := client.Models.Get(ctx, id.Name); err != nil {
		return nil, err
	}
	return &openaiClient{model: id.Name}, nil
}

type openaiClient struct {
	model string
}

func (c *openaiClient) Provider() string  { return "openai" }
func (c *openaiClient) ModelName() string { return c.model }
