package config

import (
	"os"
	"strings"
	"sync"
)

// Credentials are provider secrets resolved from the environment exactly
// once at process start. They travel as values to the adapters and never
// through settings files or logs.
type Credentials struct {
	OpenAIAPIKey string
	GeminiAPIKey string
	OllamaHost   string
}

// String masks every field so an accidental %v or log call cannot leak a
// key.
func (Credentials) String() string { return "config.Credentials{REDACTED}" }

var (
	credsOnce sync.Once
	creds     Credentials
)

// LoadCredentials reads provider secrets from the environment. Repeated
// calls return the values captured on the first call.
func LoadCredentials() Credentials {
	credsOnce.Do(func() {
		creds = Credentials{
			OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			OllamaHost:   strings.TrimSpace(os.Getenv("OLLAMA_HOST")),
		}
	})
	return creds
}
