package provider

// Options carries the per-backend settings the default adapter set needs.
// Credential fields are values, not lookups: the caller resolves them once
// at process start.
type Options struct {
	OllamaHost   string
	OpenAIAPIKey string
	GeminiAPIKey string
	ModelsDir    string
}

// NewDefaultRegistry wires the complete compiled adapter set. Adding a
// backend means adding an adapter here, at compile time.
func NewDefaultRegistry(opts Options) *Registry {
	return NewRegistry(
		&OllamaAdapter{BaseURL: opts.OllamaHost},
		&OpenAIAdapter{APIKey: opts.OpenAIAPIKey},
		&GeminiAdapter{APIKey: opts.GeminiAPIKey},
		&LocalAdapter{ModelsDir: opts.ModelsDir},
	)
}
