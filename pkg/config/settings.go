// Package config loads layered runtime settings for the generation
// boundary: compiled defaults, then config.json, then state.yaml, then
// environment overrides. Credentials are read from the environment once
// and never written to any log.
package config

import "time"

// Settings is the merged runtime configuration.
type Settings struct {
	EnginePath     string   `json:"engine_path" yaml:"engine_path"`
	OutputDir      string   `json:"output_dir" yaml:"output_dir"`
	PromptsDir     string   `json:"prompts_dir" yaml:"prompts_dir"`
	LogDir         string   `json:"log_dir" yaml:"log_dir"`
	ModelsDir      string   `json:"models_dir" yaml:"models_dir"`
	DefaultModel   string   `json:"default_model" yaml:"default_model"`
	Models         []string `json:"models" yaml:"models"`
	TimeoutSeconds int      `json:"timeout_seconds" yaml:"timeout_seconds"`
	ListenAddr     string   `json:"listen_addr" yaml:"listen_addr"`
}

// Timeout converts the configured seconds into a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DefaultSettings returns the compiled-in baseline every layer overrides.
func DefaultSettings() Settings {
	return Settings{
		EnginePath:     "Write",
		OutputDir:      "Output",
		PromptsDir:     "prompts",
		LogDir:         "Logs",
		ModelsDir:      "Models",
		DefaultModel:   "llama3.2:latest",
		Models:         defaultModels(),
		TimeoutSeconds: 300,
		ListenAddr:     "127.0.0.1:7860",
	}
}

// defaultModels is the menu allow-list offered by the interactive picker.
func defaultModels() []string {
	return []string{
		"llama3.2:latest",
		"llama3.1:latest",
		"mistral:7b",
		"gemini:gemini-1.5-pro",
		"gemini:gemini-1.5-flash",
	}
}

// mergeSettings overlays src onto dst. Only fields src actually sets
// override; zero values preserve the lower layer.
func mergeSettings(dst *Settings, src *Settings) {
	if src == nil {
		return
	}
	if src.EnginePath != "" {
		dst.EnginePath = src.EnginePath
	}
	if src.OutputDir != "" {
		dst.OutputDir = src.OutputDir
	}
	if src.PromptsDir != "" {
		dst.PromptsDir = src.PromptsDir
	}
	if src.LogDir != "" {
		dst.LogDir = src.LogDir
	}
	if src.ModelsDir != "" {
		dst.ModelsDir = src.ModelsDir
	}
	if src.DefaultModel != "" {
		dst.DefaultModel = src.DefaultModel
	}
	if len(src.Models) > 0 {
		dst.Models = append([]string(nil), src.Models...)
	}
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.ListenAddr != "" {
		dst.ListenAddr = src.ListenAddr
	}
}
