package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Anand0295/storyforge/pkg/config"
	"github.com/Anand0295/storyforge/pkg/engine"
	"github.com/Anand0295/storyforge/pkg/provider"
	"github.com/Anand0295/storyforge/pkg/telemetry"
)

var configDir string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "StoryForge safe story generation boundary",
	Long: `storyforge drives the external story generation engine behind a
validated boundary: whitelisted inputs, confined paths, vector-only process
execution and per-run session logs.

Commands:
  menu      Interactive model and prompt picker
  generate  Generate a story from a prompt file
  web       Local browser demo backed by the real engine
  space     Self-contained hosted demo, no engine required`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".",
		"directory holding config.json and state.yaml")
}

// loadSettings resolves the layered configuration for every subcommand.
func loadSettings() (*config.Settings, error) {
	settings, _, err := (&config.Loader{Root: configDir}).Load()
	return settings, err
}

// newEngine wires the generation engine from settings.
func newEngine(settings *config.Settings) *engine.Engine {
	return &engine.Engine{
		Program:    settings.EnginePath,
		PromptsDir: settings.PromptsDir,
		OutputDir:  settings.OutputDir,
		Timeout:    settings.Timeout(),
	}
}

// newRegistry wires the compiled adapter set with credentials resolved
// once from the environment.
func newRegistry(settings *config.Settings) *provider.Registry {
	creds := config.LoadCredentials()
	return provider.NewDefaultRegistry(provider.Options{
		OllamaHost:   creds.OllamaHost,
		OpenAIAPIKey: creds.OpenAIAPIKey,
		GeminiAPIKey: creds.GeminiAPIKey,
		ModelsDir:    settings.ModelsDir,
	})
}

// setupTelemetry installs tracing and returns a cleanup to defer.
func setupTelemetry(ctx context.Context) func() {
	shutdown, err := telemetry.Setup(ctx, "storyforge")
	if err != nil {
		log.Printf("telemetry disabled: %v", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}
}
