package main

import (
	"bufio"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Anand0295/storyforge/pkg/engine"
	"github.com/Anand0295/storyforge/pkg/events"
	"github.com/Anand0295/storyforge/pkg/seclog"
	"github.com/Anand0295/storyforge/pkg/security"
)

const examplePrompt = "Write a fantasy story about a young hero discovering hidden powers."

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive model and prompt picker",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		defer setupTelemetry(ctx)()

		out := cmd.OutOrStdout()
		in := bufio.NewScanner(cmd.InOrStdin())
		eng := newEngine(settings)

		fmt.Fprintln(out, strings.Repeat("=", 60))
		fmt.Fprintln(out, "StoryForge Interactive Menu")
		fmt.Fprintln(out, strings.Repeat("=", 60))

		model, err := pickModel(out, in, settings.Models)
		if err != nil {
			return err
		}

		req, err := pickPrompt(out, in, eng)
		if err != nil {
			return err
		}
		req.ChapterModel = model

		fmt.Fprintln(out, "\nOptional Flags:")
		fmt.Fprintln(out, "-debug: Enable debug mode")
		fmt.Fprintln(out, "-expand_outline: Expand story outline")
		fmt.Fprintln(out, "-no_revision: Skip chapter revisions")
		fmt.Fprint(out, "Enter flags (space-separated, or press Enter for none): ")
		if in.Scan() {
			req.Flags = strings.Fields(in.Text())
		}

		session, err := seclog.Open(settings.LogDir)
		if err != nil {
			return err
		}
		defer session.Close()
		sink := sessionSink(session)
		sink.Emit(session.ID(), events.SessionStart, events.SessionPayload{Dir: session.Dir()})
		defer sink.Emit(session.ID(), events.SessionEnd, events.SessionPayload{Dir: session.Dir()})

		registry := newRegistry(settings)
		client, err := registry.Load(ctx, model)
		if err != nil {
			return err
		}
		sink.Emit(session.ID(), events.ModelLoad, events.ModelLoadPayload{
			Identifier: model,
			Provider:   client.Provider(),
		})
		fmt.Fprintf(out, "\nModel %s ready on provider %s\n", client.ModelName(), client.Provider())

		if _, err := eng.Generate(ctx, session, req, sink); err != nil {
			fmt.Fprintf(out, "\nStory generation failed: %v\n", err)
			return err
		}
		fmt.Fprintf(out, "\nStory generation completed successfully!\nSaved to %s\n", session.StoryPath())
		return nil
	},
}

// pickModel shows the configured allow-list and reads a 1-based choice.
func pickModel(out io.Writer, in *bufio.Scanner, models []string) (string, error) {
	fmt.Fprintln(out, "\nAvailable Models:")
	for i, m := range models {
		fmt.Fprintf(out, "%d. %s\n", i+1, m)
	}
	fmt.Fprintf(out, "Select model (1-%d): ", len(models))
	if !in.Scan() {
		return "", fmt.Errorf("no model selected")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(in.Text()))
	if err != nil || idx < 1 || idx > len(models) {
		return "", fmt.Errorf("invalid model selection %q", in.Text())
	}
	return models[idx-1], nil
}

// pickPrompt offers the example prompt, a file under the prompts directory
// or custom text. Every path ends in a validated request.
func pickPrompt(out io.Writer, in *bufio.Scanner, eng *engine.Engine) (engine.Request, error) {
	fmt.Fprintln(out, "\nPrompt Options:")
	fmt.Fprintln(out, "1. Use example prompt")
	fmt.Fprintln(out, "2. Load from file")
	fmt.Fprintln(out, "3. Enter custom prompt")
	fmt.Fprint(out, "Select prompt option (1-3): ")
	if !in.Scan() {
		return engine.Request{}, fmt.Errorf("no prompt option selected")
	}

	switch strings.TrimSpace(in.Text()) {
	case "1":
		return engine.Request{Prompt: examplePrompt}, nil
	case "2":
		fmt.Fprint(out, "Enter prompt file path: ")
		if !in.Scan() {
			return engine.Request{}, fmt.Errorf("no prompt file given")
		}
		name := strings.TrimSpace(in.Text())
		if _, err := eng.LoadPromptFile(name); err != nil {
			return engine.Request{}, err
		}
		return engine.Request{PromptFile: name}, nil
	case "3":
		fmt.Fprintf(out, "Enter custom prompt (max %d chars): ", security.MaxPromptLength)
		if !in.Scan() {
			return engine.Request{}, fmt.Errorf("no prompt given")
		}
		prompt := strings.TrimSpace(in.Text())
		if err := security.CheckPrompt(prompt); err != nil {
			return engine.Request{}, err
		}
		return engine.Request{Prompt: prompt}, nil
	default:
		return engine.Request{}, fmt.Errorf("invalid prompt option %q", in.Text())
	}
}

// sessionSink mirrors run events into the session log so the per-run
// record captures the full lifecycle, not just engine output.
func sessionSink(session *seclog.Session) events.Sink {
	return func(ev events.Event) {
		level := seclog.LevelInfo
		if ev.Type == events.Warning {
			level = seclog.LevelWarn
		}
		session.Log(fmt.Sprintf("Event %s: %+v", ev.Type, ev.Payload), level)
	}
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
