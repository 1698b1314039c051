package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Anand0295/storyforge/pkg/engine"
	"github.com/Anand0295/storyforge/pkg/events"
	"github.com/Anand0295/storyforge/pkg/seclog"
)

var (
	genOutlineModel string
	genChapterModel string
	genDebug        bool
	genExpand       bool
	genNoRevision   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt-file>",
	Short: "Generate a story from a prompt file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		defer setupTelemetry(ctx)()

		session, err := seclog.Open(settings.LogDir)
		if err != nil {
			return err
		}
		defer session.Close()

		var flags []string
		if genDebug {
			flags = append(flags, "-debug")
		}
		if genExpand {
			flags = append(flags, "-expand_outline")
		}
		if genNoRevision {
			flags = append(flags, "-no_revision")
		}

		req := engine.Request{
			PromptFile:   args[0],
			OutlineModel: genOutlineModel,
			ChapterModel: genChapterModel,
			Flags:        flags,
		}
		if _, err := newEngine(settings).Generate(ctx, session, req, events.Sink(nil)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Story saved to %s\n", session.StoryPath())
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genOutlineModel, "outline-model", "", "model identifier for the outline pass")
	generateCmd.Flags().StringVar(&genChapterModel, "chapter-model", "", "model identifier for the chapter pass")
	generateCmd.Flags().BoolVar(&genDebug, "debug", false, "forward the engine debug flag")
	generateCmd.Flags().BoolVar(&genExpand, "expand-outline", false, "expand the story outline")
	generateCmd.Flags().BoolVar(&genNoRevision, "no-revision", true, "skip chapter revisions for speed")
	rootCmd.AddCommand(generateCmd)
}
