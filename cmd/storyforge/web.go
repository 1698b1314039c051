package main

import (
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Anand0295/storyforge/pkg/config"
	"github.com/Anand0295/storyforge/pkg/engine"
	"github.com/Anand0295/storyforge/pkg/webdemo"
)

var webAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Local browser demo backed by the real engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWeb(cmd, webdemo.VariantLocal)
	},
}

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Self-contained hosted demo, no engine required",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWeb(cmd, webdemo.VariantSpace)
	},
}

func runWeb(cmd *cobra.Command, variant webdemo.Variant) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer setupTelemetry(ctx)()

	addr := settings.ListenAddr
	if webAddr != "" {
		addr = webAddr
	}

	srv := &webdemo.Server{
		Variant: variant,
		LogDir:  settings.LogDir,
		Addr:    addr,
	}
	if variant == webdemo.VariantLocal {
		srv.Engine = newEngine(settings)
	}

	// Hot-reload settings for the lifetime of the server. The listen
	// address stays fixed; engine and log directory swap in place.
	watcher, err := config.NewWatcher(&config.Loader{Root: configDir},
		config.OnChange(func(st *config.Settings) {
			var eng *engine.Engine
			if variant == webdemo.VariantLocal {
				eng = newEngine(st)
			}
			srv.Reconfigure(st.LogDir, eng)
		}),
		config.OnError(func(err error) {
			log.Printf("config reload failed: %v", err)
		}),
	)
	if err != nil {
		return err
	}
	if _, err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Close()

	return srv.ListenAndServe(ctx)
}

func init() {
	for _, c := range []*cobra.Command{webCmd, spaceCmd} {
		c.Flags().StringVar(&webAddr, "addr", "", "listen address (overrides settings)")
		rootCmd.AddCommand(c)
	}
}
