package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Anand0295/storyforge/pkg/events"
	"github.com/Anand0295/storyforge/pkg/procexec"
	"github.com/Anand0295/storyforge/pkg/seclog"
)

// artifactWait bounds how long Generate waits for the engine's output file
// to appear after the process has already exited.
const artifactWait = 3 * time.Second

// artifactExtensions are the story file types the engine is known to emit.
var artifactExtensions = map[string]bool{".txt": true, ".md": true}

// Generate runs one full generation: validate, execute, collect the newest
// story artifact from the output directory and save it into the session.
// It returns the story content. The sink may be nil.
func (e *Engine) Generate(ctx context.Context, session *seclog.Session, req Request, sink events.Sink) (string, error) {
	cmd, dropped, err := e.BuildCommand(req)
	if err != nil {
		session.Log(fmt.Sprintf("Rejected generation request: %v", err), seclog.LevelError)
		return "", err
	}
	for _, flag := range dropped {
		msg := fmt.Sprintf("Ignoring unrecognized flag %q", flag)
		session.Log(msg, seclog.LevelWarn)
		sink.Emit(session.ID(), events.Warning, events.WarningPayload{Message: msg})
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("engine: create output directory: %w", err)
	}

	// Watch before starting the process so a fast engine cannot write the
	// artifact between run and watch.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("engine: watch output directory: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(e.OutputDir); err != nil {
		return "", fmt.Errorf("engine: watch output directory: %w", err)
	}

	started := time.Now()
	session.Log(fmt.Sprintf("Executing %s with %d arguments", cmd.Program, len(cmd.Args)), seclog.LevelInfo)
	sink.Emit(session.ID(), events.EngineStart, events.EnginePayload{Program: cmd.Program})

	result, runErr := e.runner().Run(ctx, cmd, e.Timeout)
	sink.Emit(session.ID(), events.EngineFinish, events.EnginePayload{
		Program:  cmd.Program,
		ExitCode: result.ExitCode,
		Duration: result.Duration,
		Err:      runErr,
	})
	if runErr != nil {
		var terr *procexec.TimeoutError
		var xerr *procexec.ExitError
		switch {
		case errors.As(runErr, &terr):
			session.Log(fmt.Sprintf("Engine timed out after %s", terr.Timeout), seclog.LevelError)
		case errors.As(runErr, &xerr):
			session.Log(fmt.Sprintf("Engine failed with code %d", xerr.Code), seclog.LevelError)
			if s := strings.TrimSpace(xerr.Stderr); s != "" {
				session.Log("Engine stderr: "+s, seclog.LevelError)
			}
		default:
			session.Log(fmt.Sprintf("Engine error: %v", runErr), seclog.LevelError)
		}
		return "", runErr
	}
	session.Log(fmt.Sprintf("Engine finished in %s", result.Duration.Round(time.Millisecond)), seclog.LevelInfo)

	artifact, err := e.awaitArtifact(ctx, watcher, started)
	if err != nil {
		session.Log(err.Error(), seclog.LevelError)
		return "", err
	}

	content, err := os.ReadFile(artifact)
	if err != nil {
		return "", fmt.Errorf("engine: read story artifact: %w", err)
	}
	if err := session.SaveStory(string(content)); err != nil {
		return "", err
	}
	sink.Emit(session.ID(), events.ArtifactSaved, events.ArtifactPayload{Path: session.StoryPath()})
	return string(content), nil
}

// awaitArtifact locates the newest story file in the output directory. If
// none was written since the run started it gives the filesystem a short
// grace period via the watcher, then falls back to the newest file overall.
func (e *Engine) awaitArtifact(ctx context.Context, watcher *fsnotify.Watcher, since time.Time) (string, error) {
	if path := newestArtifact(e.OutputDir, since); path != "" {
		return path, nil
	}

	deadline := time.NewTimer(artifactWait)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				if path := newestArtifact(e.OutputDir, time.Time{}); path != "" {
					return path, nil
				}
				return "", fmt.Errorf("engine: no story artifact found in %s", e.OutputDir)
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !artifactExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			return ev.Name, nil
		case <-watcher.Errors:
			continue
		case <-ctx.Done():
			return "", fmt.Errorf("engine: waiting for story artifact: %w", ctx.Err())
		case <-deadline.C:
			if path := newestArtifact(e.OutputDir, time.Time{}); path != "" {
				return path, nil
			}
			return "", fmt.Errorf("engine: no story artifact found in %s", e.OutputDir)
		}
	}
}

// newestArtifact returns the most recently modified story file in dir that
// is newer than since, or "" when there is none.
func newestArtifact(dir string, since time.Time) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !artifactExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(since) {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newest
}
