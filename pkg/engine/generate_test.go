package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Anand0295/storyforge/pkg/events"
	"github.com/Anand0295/storyforge/pkg/procexec"
	"github.com/Anand0295/storyforge/pkg/seclog"
)

// writeFakeEngine installs a shell script standing in for the generation
// program. The script body controls exit code and artifact output.
func writeFakeEngine(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "write")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func generateTestEngine(t *testing.T, scriptBody string) (*Engine, *seclog.Session) {
	t.Helper()
	t.Chdir(t.TempDir())

	bin := t.TempDir()
	e := &Engine{
		Program:    writeFakeEngine(t, bin, scriptBody),
		PromptsDir: t.TempDir(),
		OutputDir:  filepath.Join(bin, "out"),
		Timeout:    10 * time.Second,
	}
	session, err := seclog.Open("Logs", seclog.WithConsole(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return e, session
}

func TestGenerateSavesNewestArtifact(t *testing.T) {
	var seen []events.Event
	sink := events.Sink(func(ev events.Event) { seen = append(seen, ev) })

	e, session := generateTestEngine(t, "")
	require.NoError(t, os.MkdirAll(e.OutputDir, 0o755))
	// The script writes the story itself, like the real engine does.
	e.Program = writeFakeEngine(t, filepath.Dir(e.Program),
		`printf 'Once upon a time.' > "`+filepath.Join(e.OutputDir, "Story_1.txt")+`"`)

	content, err := e.Generate(context.Background(), session, Request{Prompt: "A story."}, sink)
	require.NoError(t, err)
	require.Equal(t, "Once upon a time.", content)

	saved, err := os.ReadFile(session.StoryPath())
	require.NoError(t, err)
	require.Equal(t, "Once upon a time.", string(saved))

	types := make([]events.EventType, 0, len(seen))
	for _, ev := range seen {
		types = append(types, ev.Type)
	}
	require.Equal(t, []events.EventType{events.EngineStart, events.EngineFinish, events.ArtifactSaved}, types)
}

func TestGenerateSurfacesExitError(t *testing.T) {
	e, session := generateTestEngine(t, `echo 'model exploded' >&2; exit 3`)

	_, err := e.Generate(context.Background(), session, Request{Prompt: "A story."}, nil)
	var xerr *procexec.ExitError
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, 3, xerr.Code)

	var found bool
	for _, line := range session.Entries() {
		if strings.Contains(line, "model exploded") {
			found = true
		}
	}
	require.True(t, found, "stderr must reach the session log")
}

func TestGenerateSurfacesTimeout(t *testing.T) {
	e, session := generateTestEngine(t, `sleep 30`)
	e.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := e.Generate(context.Background(), session, Request{Prompt: "A story."}, nil)
	var terr *procexec.TimeoutError
	require.ErrorAs(t, err, &terr)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateLogsDroppedFlags(t *testing.T) {
	e, session := generateTestEngine(t, "")
	require.NoError(t, os.MkdirAll(e.OutputDir, 0o755))
	e.Program = writeFakeEngine(t, filepath.Dir(e.Program),
		`printf 'ok' > "`+filepath.Join(e.OutputDir, "Story.txt")+`"`)

	var warnings []events.Event
	sink := events.Sink(func(ev events.Event) {
		if ev.Type == events.Warning {
			warnings = append(warnings, ev)
		}
	})

	_, err := e.Generate(context.Background(), session, Request{
		Prompt: "A story.",
		Flags:  []string{"-debug", "--privileged"},
	}, sink)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	payload, ok := warnings[0].Payload.(events.WarningPayload)
	require.True(t, ok)
	require.Contains(t, payload.Message, "--privileged")
}

func TestGenerateFailsWhenNoArtifact(t *testing.T) {
	e, session := generateTestEngine(t, `exit 0`)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := e.Generate(ctx, session, Request{Prompt: "A story."}, nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, context.DeadlineExceeded))
}
