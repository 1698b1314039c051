package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Anand0295/storyforge/pkg/security"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return &Engine{
		Program:    "Write",
		PromptsDir: t.TempDir(),
		OutputDir:  t.TempDir(),
	}
}

func TestBuildCommandInlinePrompt(t *testing.T) {
	e := testEngine(t)

	cmd, dropped, err := e.BuildCommand(Request{
		Prompt:       "Write a fantasy story about a young hero.",
		OutlineModel: "ollama:llama3.2:latest",
		ChapterModel: "mistral:7b",
		Flags:        []string{"-debug", "-no_revision"},
	})
	require.NoError(t, err)
	require.Empty(t, dropped)
	require.Equal(t, "Write", cmd.Program)
	require.Equal(t, []string{
		"-Prompt", "Write a fantasy story about a young hero.",
		"-InitialOutlineModel", "ollama:llama3.2:latest",
		"-ChapterModel", "mistral:7b",
		"-debug", "-no_revision",
	}, cmd.Args)
}

func TestBuildCommandDropsUnknownFlags(t *testing.T) {
	e := testEngine(t)

	cmd, dropped, err := e.BuildCommand(Request{
		Prompt: "A story.",
		Flags:  []string{"-debug", "--rm", "-expand_outline", "; reboot"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"--rm", "; reboot"}, dropped)
	require.Equal(t, []string{"-Prompt", "A story.", "-debug", "-expand_outline"}, cmd.Args)
}

func TestBuildCommandRejectsBadInput(t *testing.T) {
	e := testEngine(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"empty prompt", Request{}},
		{"forbidden prompt characters", Request{Prompt: "rm -rf / && echo `boom`"}},
		{"invalid outline model", Request{Prompt: "A story.", OutlineModel: "bad model"}},
		{"invalid chapter model", Request{Prompt: "A story.", ChapterModel: "anthropic://h:m"}},
		{"both prompt sources", Request{Prompt: "A story.", PromptFile: "p.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.BuildCommand(tt.req)
			require.Error(t, err)
		})
	}
}

func TestBuildCommandRejectsBadProgram(t *testing.T) {
	e := testEngine(t)
	e.Program = "wr;te"
	_, _, err := e.BuildCommand(Request{Prompt: "A story."})
	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadPromptFile(t *testing.T) {
	e := testEngine(t)
	content := "Write a mystery story set in a small coastal town.\n"
	require.NoError(t, os.WriteFile(filepath.Join(e.PromptsDir, "mystery.txt"), []byte(content), 0o600))

	prompt, err := e.LoadPromptFile("mystery.txt")
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(content), prompt)
}

func TestLoadPromptFileRejectsTraversal(t *testing.T) {
	e := testEngine(t)
	_, err := e.LoadPromptFile("../../etc/passwd")
	var terr *security.TraversalError
	require.ErrorAs(t, err, &terr)
}

func TestLoadPromptFileRejectsOversize(t *testing.T) {
	e := testEngine(t)
	big := strings.Repeat("a", security.MaxPromptLength+10)
	require.NoError(t, os.WriteFile(filepath.Join(e.PromptsDir, "big.txt"), []byte(big), 0o600))

	_, err := e.LoadPromptFile("big.txt")
	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoadPromptFileRejectsForbiddenContent(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.PromptsDir, "evil.txt"), []byte("nice $(reboot)"), 0o600))

	_, err := e.LoadPromptFile("evil.txt")
	var verr *security.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBuildCommandPromptFile(t *testing.T) {
	e := testEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.PromptsDir, "idea.txt"), []byte("A romance about rival chefs."), 0o600))

	cmd, _, err := e.BuildCommand(Request{PromptFile: "idea.txt"})
	require.NoError(t, err)
	require.Equal(t, "-Prompt", cmd.Args[0])
	require.True(t, strings.HasSuffix(cmd.Args[1], "idea.txt"), "prompt file is passed as a confined path")
	require.True(t, filepath.IsAbs(cmd.Args[1]))
}
