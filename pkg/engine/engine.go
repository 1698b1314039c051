// Package engine builds and runs the external story generation program
// behind the validation boundary: every value that reaches the argument
// vector has been checked first.
package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Anand0295/storyforge/pkg/procexec"
	"github.com/Anand0295/storyforge/pkg/provider"
	"github.com/Anand0295/storyforge/pkg/security"
)

// allowedFlags is the closed flag set forwarded to the engine. Anything
// else is dropped with a warning, never passed through.
var allowedFlags = map[string]struct{}{
	"-debug":          {},
	"-expand_outline": {},
	"-no_revision":    {},
}

// Request describes one generation run. Exactly one of Prompt and
// PromptFile must be set; PromptFile is resolved under the prompts
// directory.
type Request struct {
	Prompt       string
	PromptFile   string
	OutlineModel string
	ChapterModel string
	Flags        []string
}

// Engine wraps the external generation program. The zero value is not
// usable; Program, PromptsDir and OutputDir must be set.
type Engine struct {
	Program    string
	PromptsDir string
	OutputDir  string
	Timeout    time.Duration
	Runner     *procexec.Runner
}

func (e *Engine) runner() *procexec.Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return &procexec.Runner{}
}

// BuildCommand validates every field of req and assembles the engine's
// argument vector. It returns the command together with the list of
// dropped flags; dropping a flag is a warning, not an error.
func (e *Engine) BuildCommand(req Request) (procexec.Command, []string, error) {
	if err := checkProgram(e.Program); err != nil {
		return procexec.Command{}, nil, err
	}

	promptArg, err := e.resolvePrompt(req)
	if err != nil {
		return procexec.Command{}, nil, err
	}

	args := []string{"-Prompt", promptArg}
	modelFlags := []struct {
		flag  string
		model string
	}{
		{"-InitialOutlineModel", req.OutlineModel},
		{"-ChapterModel", req.ChapterModel},
	}
	for _, mf := range modelFlags {
		if mf.model == "" {
			continue
		}
		if _, err := provider.ParseIdentifier(mf.model); err != nil {
			return procexec.Command{}, nil, err
		}
		args = append(args, mf.flag, mf.model)
	}

	var dropped []string
	for _, flag := range req.Flags {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}
		if _, ok := allowedFlags[flag]; ok {
			args = append(args, flag)
		} else {
			dropped = append(dropped, flag)
		}
	}

	cmd, err := procexec.NewCommand(e.Program, args...)
	if err != nil {
		return procexec.Command{}, nil, err
	}
	return cmd, dropped, nil
}

// resolvePrompt returns the -Prompt argument value: the validated inline
// text, or the confined path of a prompt file whose content also passed
// validation.
func (e *Engine) resolvePrompt(req Request) (string, error) {
	switch {
	case req.PromptFile != "" && req.Prompt != "":
		return "", &security.ValidationError{Class: "prompt", Reason: "both inline text and file given"}
	case req.PromptFile != "":
		cp, err := security.Confine(req.PromptFile, e.PromptsDir)
		if err != nil {
			return "", err
		}
		if _, err := e.LoadPromptFile(req.PromptFile); err != nil {
			return "", err
		}
		return cp.Path(), nil
	default:
		if err := security.CheckPrompt(req.Prompt); err != nil {
			return "", err
		}
		return req.Prompt, nil
	}
}

// LoadPromptFile reads a prompt file confined under the prompts directory.
// The read is bounded at one byte past the prompt limit so an oversized
// file is detected without slurping it, and the content passes the same
// validation as an inline prompt.
func (e *Engine) LoadPromptFile(name string) (string, error) {
	cp, err := security.Confine(name, e.PromptsDir)
	if err != nil {
		return "", err
	}

	f, err := os.Open(cp.Path())
	if err != nil {
		return "", fmt.Errorf("engine: open prompt file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, security.MaxPromptLength+1))
	if err != nil {
		return "", fmt.Errorf("engine: read prompt file: %w", err)
	}
	if len(data) > security.MaxPromptLength {
		return "", &security.ValidationError{Class: "prompt", Reason: "file exceeds max length"}
	}

	prompt := strings.TrimSpace(string(data))
	if err := security.CheckPrompt(prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

// checkProgram validates the engine program path. The base name stem goes
// through the package-name rule; the directory part is the operator's.
func checkProgram(program string) error {
	if strings.TrimSpace(program) == "" {
		return &security.ValidationError{Class: "program", Reason: "empty"}
	}
	base := filepath.Base(program)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return security.CheckPackageName(stem)
}
