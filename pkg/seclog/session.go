// Package seclog owns a confined per-run log directory. Every write path is
// re-proven against the session root before any file is touched, so a
// hostile dump id or prefix cannot place a file outside the session.
package seclog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Anand0295/storyforge/pkg/security"
)

const (
	debugDirName    = "LangchainDebug"
	mainLogName     = "Main.log"
	storyFileName   = "Story.md"
	timestampLayout = "2006-01-02_15-04-05"
)

// Log levels run 0 (chatter) to 7 (error), matching the session log format.
const (
	LevelDebug = 1
	LevelInfo  = 5
	LevelWarn  = 6
	LevelError = 7
)

// Exchange is one role-tagged message in a model exchange dump.
type Exchange struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one generation run's confined log directory: an append-only
// main log, a debug-dump subdirectory, and the final story artifact. A
// Session is created by Open and must be released with Close on every exit
// path; it tolerates a double Close.
type Session struct {
	mu      sync.Mutex
	root    security.ConfinedPath
	debug   security.ConfinedPath
	file    *os.File
	console io.Writer
	id      string
	seq     int
	entries []string
	closed  bool
}

// Option adjusts a Session at open time.
type Option func(*Session)

// WithConsole redirects the coloured console echo (default os.Stdout).
func WithConsole(w io.Writer) Option {
	return func(s *Session) { s.console = w }
}

// Open derives a timestamped session directory under prefix, creates it
// together with the debug subdirectory, and opens the main log for append.
// The prefix must be a relative, traversal-free directory name.
func Open(prefix string, opts ...Option) (*Session, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}

	dirName := "Generation_" + time.Now().Format(timestampLayout)
	root, err := security.Confine(dirName, prefix)
	if err != nil {
		return nil, err
	}
	debug, err := security.Confine(debugDirName, root.Path())
	if err != nil {
		return nil, err
	}
	if err := security.EnsureDirectory(debug); err != nil {
		return nil, fmt.Errorf("seclog: create session directory: %w", err)
	}

	logCP, err := security.Confine(mainLogName, root.Path())
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logCP.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("seclog: open session log: %w", err)
	}

	s := &Session{
		root:    root,
		debug:   debug,
		file:    file,
		console: os.Stdout,
		id:      uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Log(fmt.Sprintf("Session %s started in %s", s.id, root.Path()), LevelInfo)
	return s, nil
}

// Dir returns the session root directory.
func (s *Session) Dir() string { return s.root.Path() }

// ID returns the session identifier recorded at open.
func (s *Session) ID() string { return s.id }

// Entries returns a copy of the in-memory log lines.
func (s *Session) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.entries...)
}

// Log appends one formatted line to the session log and the in-memory
// list, synced immediately: session volumes are small and durability wins
// over throughput.
func (s *Session) Log(message string, level int) {
	if level < 0 || level > 7 {
		level = 0
	}
	line := fmt.Sprintf("[%-2d] [%s] %s", level, time.Now().Format(timestampLayout), message)

	s.mu.Lock()
	if s.file != nil && !s.closed {
		if _, err := s.file.WriteString(line + "\n"); err == nil {
			_ = s.file.Sync()
		}
	}
	s.entries = append(s.entries, line)
	console := s.console
	s.mu.Unlock()

	if console != nil {
		fmt.Fprintln(console, colorize(line, level))
	}
}

// SaveExchange writes one model exchange as a paired JSON and markdown dump
// under the debug subdirectory. The mutex is held across the whole
// read-write-increment sequence so concurrent calls can never share a
// sequence number, and the counter advances only after a successful write.
func (s *Session) SaveExchange(id string, exchanges []Exchange) error {
	if err := checkComponent(id); err != nil {
		return err
	}

	s.mu.Lock()
	base := fmt.Sprintf("%d_%s", s.seq, id)
	mdPath, err := s.writeExchange(base, exchanges)
	if err == nil {
		s.seq++
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.Log(fmt.Sprintf("Wrote exchange dump %s to %s", base, mdPath), LevelInfo)
	return nil
}

// writeExchange writes the dump pair for an already-reserved base name.
// Callers hold s.mu.
func (s *Session) writeExchange(base string, exchanges []Exchange) (string, error) {
	jsonCP, err := security.Confine(base+".json", s.debug.Path())
	if err != nil {
		return "", err
	}
	mdCP, err := security.Confine(base+".md", s.debug.Path())
	if err != nil {
		return "", err
	}

	payload := make([]map[string]string, 0, len(exchanges))
	for _, e := range exchanges {
		payload = append(payload, map[string]string{"role": e.Role, "content": e.Content})
	}
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return "", fmt.Errorf("seclog: encode exchange dump: %w", err)
	}
	if err := os.WriteFile(jsonCP.Path(), data, 0o644); err != nil {
		return "", fmt.Errorf("seclog: write %s: %w", base+".json", err)
	}
	if err := os.WriteFile(mdCP.Path(), []byte(renderMarkdown(base, exchanges)), 0o644); err != nil {
		return "", fmt.Errorf("seclog: write %s: %w", base+".md", err)
	}
	return mdCP.Path(), nil
}

// SaveStory writes the story artifact verbatim under the session root.
func (s *Session) SaveStory(content string) error {
	cp, err := security.Confine(storyFileName, s.root.Path())
	if err != nil {
		return err
	}
	if err := os.WriteFile(cp.Path(), []byte(content), 0o644); err != nil {
		return fmt.Errorf("seclog: write story: %w", err)
	}
	s.Log(fmt.Sprintf("Wrote story to %s", cp.Path()), LevelInfo)
	return nil
}

// StoryPath returns where SaveStory places the artifact.
func (s *Session) StoryPath() string {
	return filepath.Join(s.root.Path(), storyFileName)
}

// Close releases the log file handle. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// renderMarkdown renders exchanges for human inspection. Literal fence
// delimiters inside content are stripped so a hostile message cannot close
// its own fence and break out of the rendering.
func renderMarkdown(title string, exchanges []Exchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Debug Exchange %s\n**Note: '```' tags have been removed in this version.**\n", title)
	for _, e := range exchanges {
		role := e.Role
		if role == "" {
			role = "unknown"
		}
		fmt.Fprintf(&b, "\n\n\n# Role: %s\n", role)
		fmt.Fprintf(&b, "```%s```", strings.ReplaceAll(e.Content, "```", ""))
	}
	return b.String()
}

func checkPrefix(prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return &security.ValidationError{Class: "log prefix", Reason: "empty"}
	}
	if strings.ContainsRune(prefix, 0) {
		return &security.ValidationError{Class: "log prefix", Reason: "contains NUL byte"}
	}
	if filepath.IsAbs(prefix) || strings.HasPrefix(prefix, "/") || strings.HasPrefix(prefix, `\`) {
		return &security.ValidationError{Class: "log prefix", Reason: "must be relative"}
	}
	for _, segment := range strings.FieldsFunc(prefix, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return &security.ValidationError{Class: "log prefix", Reason: "contains parent segment"}
		}
	}
	return nil
}

// checkComponent validates a single filename component for dump ids.
func checkComponent(id string) error {
	if strings.TrimSpace(id) == "" {
		return &security.ValidationError{Class: "dump id", Reason: "empty"}
	}
	if strings.ContainsRune(id, 0) {
		return &security.ValidationError{Class: "dump id", Reason: "contains NUL byte"}
	}
	if strings.ContainsAny(id, `/\`) {
		return &security.ValidationError{Class: "dump id", Reason: "contains separator"}
	}
	if strings.Contains(id, "..") {
		return &security.ValidationError{Class: "dump id", Reason: "contains parent segment"}
	}
	return nil
}
