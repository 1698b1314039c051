// Package webdemo serves the two browser front-ends: a local variant that
// drives the real generation engine, and a self-contained space variant
// that fabricates a story without any backend.
package webdemo

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/Anand0295/storyforge/pkg/engine"
	"github.com/Anand0295/storyforge/pkg/events"
	"github.com/Anand0295/storyforge/pkg/procexec"
	"github.com/Anand0295/storyforge/pkg/seclog"
	"github.com/Anand0295/storyforge/pkg/security"
)

// Variant selects which front-end behaviour the server exposes.
type Variant string

const (
	// VariantLocal runs the real engine for every request.
	VariantLocal Variant = "local"
	// VariantSpace fabricates a templated story with no backend, for
	// hosted demos where no engine is installed.
	VariantSpace Variant = "space"
)

// examplePrompts are offered on the form as one-click starters.
var examplePrompts = []string{
	"Write a fantasy adventure about a young mage discovering an ancient prophecy that threatens to destroy their kingdom.",
	"Create a sci-fi thriller about a space colony that loses contact with Earth and discovers they're not alone.",
	"Tell a mystery story about a detective investigating strange disappearances in a small coastal town.",
	"Write a romance novel about two rival chefs competing in a cooking competition.",
	"Create an adventure story about explorers finding a lost civilization in the Amazon rainforest.",
}

const defaultMaxConns = 16

// Server is one demo front-end instance.
type Server struct {
	Variant  Variant
	Engine   *engine.Engine
	LogDir   string
	Addr     string
	MaxConns int
	Events   events.Sink

	mu        sync.Mutex
	lastStory string
	storyPath string
}

type pageData struct {
	Variant  Variant
	Examples []string
	Story    string
	Message  string
	HasStory bool
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>StoryForge</title></head>
<body>
<h1>StoryForge</h1>
<p><em>Generate full-length novels with AI.</em></p>
{{if .Message}}<p><strong>{{.Message}}</strong></p>{{end}}
<form method="POST" action="/generate">
<textarea name="prompt" rows="5" cols="80" placeholder="Describe the story you want to generate..."></textarea><br>
<button type="submit">Generate Novel</button>
</form>
<h2>Example Prompts</h2>
<ul>
{{range .Examples}}<li>{{.}}</li>
{{end}}</ul>
{{if .HasStory}}
<h2>Generated Story</h2>
<pre>{{.Story}}</pre>
<p><a href="/story">Download Story.md</a></p>
{{end}}
</body>
</html>
`))

// Handler returns the demo's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /story", s.handleStory)
	return mux
}

// ListenAndServe serves until ctx is cancelled. The listener is capped so
// a burst of generation requests cannot exhaust the host.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Addr
	if addr == "" {
		addr = "127.0.0.1:7860"
	}
	maxConns := s.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("webdemo: listen %s: %w", addr, err)
	}
	ln = netutil.LimitListener(ln, maxConns)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("webdemo: %s variant listening on %s", s.Variant, ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	story := s.lastStory
	s.mu.Unlock()
	s.render(w, http.StatusOK, pageData{
		Variant:  s.Variant,
		Examples: examplePrompts,
		Story:    story,
		HasStory: story != "",
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		s.render(w, http.StatusBadRequest, pageData{
			Variant:  s.Variant,
			Examples: examplePrompts,
			Message:  "Please enter a story prompt!",
		})
		return
	}

	s.mu.Lock()
	eng := s.Engine
	logDir := s.logDir()
	s.mu.Unlock()

	session, err := seclog.Open(logDir)
	if err != nil {
		log.Printf("webdemo: open session: %v", err)
		http.Error(w, "Could not start a generation session.", http.StatusInternalServerError)
		return
	}
	defer session.Close()
	s.Events.Emit(session.ID(), events.SessionStart, events.SessionPayload{Dir: session.Dir()})
	defer s.Events.Emit(session.ID(), events.SessionEnd, events.SessionPayload{Dir: session.Dir()})

	var story string
	if s.Variant == VariantSpace {
		story, err = s.generateCanned(session, prompt)
	} else {
		story, err = eng.Generate(r.Context(), session, engine.Request{
			Prompt: prompt,
			Flags:  []string{"-expand_outline", "-no_revision"},
		}, s.Events)
	}
	if err != nil {
		s.renderError(w, err)
		return
	}

	s.mu.Lock()
	s.lastStory = story
	s.storyPath = session.StoryPath()
	s.mu.Unlock()

	s.render(w, http.StatusOK, pageData{
		Variant:  s.Variant,
		Examples: examplePrompts,
		Story:    story,
		HasStory: true,
	})
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	path := s.storyPath
	s.mu.Unlock()
	if path == "" {
		http.Error(w, "No story has been generated yet.", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="Story.md"`)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	http.ServeFile(w, r, path)
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	var terr *procexec.TimeoutError
	var verr *security.ValidationError
	status := http.StatusInternalServerError
	msg := "Error generating story."
	switch {
	case errors.As(err, &terr):
		status = http.StatusGatewayTimeout
		msg = "Story generation timed out. Try a shorter prompt."
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		msg = "Prompt was rejected: " + verr.Reason + "."
	default:
		log.Printf("webdemo: generation failed: %v", err)
	}
	s.render(w, status, pageData{
		Variant:  s.Variant,
		Examples: examplePrompts,
		Message:  msg,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		log.Printf("webdemo: render: %v", err)
	}
}

// Reconfigure applies reloaded settings to a running server. The listen
// address is fixed for the life of the listener; everything read per
// request swaps here. A nil engine keeps the current one.
func (s *Server) Reconfigure(logDir string, eng *engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logDir != "" {
		s.LogDir = logDir
	}
	if eng != nil {
		s.Engine = eng
	}
}

func (s *Server) logDir() string {
	if s.LogDir != "" {
		return s.LogDir
	}
	return "Logs"
}
