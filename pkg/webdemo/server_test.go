package webdemo

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Anand0295/storyforge/pkg/engine"
)

func spaceServer(t *testing.T) *Server {
	t.Helper()
	t.Chdir(t.TempDir())
	return &Server{Variant: VariantSpace, LogDir: "Logs"}
}

func postPrompt(t *testing.T, handler http.Handler, prompt string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"prompt": {prompt}}
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIndexShowsExamples(t *testing.T) {
	srv := spaceServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, example := range examplePrompts {
		require.Contains(t, body, example)
	}
}

func TestSpaceGenerateProducesStoryAndDumps(t *testing.T) {
	srv := spaceServer(t)
	handler := srv.Handler()

	rec := postPrompt(t, handler, "a young mage discovers an ancient prophecy")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Chapter 1: The Beginning")

	// The session left its artifacts behind.
	sessions, err := filepath.Glob(filepath.Join("Logs", "Generation_*"))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.FileExists(t, filepath.Join(sessions[0], "Story.md"))
	require.FileExists(t, filepath.Join(sessions[0], "LangchainDebug", "0_outline.json"))
	require.FileExists(t, filepath.Join(sessions[0], "LangchainDebug", "1_chapters.md"))

	// The artifact is downloadable afterwards.
	req := httptest.NewRequest(http.MethodGet, "/story", nil)
	dl := httptest.NewRecorder()
	handler.ServeHTTP(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	require.Contains(t, dl.Header().Get("Content-Disposition"), "Story.md")
	require.Contains(t, dl.Body.String(), "The End.")
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	srv := spaceServer(t)
	rec := postPrompt(t, srv.Handler(), "   ")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Please enter a story prompt!")
}

func TestGenerateRejectsHostilePrompt(t *testing.T) {
	srv := spaceServer(t)
	rec := postPrompt(t, srv.Handler(), "nice story $(reboot)")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "rejected")
}

func TestStoryBeforeAnyGeneration(t *testing.T) {
	srv := spaceServer(t)
	req := httptest.NewRequest(http.MethodGet, "/story", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconfigureTakesEffectOnNextRequest(t *testing.T) {
	srv := spaceServer(t)
	handler := srv.Handler()

	rec := postPrompt(t, handler, "a tale of two directories")
	require.Equal(t, http.StatusOK, rec.Code)
	before, err := filepath.Glob(filepath.Join("Logs", "Generation_*"))
	require.NoError(t, err)
	require.Len(t, before, 1)

	srv.Reconfigure("HotLogs", nil)

	rec = postPrompt(t, handler, "a tale of two directories")
	require.Equal(t, http.StatusOK, rec.Code)
	after, err := filepath.Glob(filepath.Join("HotLogs", "Generation_*"))
	require.NoError(t, err)
	require.Len(t, after, 1, "reloaded log directory must host the new session")
}

func TestLocalVariantTimeoutGuidance(t *testing.T) {
	t.Chdir(t.TempDir())

	bin := t.TempDir()
	program := filepath.Join(bin, "write")
	require.NoError(t, os.WriteFile(program, []byte("#!/bin/sh\nsleep 30\n"), 0o755))

	srv := &Server{
		Variant: VariantLocal,
		LogDir:  "Logs",
		Engine: &engine.Engine{
			Program:    program,
			PromptsDir: t.TempDir(),
			OutputDir:  filepath.Join(bin, "out"),
			Timeout:    200 * time.Millisecond,
		},
	}

	rec := postPrompt(t, srv.Handler(), "a story about patience")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Contains(t, rec.Body.String(), "Try a shorter prompt.")
}
