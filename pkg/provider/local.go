package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Anand0295/storyforge/pkg/security"
)

// LocalAdapter resolves a model to an artifact file inside a confined
// models directory. The filename and the resolved path both pass the
// security boundary before any filesystem access.
type LocalAdapter struct {
	ModelsDir string
}

func (a *LocalAdapter) Name() string { return "local" }

func (a *LocalAdapter) Load(ctx context.Context, id Identifier) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.ModelsDir == "" {
		return nil, fmt.Errorf("local: no models directory configured")
	}

	filename := id.Name
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}
	if err := security.CheckFilename(filename); err != nil {
		return nil, err
	}
	cp, err := security.Confine(filename, a.ModelsDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(cp.Path())
	if err != nil {
		return nil, fmt.Errorf("local: model artifact %s: %w", filename, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("local: model artifact %s is a directory", filename)
	}
	return &localClient{model: id.Name, path: cp.Path()}, nil
}

type localClient struct {
	model string
	path  string
}

func (c *localClient) Provider() string     { return "local" }
func (c *localClient) ModelName() string    { return c.model }
func (c *localClient) ArtifactPath() string { return c.path }
