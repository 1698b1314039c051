package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Anand0295/storyforge/pkg/security"
)

// Config file names. Both are members of the filename allow-list, so a
// confined load can never be talked into reading something else.
const (
	jsonFileName = "config.json"
	yamlFileName = "state.yaml"
)

// Loader composes settings using a simple precedence model. Higher layers
// override lower ones while preserving unspecified fields.
// Order (low -> high): defaults < config.json < state.yaml < environment.
type Loader struct {
	Root string
}

// Load resolves and merges settings across all layers. The returned hash
// fingerprints the on-disk layers so the watcher can skip no-op reloads.
func (l *Loader) Load() (*Settings, string, error) {
	if strings.TrimSpace(l.Root) == "" {
		return nil, "", errors.New("config: root directory is required")
	}
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return nil, "", fmt.Errorf("config: resolve root: %w", err)
	}

	merged := DefaultSettings()
	hasher := sha256.New()

	layers := []struct {
		name string
		file string
	}{
		{name: "json", file: jsonFileName},
		{name: "yaml", file: yamlFileName},
	}
	for _, layer := range layers {
		data, err := l.readLayer(root, layer.file)
		if err != nil {
			return nil, "", fmt.Errorf("config: load %s layer: %w", layer.name, err)
		}
		if data == nil {
			log.Printf("config: %s layer not found under %s", layer.name, root)
			continue
		}
		hasher.Write(data)

		var s Settings
		if layer.name == "yaml" {
			err = yaml.Unmarshal(data, &s)
		} else {
			err = json.Unmarshal(data, &s)
		}
		if err != nil {
			return nil, "", fmt.Errorf("config: decode %s: %w", layer.file, err)
		}
		log.Printf("config: applying %s layer from %s", layer.name, filepath.Join(root, layer.file))
		mergeSettings(&merged, &s)
	}

	applyEnv(&merged)
	return &merged, hex.EncodeToString(hasher.Sum(nil)), nil
}

// readLayer reads one config file under root. Missing files return
// (nil, nil); the layer is optional.
func (l *Loader) readLayer(root, name string) ([]byte, error) {
	if err := security.CheckFilename(name); err != nil {
		return nil, err
	}
	cp, err := security.Confine(name, root)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cp.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// applyEnv overlays STORYFORGE_* environment overrides, the highest layer.
func applyEnv(s *Settings) {
	overrides := map[string]*string{
		"STORYFORGE_ENGINE":        &s.EnginePath,
		"STORYFORGE_OUTPUT_DIR":    &s.OutputDir,
		"STORYFORGE_PROMPTS_DIR":   &s.PromptsDir,
		"STORYFORGE_LOG_DIR":       &s.LogDir,
		"STORYFORGE_MODELS_DIR":    &s.ModelsDir,
		"STORYFORGE_DEFAULT_MODEL": &s.DefaultModel,
		"STORYFORGE_LISTEN_ADDR":   &s.ListenAddr,
	}
	for key, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
	if v := strings.TrimSpace(os.Getenv("STORYFORGE_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.TimeoutSeconds = n
		} else {
			log.Printf("config: ignoring invalid STORYFORGE_TIMEOUT_SECONDS %q", v)
		}
	}
}
