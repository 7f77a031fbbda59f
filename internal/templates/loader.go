package templates

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-papers/internal/bloom"
)

// Pack is one YAML template file. A pack replaces the built-in templates of
// its level.
type Pack struct {
	BloomLevel string   `yaml:"bloom_level"`
	Templates  []string `yaml:"templates"`
}

// Loader loads template packs from the filesystem and merges them over the
// built-in set.
type Loader struct {
	rootDir   string
	overrides map[bloom.Level][]string
	mu        sync.RWMutex
}

// NewLoader creates a loader and reads every *.templates.yaml file under
// rootDir. An empty rootDir yields the built-in set.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:   rootDir,
		overrides: make(map[bloom.Level][]string),
	}
	if rootDir == "" {
		return l, nil
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	slog.Info("template packs loaded", "levels", len(l.overrides), "dir", rootDir)
	return l, nil
}

// Set returns the built-in templates with loaded packs applied.
func (l *Loader) Set() Set {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set := Default()
	for level, t := range l.overrides {
		set[level] = append([]string(nil), t...)
	}
	return set
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".templates.yaml") || strings.HasSuffix(path, ".templates.yml") {
			return l.loadPack(path)
		}
		return nil
	})
}

func (l *Loader) loadPack(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		slog.Warn("skipping invalid template pack", "path", path, "error", err)
		return nil
	}

	level, err := bloom.ParseLevel(pack.BloomLevel)
	if err != nil {
		slog.Warn("skipping template pack", "path", path, "error", err)
		return nil
	}

	var valid []string
	for _, t := range pack.Templates {
		if !strings.Contains(t, Placeholder) {
			slog.Warn("skipping template without placeholder", "path", path, "template", t)
			continue
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return nil
	}

	l.mu.Lock()
	l.overrides[level] = valid
	l.mu.Unlock()

	return nil
}
