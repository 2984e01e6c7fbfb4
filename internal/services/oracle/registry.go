package oracle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every model loaded at startup. It is read-only afterwards.
type Registry struct {
	models map[string]*Model
}

// NewRegistry builds a registry from already loaded models.
func NewRegistry(ms ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model, len(ms))}
	for _, m := range ms {
		r.models[m.Name()] = m
	}
	return r
}

// LoadRegistry reads every *.yaml artifact in dir.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	r := NewRegistry()
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read model %s: %w", e.Name(), err)
		}
		var a Artifact
		if err := yaml.Unmarshal(b, &a); err != nil {
			return nil, fmt.Errorf("parse model %s: %w", e.Name(), err)
		}
		if a.Name == "" {
			a.Name = strings.TrimSuffix(e.Name(), ext)
		}
		m, err := NewModel(a)
		if err != nil {
			return nil, err
		}
		r.models[m.Name()] = m
	}
	return r, nil
}

// Get returns the model named name.
func (r *Registry) Get(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names lists loaded model identifiers.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	return out
}
