package module

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"nebula-admin/internal/domain"
)

// Registry resolves module names to fully wired Module instances. Screens
// register either from Go code (with hooks) or from declarative YAML files.
type Registry struct {
	deps    Deps
	entries map[string]*Module
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, entries: map[string]*Module{}}
}

// Register normalizes the definition and adds the module. Duplicate names are
// a configuration bug.
func (r *Registry) Register(def *domain.Definition, hooks Hooks) error {
	if err := def.Normalize(); err != nil {
		return err
	}
	if _, exists := r.entries[def.Name]; exists {
		return domain.ErrConflict("module %q registered twice", def.Name)
	}
	r.entries[def.Name] = New(def, r.deps, hooks)
	return nil
}

// LoadYAMLDir registers every *.yaml / *.yml definition in dir. A missing
// directory registers nothing.
func (r *Registry) LoadYAMLDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read module dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !yamlFile(entry.Name()) {
			continue
		}
		if err := r.loadYAMLFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAMLFS registers definitions from an fs.FS, used by tests and embeds.
func (r *Registry) LoadYAMLFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !yamlFile(path) {
			return err
		}
		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read module definition %s: %w", path, err)
		}
		return r.registerYAML(path, raw)
	})
}

func (r *Registry) loadYAMLFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module definition %s: %w", path, err)
	}
	return r.registerYAML(path, raw)
}

func (r *Registry) registerYAML(path string, raw []byte) error {
	var def domain.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return fmt.Errorf("parse module definition %s: %w", path, err)
	}
	if err := r.Register(&def, Hooks{}); err != nil {
		return fmt.Errorf("register module from %s: %w", path, err)
	}
	return nil
}

// Resolve returns the module for name.
func (r *Registry) Resolve(name string) (*Module, error) {
	m, ok := r.entries[name]
	if !ok {
		return nil, domain.ErrNotFound("module %q not found", name)
	}
	return m, nil
}

// Names lists registered module names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions lists registered definitions in name order, for navigation.
func (r *Registry) Definitions() []*domain.Definition {
	defs := make([]*domain.Definition, 0, len(r.entries))
	for _, name := range r.Names() {
		defs = append(defs, r.entries[name].Def)
	}
	return defs
}

func yamlFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
