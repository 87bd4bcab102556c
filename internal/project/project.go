// Package project tracks registered project directories and supplies the
// merged environment that spawned processes inherit. Activating a project
// loads its .env file and overlays it on the server's own environment.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Sentinel errors.
var (
	ErrNotRegistered = errors.New("project not registered")
	ErrNoActive      = errors.New("no active project")
)

// Project is one registered project directory.
type Project struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	RegisteredAt time.Time `json:"registered_at"`
}

// registryFile is the on-disk shape of projects.json.
type registryFile struct {
	Projects []Project `json:"projects"`
	Active   string    `json:"active,omitempty"`
}

// Store is the project registry. All state lives under baseDir; the registry
// survives restarts, the per-project env cache does not.
type Store struct {
	baseDir string

	mu       sync.Mutex
	projects map[string]Project
	active   string
	envCache map[string]map[string]string
}

// NewStore opens (or initializes) the registry under baseDir. A corrupt or
// missing registry file starts fresh rather than failing startup.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("project: create base dir: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		projects: make(map[string]Project),
		envCache: make(map[string]map[string]string),
	}

	data, err := os.ReadFile(s.registryPath())
	if err != nil {
		return s, nil
	}
	var reg registryFile
	if err := json.Unmarshal(data, &reg); err != nil {
		return s, nil
	}
	for _, p := range reg.Projects {
		s.projects[p.Name] = p
	}
	if p, ok := s.projects[reg.Active]; ok {
		s.active = reg.Active
		env := loadDotEnv(filepath.Join(p.Path, ".env"))
		env["PROJECT_NAME"] = p.Name
		env["PROJECT_PATH"] = p.Path
		s.envCache[p.Name] = env
	}
	return s, nil
}

func (s *Store) registryPath() string {
	return filepath.Join(s.baseDir, "projects.json")
}

// save persists the registry. Caller holds s.mu.
func (s *Store) save() error {
	reg := registryFile{Active: s.active}
	for _, p := range s.projects {
		reg.Projects = append(reg.Projects, p)
	}
	sort.Slice(reg.Projects, func(i, j int) bool {
		return reg.Projects[i].Name < reg.Projects[j].Name
	})

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("project: encode registry: %w", err)
	}
	tmp := s.registryPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("project: write registry: %w", err)
	}
	return os.Rename(tmp, s.registryPath())
}

// Register adds or updates a project. The path must exist and be a
// directory; it is stored in absolute form.
func (s *Store) Register(name, path string) (Project, error) {
	if name == "" {
		return Project{}, fmt.Errorf("project: name is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, fmt.Errorf("project: resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Project{}, fmt.Errorf("project: %w", err)
	}
	if !info.IsDir() {
		return Project{}, fmt.Errorf("project: %s is not a directory", abs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := Project{Name: name, Path: abs, RegisteredAt: time.Now()}
	s.projects[name] = p
	delete(s.envCache, name)
	return p, s.save()
}

// List returns all registered projects in name order.
func (s *Store) List() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Activate makes the named project current and loads its .env.
func (s *Store) Activate(name string) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[name]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	if _, cached := s.envCache[name]; !cached {
		env := loadDotEnv(filepath.Join(p.Path, ".env"))
		env["PROJECT_NAME"] = p.Name
		env["PROJECT_PATH"] = p.Path
		s.envCache[name] = env
	}

	s.active = name
	return p, s.save()
}

// Active returns the current project, or ErrNoActive.
func (s *Store) Active() (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == "" {
		return Project{}, ErrNoActive
	}
	return s.projects[s.active], nil
}

// Env returns the active project's loaded variables, without the process
// base environment. Empty when no project is active.
func (s *Store) Env() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)
	for k, v := range s.envCache[s.active] {
		out[k] = v
	}
	return out
}

// MergedEnv returns the process environment overlaid with the active
// project's variables, in the KEY=VALUE form exec.Cmd wants. With no active
// project this is just the process environment.
func (s *Store) MergedEnv() []string {
	s.mu.Lock()
	overlay := s.envCache[s.active]
	s.mu.Unlock()

	base := os.Environ()
	if len(overlay) == 0 {
		return base
	}

	merged := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}

// WorkDir returns the active project's directory, empty when none.
func (s *Store) WorkDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == "" {
		return ""
	}
	return s.projects[s.active].Path
}

// loadDotEnv parses a KEY=VALUE file. Comment and blank lines are skipped,
// matching surrounding quotes are stripped, malformed lines are ignored.
// A missing file yields an empty map.
func loadDotEnv(path string) map[string]string {
	env := make(map[string]string)
	data, err := os.ReadFile(path)
	if err != nil {
		return env
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		env[key] = value
	}
	return env
}
