// Package templates loads the workflow instruction templates served by the
// prdflow tools.
//
// Templates are markdown files resolved by name: a file in the configured
// storage directory wins, an embedded default is the fallback. Templates may
// carry YAML frontmatter with at least a description field; the body below
// the frontmatter is the template text handed to tool handlers.
package templates

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"prdflow/internal/logging"
	"prdflow/pkg/fileops"

	"github.com/adrg/frontmatter"
)

//go:embed defaults/*.md
var defaultsFS embed.FS

// Template names served by the workflow tools.
const (
	NameCreatePRD       = "create-prd"
	NameGenerateTasks   = "generate-tasks"
	NameProcessTaskList = "process-task-list"
)

// TemplateFrontmatter represents the YAML frontmatter structure expected in
// template files.
type TemplateFrontmatter struct {
	Description string `yaml:"description"`
	Name        string `yaml:"name,omitempty"`
}

// Template is a parsed workflow template.
type Template struct {
	// Name is the template's resolution name (file name without extension).
	Name string
	// Description comes from the frontmatter, or a generic fallback.
	Description string
	// Body is the template text without frontmatter.
	Body string
}

// Store resolves template names to parsed templates. Parsed results are
// cached until invalidated; the fsnotify watcher calls Invalidate when a
// storage-directory file changes.
type Store struct {
	dir    string
	logger *logging.AppLogger

	mu    sync.RWMutex
	cache map[string]Template
}

// NewStore creates a template store over the given storage directory.
// The directory may be empty or missing; embedded defaults still resolve.
func NewStore(dir string, logger *logging.AppLogger) *Store {
	return &Store{
		dir:    fileops.ExpandPath(dir),
		logger: logger,
		cache:  make(map[string]Template),
	}
}

// Dir returns the storage directory this store reads from.
func (s *Store) Dir() string { return s.dir }

// Load resolves a template by name. The storage directory is consulted
// first, then the embedded defaults.
func (s *Store) Load(name string) (Template, error) {
	s.mu.RLock()
	if tpl, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return tpl, nil
	}
	s.mu.RUnlock()

	tpl, err := s.load(name)
	if err != nil {
		return Template{}, err
	}

	s.mu.Lock()
	s.cache[name] = tpl
	s.mu.Unlock()

	return tpl, nil
}

func (s *Store) load(name string) (Template, error) {
	if err := fileops.ValidatePathSecurity(name); err != nil {
		return Template{}, fmt.Errorf("invalid template name %q: %w", name, err)
	}

	path := filepath.Join(s.dir, name+".md")
	if fileops.Exists(path) {
		content, err := fileops.ReadText(path)
		if err != nil {
			return Template{}, fmt.Errorf("failed to read template %q: %w", name, err)
		}
		s.logger.Debug("Loaded template from storage directory", "name", name, "path", path)
		return parse(name, content), nil
	}

	data, err := defaultsFS.ReadFile("defaults/" + name + ".md")
	if err != nil {
		return Template{}, fmt.Errorf("template %q not found", name)
	}
	s.logger.Debug("Loaded embedded default template", "name", name)
	return parse(name, string(data)), nil
}

// Resolve returns the template body, or a placeholder error string when the
// template cannot be loaded. Tool handlers always get usable text.
func (s *Store) Resolve(name string) string {
	tpl, err := s.Load(name)
	if err != nil {
		s.logger.Warn("Template unavailable, serving placeholder", "name", name, "error", err)
		return fmt.Sprintf("Template '%s' is not available. Check the prdflow storage directory or run first-time setup again.", name)
	}
	return tpl.Body
}

// Describe returns the template's description, or a generic fallback when
// the template has none or cannot be loaded.
func (s *Store) Describe(name string) string {
	tpl, err := s.Load(name)
	if err != nil || tpl.Description == "" {
		return fmt.Sprintf("Workflow template '%s'", name)
	}
	return tpl.Description
}

// Invalidate drops the cached entry for a template name.
func (s *Store) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
	s.logger.Debug("Template cache invalidated", "name", name)
}

// Reset drops the entire template cache.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]Template)
	s.mu.Unlock()
}

// parse splits an optional YAML frontmatter block from the template body.
// Files without valid frontmatter are used whole, with no description.
func parse(name, content string) Template {
	var matter TemplateFrontmatter
	body, err := frontmatter.Parse(strings.NewReader(content), &matter)
	if err != nil {
		return Template{Name: name, Body: content}
	}
	return Template{
		Name:        name,
		Description: matter.Description,
		Body:        string(body),
	}
}

// Seed writes the embedded default templates into dir, skipping files that
// already exist. It is called during first-run setup so users can edit the
// templates in place.
func Seed(dir string, logger *logging.AppLogger) error {
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return fmt.Errorf("failed to enumerate default templates: %w", err)
	}

	for _, entry := range entries {
		dst := filepath.Join(fileops.ExpandPath(dir), entry.Name())
		if fileops.Exists(dst) {
			logger.Debug("Template already present, not seeding", "file", entry.Name())
			continue
		}

		data, err := defaultsFS.ReadFile("defaults/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read default template %q: %w", entry.Name(), err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return fmt.Errorf("failed to seed template %q: %w", entry.Name(), err)
		}
		logger.Info("Seeded default template", "file", entry.Name())
	}

	return nil
}
