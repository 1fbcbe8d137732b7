// Package registry provides partial registration and name resolution.
// It maps the names used in {{> name}} tags to the partial files on disk,
// so that rendering and change detection agree on what a name refers to.
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Extensions are the file extensions loaded as partials.
var Extensions = []string{".md", ".hbs", ".txt"}

// Partial is a reusable body fragment.
type Partial struct {
	Name     string // slash-separated, relative to its root, without extension
	Path     string // absolute file path
	Contents string
}

// PartialRegistry maps partial names to partials.
type PartialRegistry struct {
	mu sync.RWMutex

	// byName maps partial names to partials: "coding/footer" → *Partial
	// Note: when two roots define the same name, the later root wins
	byName map[string]*Partial

	// byPath maps absolute file paths back to names, for change detection
	byPath map[string]string
}

// NewPartialRegistry creates a new empty registry.
func NewPartialRegistry() *PartialRegistry {
	return &PartialRegistry{
		byName: make(map[string]*Partial),
		byPath: make(map[string]string),
	}
}

// Register adds a partial, replacing any partial of the same name.
func (r *PartialRegistry) Register(p *Partial) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byName[p.Name]; ok && prev.Path != "" {
		delete(r.byPath, prev.Path)
	}
	r.byName[p.Name] = p
	if p.Path != "" {
		r.byPath[p.Path] = p.Name
	}
}

// Load scans roots in order and registers every partial file found.
// Later roots override earlier ones; missing roots are skipped.
func (r *PartialRegistry) Load(roots ...string) error {
	for _, root := range roots {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve partials dir %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat partials dir %s: %w", abs, err)
		}
		if !info.IsDir() {
			continue
		}
		if err := r.loadDir(abs); err != nil {
			return err
		}
	}
	return nil
}

func (r *PartialRegistry) loadDir(root string) error {
	// Collect first so that registration order within a root is deterministic
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if hasPartialExt(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan partials dir %s: %w", root, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from walking a partials dir
		if err != nil {
			return fmt.Errorf("failed to read partial %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to name partial %s: %w", path, err)
		}
		r.Register(&Partial{
			Name:     trimPartialExt(filepath.ToSlash(rel)),
			Path:     path,
			Contents: string(content),
		})
	}
	return nil
}

// Resolve looks up a partial by the name used in a tag. Surrounding quotes
// and a known extension are ignored, so "footer", "'footer'" and
// "footer.md" all resolve to the same partial.
func (r *PartialRegistry) Resolve(name string) (*Partial, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := NormalizeName(name)
	if p, ok := r.byName[key]; ok {
		return p, true
	}
	return nil, false
}

// NameForPath returns the partial name registered for a file path.
func (r *PartialRegistry) NameForPath(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byPath[filepath.Clean(path)]
	return name, ok
}

// Names returns all registered partial names, sorted.
func (r *PartialRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered partials.
func (r *PartialRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// NormalizeName strips quotes and a partial file extension from a tag name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 {
		if q := name[0]; (q == '"' || q == '\'') && name[len(name)-1] == q {
			name = name[1 : len(name)-1]
		}
	}
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	return trimPartialExt(name)
}

func hasPartialExt(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func trimPartialExt(name string) string {
	for _, e := range Extensions {
		if strings.HasSuffix(name, e) {
			return strings.TrimSuffix(name, e)
		}
	}
	return name
}
