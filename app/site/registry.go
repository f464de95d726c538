package site

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/chemlab/dealwatch/app/feed"
)

// Registry is the static site catalog plus the runtime enabled flags.
// Loaded once at startup from a directory of YAML files, one per site.
type Registry struct {
	sitesDir string
	sites    map[string]*Site
	mu       sync.RWMutex
}

func NewRegistry(sitesDir string) *Registry {
	return &Registry{
		sitesDir: sitesDir,
		sites:    make(map[string]*Site),
	}
}

func (r *Registry) Run() error {
	if _, err := os.Stat(r.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(r.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}
	yamlFiles, err := filepath.Glob(filepath.Join(r.sitesDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	for _, file := range files {
		s, err := r.loadFile(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		r.mu.Lock()
		r.sites[s.ID] = s
		r.mu.Unlock()

		slog.Debug("Site configuration loaded", "site", s.ID, "enabled", s.Enabled, "parser", s.Parser)
	}

	return nil
}

func (r *Registry) loadFile(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	s.ID = strings.TrimSuffix(base, filepath.Ext(base))

	if err := r.validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *Registry) validate(s *Site) error {
	if s.Name == "" {
		return fmt.Errorf("site name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("site URL is required")
	}
	if u, err := url.Parse(s.URL); err != nil || !u.IsAbs() {
		return fmt.Errorf("site URL must be absolute: %q", s.URL)
	}
	switch s.Parser {
	case "", feed.BindingDeal, feed.BindingRSS:
	default:
		return fmt.Errorf("unknown parser binding: %q", s.Parser)
	}
	if s.Affiliation.Key != "" && s.Affiliation.Value == "" {
		return fmt.Errorf("affiliation value is required when key is set")
	}
	return nil
}

func (r *Registry) Get(id string) (*Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sites[id]
	if !ok {
		return nil, fmt.Errorf("site with id '%s' not found", id)
	}

	copied := *s
	return &copied, nil
}

// All returns the catalog sorted by ID for stable iteration.
func (r *Registry) All() []Site {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sites := make([]Site, 0, len(r.sites))
	for _, s := range r.sites {
		sites = append(sites, *s)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites
}

func (r *Registry) Enabled() []Site {
	var enabled []Site
	for _, s := range r.All() {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

func (r *Registry) AnyEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sites {
		if s.Enabled {
			return true
		}
	}
	return false
}

func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sites[id]
	if !ok {
		return fmt.Errorf("site with id '%s' not found", id)
	}
	s.Enabled = enabled
	return nil
}
