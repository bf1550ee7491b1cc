// internal/provider/registry.go
package provider

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Entry is one statically configured provider: name, enabled flag, and
// priority (lower sorts first).
type Entry struct {
	Name     string `yaml:"name" json:"name"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Priority int    `yaml:"priority" json:"priority"`
}

// Registry holds a prioritized provider list plus the in-memory active
// selector. Safe for concurrent use from handlers and the worker.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	active  string
}

func NewRegistry(entries []Entry) *Registry {
	r := &Registry{entries: make([]Entry, len(entries))}
	copy(r.entries, entries)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority < r.entries[j].Priority
	})
	for _, e := range r.entries {
		if e.Enabled {
			r.active = e.Name
			break
		}
	}
	return r
}

// LoadRegistryFile reads provider entries from a YAML file:
//
//	providers:
//	  - name: kling
//	    enabled: true
//	    priority: 1
func LoadRegistryFile(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Providers []Entry `yaml:"providers"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc.Providers, nil
}

// List returns the entries in priority order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SwitchActive points the active selector at the named provider. The target
// must exist and be enabled.
func (r *Registry) SwitchActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Name == name {
			if !e.Enabled {
				return fmt.Errorf("provider %s is disabled", name)
			}
			r.active = name
			return nil
		}
	}
	return fmt.Errorf("unknown provider %s", name)
}

// SetEnabled flips the enabled flag. Disabling the active provider moves the
// selector to the next enabled entry by priority.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for i := range r.entries {
		if r.entries[i].Name == name {
			r.entries[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown provider %s", name)
	}

	if !enabled && r.active == name {
		r.active = ""
		for _, e := range r.entries {
			if e.Enabled {
				r.active = e.Name
				break
			}
		}
	}
	if enabled && r.active == "" {
		r.active = name
	}
	return nil
}

// FallbackOrder returns the active provider first, then the remaining enabled
// providers by priority. The caller tries each in turn.
func (r *Registry) FallbackOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	if r.active != "" {
		out = append(out, r.active)
	}
	for _, e := range r.entries {
		if e.Enabled && e.Name != r.active {
			out = append(out, e.Name)
		}
	}
	return out
}
