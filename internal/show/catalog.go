package show

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nutcracker/showrunner/internal/pattern"
)

// CatalogEntry is one show as written in shows.yml.
type CatalogEntry struct {
	Name     string        `yaml:"name"`
	Music    string        `yaml:"music"`
	Pattern  string        `yaml:"pattern"`
	Duration time.Duration `yaml:"duration,omitempty"` // optional, defaults to the pattern's durationMs
}

type catalogFile struct {
	Shows []CatalogEntry `yaml:"shows"`
}

// Catalog is the set of shows that can be enqueued by name.
type Catalog struct {
	shows map[string]Show
	order []string
}

// LoadCatalog reads and validates a shows.yml file. Entries without a
// duration take it from their pattern, so store must be able to load them.
func LoadCatalog(path string, store *pattern.Store) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return NewCatalog(f.Shows, store)
}

// NewCatalog validates entries and builds a catalog.
func NewCatalog(entries []CatalogEntry, store *pattern.Store) (*Catalog, error) {
	c := &Catalog{shows: make(map[string]Show)}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if _, dup := c.shows[e.Name]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate show name %q", i, e.Name)
		}
		if e.Music == "" {
			return nil, fmt.Errorf("show %q: music is required", e.Name)
		}
		if e.Pattern == "" {
			return nil, fmt.Errorf("show %q: pattern is required", e.Name)
		}
		if e.Duration < 0 {
			return nil, fmt.Errorf("show %q: negative duration %v", e.Name, e.Duration)
		}
		if e.Duration == 0 {
			if store == nil {
				return nil, fmt.Errorf("show %q: duration is required", e.Name)
			}
			p, err := store.Load(e.Pattern)
			if err != nil {
				return nil, fmt.Errorf("show %q: no duration and %w", e.Name, err)
			}
			e.Duration = p.Duration
			if e.Duration == 0 {
				e.Duration = p.End()
			}
		}
		c.shows[e.Name] = Show{
			Name:        e.Name,
			Duration:    e.Duration,
			MusicPath:   e.Music,
			PatternPath: e.Pattern,
		}
		c.order = append(c.order, e.Name)
	}
	return c, nil
}

// Lookup returns the named show.
func (c *Catalog) Lookup(name string) (Show, bool) {
	s, ok := c.shows[name]
	return s, ok
}

// Shows lists the catalog in file order.
func (c *Catalog) Shows() []Show {
	out := make([]Show, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.shows[n])
	}
	return out
}

// Names lists show names alphabetically.
func (c *Catalog) Names() []string {
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}
