package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/digital-seva/internal/core/domain"
)

//go:embed schemes.yaml
var defaultSchemes []byte

type file struct {
	Schemes []domain.Scheme `yaml:"schemes"`
}

// Catalog is an immutable, in-memory scheme list.
type Catalog struct {
	schemes []domain.Scheme
	byID    map[int]int
	byName  map[string]int
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	raw := defaultSchemes
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read scheme catalog: %w", err)
		}
		raw = data
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scheme catalog: %w", err)
	}
	if len(f.Schemes) == 0 {
		return nil, errors.New("scheme catalog is empty")
	}

	schemes := append([]domain.Scheme(nil), f.Schemes...)
	sort.SliceStable(schemes, func(i, j int) bool { return schemes[i].ID < schemes[j].ID })

	c := &Catalog{
		schemes: schemes,
		byID:    make(map[int]int, len(schemes)),
		byName:  make(map[string]int, len(schemes)),
	}
	for i, s := range schemes {
		if s.ID <= 0 {
			return nil, fmt.Errorf("scheme %q: id must be positive", s.Name)
		}
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("scheme %d: name is required", s.ID)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scheme id %d", s.ID)
		}
		c.byID[s.ID] = i
		c.byName[nameKey(s.Name)] = i
	}
	return c, nil
}

func (c *Catalog) List() []domain.Scheme {
	out := make([]domain.Scheme, len(c.schemes))
	copy(out, c.schemes)
	return out
}

func (c *Catalog) Get(id int) (domain.Scheme, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Scheme{}, false
	}
	return c.schemes[i], true
}

// FindByName matches case-insensitively.
func (c *Catalog) FindByName(name string) (domain.Scheme, bool) {
	i, ok := c.byName[nameKey(name)]
	if !ok {
		return domain.Scheme{}, false
	}
	return c.schemes[i], true
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
