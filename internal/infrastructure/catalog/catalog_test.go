package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/digital-seva/internal/core/usecase"
)

func TestDefaultCatalogCoversEligibilityRules(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, name := range []string{
		usecase.SchemePMKisan,
		usecase.SchemeAyushman,
		usecase.SchemePMAYRural,
		usecase.SchemeScholarships,
		usecase.SchemeADIP,
	} {
		if _, ok := c.FindByName(name); !ok {
			t.Fatalf("expected catalog to contain %q", name)
		}
	}
}

func TestGetAndList(t *testing.T) {
	c, err := Parse([]byte(`
schemes:
  - id: 2
    name: Second
  - id: 1
    name: First
    documentsRequired: [Aadhar Card]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	list := c.List()
	if len(list) != 2 || list[0].ID != 1 {
		t.Fatalf("expected list sorted by id, got %+v", list)
	}
	list[0].Name = "mutated"
	if s, _ := c.Get(1); s.Name != "First" {
		t.Fatalf("List() must return a copy")
	}
	if s, ok := c.Get(1); !ok || len(s.DocumentsRequired) != 1 {
		t.Fatalf("unexpected scheme: %+v ok=%v", s, ok)
	}
	if _, ok := c.Get(99); ok {
		t.Fatalf("expected miss for unknown id")
	}
	if _, ok := c.FindByName("  second "); !ok {
		t.Fatalf("expected case-insensitive name lookup")
	}
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty":        `schemes: []`,
		"duplicate id": "schemes:\n  - {id: 1, name: A}\n  - {id: 1, name: B}\n",
		"missing name": "schemes:\n  - {id: 1}\n",
		"bad id":       "schemes:\n  - {id: 0, name: A}\n",
		"malformed":    "schemes: [",
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemes.yaml")
	if err := os.WriteFile(path, []byte("schemes:\n  - {id: 7, name: Local Scheme, level: state}\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s, ok := c.Get(7); !ok || s.Name != "Local Scheme" {
		t.Fatalf("unexpected scheme: %+v", s)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
