package wikiindex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in         string
		start, end uint64
		ok         bool
	}{
		{"enwiki-20200301-pages-articles-multistream-index1.txt-p1p30303.bz2", 1, 30303, true},
		{"enwiki-20200301-pages-articles-multistream-index27.txt-p53163462p54663462.bz2",
			53163462, 54663462, true},
		{"enwiki-20200301-pages-articles-multistream-index.txt.bz2", 0, 0, false},
		{"enwiki-20200301-pages-articles-multistream-index1.txt-pXp3.bz2", 0, 0, false},
		{"enwiki-20200301-pages-articles-multistream-index1.txt-p13.bz2", 0, 0, false},
	}
	for _, test := range tests {
		start, end, err := parseRange(test.in)
		if test.ok {
			if err != nil || start != test.start || end != test.end {
				t.Errorf("Expected %v-%v for %v, got %v-%v, %v",
					test.start, test.end, test.in, start, end, err)
			}
		} else if !errors.Is(err, ErrMalformedCatalogEntry) {
			t.Errorf("Expected malformed entry for %v, got %v", test.in, err)
		}
	}
}

func TestDataFilenameFor(t *testing.T) {
	got := dataFilenameFor("enwiki-20200301-pages-articles-multistream-index1.txt-p1p30303.bz2")
	exp := "enwiki-20200301-pages-articles-multistream1.xml-p1p30303.bz2"
	if got != exp {
		t.Fatalf("Expected %v, got %v", exp, got)
	}
}

func TestBuildCatalog(t *testing.T) {
	dir := copyFixture(t)
	c, err := BuildCatalog(dir, fixturePrefix)
	if err != nil {
		t.Fatalf("Error building catalog: %v", err)
	}
	if len(c.Files) != 2 {
		t.Fatalf("Expected 2 catalog entries, got %v", c.Files)
	}
	if c.Files[0].Start != 1 || c.Files[0].End != 30 || c.Files[1].Start != 31 {
		t.Fatalf("Expected entries sorted by range, got %+v", c.Files)
	}
	if size, err := c.DataSize(0); err != nil || size != 942 {
		t.Fatalf("Expected 942 bytes of data, got %v, %v", size, err)
	}

	loaded, err := LoadCatalog(dir)
	if err != nil {
		t.Fatalf("Error loading catalog: %v", err)
	}
	if loaded.Dir != dir || len(loaded.Files) != 2 || loaded.Files[1] != c.Files[1] {
		t.Fatalf("Expected %+v, got %+v", c, loaded)
	}

	// A second build loads what is there rather than rescanning.
	if err := os.Remove(c.DataPath(1)); err != nil {
		t.Fatalf("Error removing data file: %v", err)
	}
	again, err := BuildCatalog(dir, fixturePrefix)
	if err != nil {
		t.Fatalf("Error rebuilding catalog: %v", err)
	}
	if len(again.Files) != 2 {
		t.Fatalf("Expected the persisted catalog, got %+v", again.Files)
	}
}

func TestBuildCatalogMissingCounterpart(t *testing.T) {
	dir := copyFixture(t)
	data := filepath.Join(dir, "enwiki-20200301-pages-articles-multistream2.xml-p31p60.bz2")
	if err := os.Remove(data); err != nil {
		t.Fatalf("Error removing data file: %v", err)
	}
	if _, err := BuildCatalog(dir, fixturePrefix); !errors.Is(err, ErrMissingCounterpart) {
		t.Fatalf("Expected missing counterpart, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, CatalogFilename)); !os.IsNotExist(err) {
		t.Fatalf("Expected no catalog written, got %v", err)
	}
}

func TestBuildCatalogMalformed(t *testing.T) {
	dir := copyFixture(t)
	bad := filepath.Join(dir, "enwiki-20200301-pages-articles-multistream-index.txt.bz2")
	if err := os.WriteFile(bad, nil, 0o644); err != nil {
		t.Fatalf("Error writing bad index: %v", err)
	}
	if _, err := BuildCatalog(dir, fixturePrefix); !errors.Is(err, ErrMalformedCatalogEntry) {
		t.Fatalf("Expected malformed entry, got %v", err)
	}
}

func TestBuildCatalogOtherPrefix(t *testing.T) {
	c, err := BuildCatalog(copyFixture(t), "frwiki")
	if err != nil {
		t.Fatalf("Error building catalog: %v", err)
	}
	if len(c.Files) != 0 {
		t.Fatalf("Expected no entries, got %v", c.Files)
	}
}
