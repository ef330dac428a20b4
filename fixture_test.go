package wikiindex

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const fixturePrefix = "enwiki-20200301"

// fixtureTitles are the articles of testdata in ArticleNumber order.
var fixtureTitles = []string{
	"Algebra",
	"Geometry",
	"Number theory",
	"Calculus",
	"AT&T",
	"List of mathematics topics",
	"Topology",
	"Set theory",
	"Group theory",
}

var fixtureIDs = []uint32{10, 12, 13, 15, 18, 19, 31, 33, 40}

func init() {
	SetLogger(zerolog.Nop())
}

func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files, err := filepath.Glob(filepath.Join("testdata", fixturePrefix+"*"))
	if err != nil {
		t.Fatalf("Error listing testdata: %v", err)
	}
	for _, fn := range files {
		in, err := os.Open(fn)
		if err != nil {
			t.Fatalf("Error opening %v: %v", fn, err)
		}
		out, err := os.Create(filepath.Join(dir, filepath.Base(fn)))
		if err != nil {
			t.Fatalf("Error creating copy of %v: %v", fn, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			t.Fatalf("Error copying %v: %v", fn, err)
		}
		in.Close()
		out.Close()
	}
	return dir
}

func fixtureCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := BuildCatalog(copyFixture(t), fixturePrefix)
	if err != nil {
		t.Fatalf("Error building catalog: %v", err)
	}
	return c
}

func buildFixture(t *testing.T, opts ...BuilderOption) *Store {
	t.Helper()
	c := fixtureCatalog(t)
	b := NewBuilder(c, opts...)
	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Error building index: %v", err)
	}
	s, err := OpenStore(c, WithStoreIndexDir(b.Dir()))
	if err != nil {
		t.Fatalf("Error opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
