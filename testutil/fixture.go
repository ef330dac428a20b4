// Package testutil builds the sample dump in testdata into a usable
// index for tests of the packages layered on wikiindex.
package testutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dustin/go-wikiindex"
)

// Prefix is the dump name prefix of the sample files.
const Prefix = "enwiki-20200301"

// Titles are the sample articles in ArticleNumber order.
var Titles = []string{
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

// Article numbers of the sample articles, by title.
const (
	Algebra wikiindex.ArticleNumber = iota
	Geometry
	NumberTheory
	Calculus
	ATT
	ListOfMathematics
	Topology
	SetTheory
	GroupTheory
)

func testdataDir() string {
	_, fn, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(fn), "..", "testdata")
}

// CopyDump copies the sample dump files into a fresh temp directory.
func CopyDump(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	files, err := filepath.Glob(filepath.Join(testdataDir(), Prefix+"*"))
	if err != nil || len(files) == 0 {
		t.Fatalf("Error finding sample dump: %v (%v files)", err, len(files))
	}
	for _, fn := range files {
		if err := copyFile(fn, filepath.Join(dir, filepath.Base(fn))); err != nil {
			t.Fatalf("Error copying %v: %v", fn, err)
		}
	}
	return dir
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Fixture catalogs and builds the sample dump and opens a Store over
// it.  The store is closed when the test ends.
func Fixture(t testing.TB) *wikiindex.Store {
	t.Helper()
	wikiindex.SetLogger(zerolog.Nop())

	c, err := wikiindex.BuildCatalog(CopyDump(t), Prefix)
	if err != nil {
		t.Fatalf("Error building catalog: %v", err)
	}
	b := wikiindex.NewBuilder(c, wikiindex.WithBucketCount(7))
	if err := b.Build(context.Background()); err != nil {
		t.Fatalf("Error building index: %v", err)
	}
	s, err := wikiindex.OpenStore(c, wikiindex.WithStoreIndexDir(b.Dir()))
	if err != nil {
		t.Fatalf("Error opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
