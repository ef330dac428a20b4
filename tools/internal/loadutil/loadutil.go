// Package loadutil holds what the document loader tools share: the
// flags naming a subset, and progress reporting.
package loadutil

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
)

// A Source names the subset whose documents are loaded.
type Source struct {
	DumpDir   string
	IndexDir  string
	SubsetDir string
	Name      string
}

// Register adds the source flags to fs.
func (s *Source) Register(fs *flag.FlagSet) {
	fs.StringVar(&s.DumpDir, "dump", ".", "Directory holding the cataloged dump")
	fs.StringVar(&s.IndexDir, "index", wikiindex.DefaultIndexDir, "Main index directory")
	fs.StringVar(&s.SubsetDir, "subsets", "SubIndexes", "Directory holding subsets")
	fs.StringVar(&s.Name, "subset", "", "Subset to load (e.g. math or math/Algebra)")
}

// Documents opens the dump and the subset and summarizes its members.
func (s *Source) Documents() ([]subset.Document, error) {
	c, err := wikiindex.LoadCatalog(s.DumpDir)
	if err != nil {
		return nil, err
	}
	store, err := wikiindex.OpenStore(c, wikiindex.WithStoreIndexDir(s.IndexDir))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	dir := s.SubsetDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.DumpDir, dir)
	}
	if _, err := os.Stat(filepath.Join(dir, s.Name, subset.MembersFile)); err != nil {
		return nil, fmt.Errorf("%w: subset %v: %v", wikiindex.ErrNotBuilt, s.Name, err)
	}
	sub, err := subset.Open(dir, s.Name, store)
	if err != nil {
		return nil, err
	}
	return sub.Documents()
}

// Progress logs how many documents have been stored.
type Progress struct {
	log   zerolog.Logger
	every int64
	total int64
	n     atomic.Int64
	start time.Time
}

// NewProgress reports every every documents out of total.
func NewProgress(log zerolog.Logger, total, every int) *Progress {
	if every < 1 {
		every = 1
	}
	return &Progress{log: log, every: int64(every), total: int64(total), start: time.Now()}
}

// Add counts one stored document.
func (p *Progress) Add() {
	n := p.n.Add(1)
	if n%p.every == 0 {
		p.log.Info().Msgf("Processed %s/%s documents (%.2f/s)",
			humanize.Comma(n), humanize.Comma(p.total), float64(n)/time.Since(p.start).Seconds())
	}
}

// Done logs the final count.
func (p *Progress) Done(errs int64) {
	d := time.Since(p.start)
	p.log.Info().Dur("took", d).Int64("errors", errs).
		Msgf("Loaded %s documents", humanize.Comma(p.n.Load()))
}
