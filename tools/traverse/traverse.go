// Sample program that walks every article of an indexed dump and
// checks each one can be found again by title and by id.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dustin/go-wikiindex"
)

var (
	numWorkers = flag.Int("workers", runtime.GOMAXPROCS(0), "Number of block workers")
	dumpDir    = flag.String("dump", ".", "Directory holding the cataloged dump")
	indexDir   = flag.String("index", wikiindex.DefaultIndexDir, "Main index directory")
	maxErrors  = flag.Int64("maxErrors", 100, "Stop after this many mismatches")
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

type checker struct {
	s        *wikiindex.Store
	articles atomic.Int64
	errs     atomic.Int64
}

// check verifies article n round trips through the title and id
// tables and that its block holds its page.
func (c *checker) check(n wikiindex.ArticleNumber, rec wikiindex.MainRecord, title, block string) error {
	log := wikiindex.Logger()
	c.articles.Add(1)
	fail := func(msg string) error {
		log.Warn().Uint32("article", uint32(n)).Str("title", title).Msg(msg)
		if c.errs.Add(1) >= *maxErrors {
			return wikiindex.ErrExtractionFailed
		}
		return nil
	}

	if title != "" {
		got, err := c.s.LookupByTitle(title)
		if err != nil {
			return fail("Title lookup failed: " + err.Error())
		}
		if got != n {
			// Titles differing only in their first letter's case collide.
			other, err := c.s.Title(got)
			if err == nil && wikiindex.UpperFirst(other) == wikiindex.UpperFirst(title) {
				return nil
			}
			return fail("Title resolves elsewhere")
		}
	}
	if got, err := c.s.LookupByID(uint64(rec.WikiID)); err != nil || got != n {
		return fail("Id lookup failed")
	}
	if !strings.Contains(block, "<title>"+title+"</title>") &&
		!strings.Contains(block, "<title>"+xmlEscaper.Replace(title)+"</title>") {
		return fail("Title missing from block")
	}
	return nil
}

func main() {
	flag.Parse()
	log := wikiindex.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := wikiindex.LoadCatalog(*dumpDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading catalog")
	}
	s, err := wikiindex.OpenStore(c, wikiindex.WithStoreIndexDir(*indexDir))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening store")
	}
	defer s.Close()

	ch := &checker{s: s}
	start := time.Now()
	err = s.WalkArticles(ctx, *numWorkers, ch.check)
	d := time.Since(start)
	log.Info().Err(err).Msgf("Checked %s articles in %v (%.2f/s), %s mismatches",
		humanize.Comma(ch.articles.Load()), d,
		float64(ch.articles.Load())/d.Seconds(), humanize.Comma(ch.errs.Load()))
	if err != nil || ch.errs.Load() > 0 {
		os.Exit(1)
	}
}
