// Load a subset's article documents into CouchDB
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-couch"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
	"github.com/dustin/go-wikiindex/tools/internal/loadutil"
)

var (
	src     loadutil.Source
	dburl   = flag.String("couchdb", "http://localhost:5984/wikiindex", "CouchDB database URL")
	workers = flag.Int("workers", 20, "Number of document workers")

	log      = wikiindex.Logger()
	wg       sync.WaitGroup
	failures atomic.Int64
)

func init() {
	src.Register(flag.CommandLine)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [opts] -subset name\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
}

// A stored document carries CouchDB's revision alongside the summary.
type document struct {
	subset.Document
	Rev string `json:"_rev,omitempty"`
}

func escapeTitle(in string) string {
	return strings.NewReplacer("/", "%2f", "+", "%2b").Replace(in)
}

func replace(db *couch.Database, d *document) error {
	var prev document
	if err := db.Retrieve(d.ID, &prev); err != nil {
		return fmt.Errorf("retrieving existing %v: %w", d.ID, err)
	}
	if prev.Rev == "" {
		return fmt.Errorf("got no rev from %v", d.ID)
	}
	log.Debug().Str("id", d.ID).Str("rev", prev.Rev).Msg("Replacing document")
	_, err := db.EditWith(d, d.ID, prev.Rev)
	return err
}

func store(db *couch.Database, d subset.Document) error {
	d.ID = escapeTitle(d.ID)
	doc := &document{Document: d}
	_, _, err := db.Insert(doc)
	httpe, isHTTPError := err.(*couch.HTTPError)
	switch {
	case err == nil:
		return nil
	case isHTTPError && httpe.Status == 409:
		return replace(db, doc)
	default:
		return err
	}
}

func docHandler(db couch.Database, ch <-chan subset.Document, p *loadutil.Progress) {
	defer wg.Done()
	for d := range ch {
		if err := store(&db, d); err != nil {
			log.Error().Err(err).Str("title", d.Title).Msg("Error storing document")
			failures.Add(1)
		}
		p.Add()
	}
}

func main() {
	flag.Parse()
	if src.Name == "" {
		flag.Usage()
		os.Exit(1)
	}

	db, err := couch.Connect(*dburl)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to couchdb")
	}

	docs, err := src.Documents()
	if err != nil {
		log.Fatal().Err(err).Str("subset", src.Name).Msg("Error reading subset")
	}

	p := loadutil.NewProgress(log, len(docs), 1000)
	ch := make(chan subset.Document, 1000)
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go docHandler(db, ch, p)
	}
	for _, d := range docs {
		ch <- d
	}
	close(ch)
	wg.Wait()
	p.Done(failures.Load())
}
