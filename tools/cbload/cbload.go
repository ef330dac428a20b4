// Load a subset's article documents into Couchbase
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/couchbase/go-couchbase"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
	"github.com/dustin/go-wikiindex/tools/internal/loadutil"
)

var (
	src        loadutil.Source
	numWorkers = flag.Int("numWorkers", 8, "Number of document workers")

	log      = wikiindex.Logger()
	wg       sync.WaitGroup
	failures atomic.Int64
)

func init() {
	src.Register(flag.CommandLine)
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr,
		"Usage:\n  %s [opts] -subset name\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// docKey keys documents by subset so several subsets share a bucket.
func docKey(d subset.Document) string {
	return d.Subset + "::" + d.Title
}

func docHandler(db *couchbase.Bucket, ch <-chan subset.Document, p *loadutil.Progress) {
	defer wg.Done()
	for d := range ch {
		if err := db.Set(docKey(d), 0, d); err != nil {
			log.Error().Err(err).Str("title", d.Title).Msg("Error setting document")
			failures.Add(1)
		}
		p.Add()
	}
}

func main() {
	couchbaseServer := flag.String("couchbase", "http://localhost:8091/",
		"Couchbase URL")
	couchbaseBucket := flag.String("bucket", "default", "Couchbase bucket")
	flag.Parse()
	if src.Name == "" {
		usage()
	}

	db, err := couchbase.GetBucket(*couchbaseServer,
		"default", *couchbaseBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to couchbase")
	}
	defer db.Close()

	docs, err := src.Documents()
	if err != nil {
		log.Fatal().Err(err).Str("subset", src.Name).Msg("Error reading subset")
	}

	p := loadutil.NewProgress(log, len(docs), 1000)
	ch := make(chan subset.Document, 1000)
	for i := 0; i < *numWorkers; i++ {
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
