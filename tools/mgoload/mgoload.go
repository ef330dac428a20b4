// Load a subset's article documents into MongoDB
package main

import (
	"flag"
	"sync"
	"sync/atomic"

	"gopkg.in/mgo.v2"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
	"github.com/dustin/go-wikiindex/tools/internal/loadutil"
)

var (
	src        loadutil.Source
	proc       = flag.Int("proc", 8, "How many workers to run.")
	dburl      = flag.String("dburl", "localhost", "The dburl(s). I.e. localhost.")
	verbose    = flag.Bool("v", false, "Verbose logging?")
	collection = flag.String("collection", "articles", "The collection to store documents in.")
	dbname     = flag.String("dbname", "wp", "The database name to use.")

	log      = wikiindex.Logger()
	wg       sync.WaitGroup
	failures atomic.Int64
)

// Titles are unique within a subset.
var titleIndex = mgo.Index{
	Key:        []string{"subset", "title"},
	Unique:     true,
	Background: true,
}

func docHandler(db *mgo.Database, ch <-chan subset.Document, p *loadutil.Progress) {
	defer wg.Done()
	for d := range ch {
		storeDocument(db, d)
		p.Add()
	}
}

func storeDocument(db *mgo.Database, d subset.Document) {
	d.ID = d.Subset + "/" + d.Title
	_, err := db.C(*collection).UpsertId(d.ID, &d)
	if err == nil {
		return
	}
	if mgo.IsDup(err) {
		if *verbose {
			log.Info().Str("title", d.Title).Msg("Duplicate key error storing document")
		}
		return
	}
	log.Error().Err(err).Str("title", d.Title).Msg("Error storing document")
	failures.Add(1)
}

func main() {
	src.Register(flag.CommandLine)
	flag.Parse()
	if src.Name == "" {
		log.Fatal().Msg("You must name a subset with -subset.")
	}

	session, err := mgo.Dial(*dburl)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to mongodb")
	}
	defer session.Close()

	docs, err := src.Documents()
	if err != nil {
		log.Fatal().Err(err).Str("subset", src.Name).Msg("Error reading subset")
	}

	db := session.DB(*dbname)
	if err := db.C(*collection).EnsureIndex(titleIndex); err != nil {
		log.Fatal().Err(err).Msg("Error creating title index")
	}

	p := loadutil.NewProgress(log, len(docs), 10000)
	ch := make(chan subset.Document, 1000)
	for i := 0; i < *proc; i++ {
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
