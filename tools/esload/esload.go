// Load a subset's article documents into ElasticSearch
package main

import (
	"flag"
	"sync"

	"github.com/dustin/go-elasticsearch"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/subset"
	"github.com/dustin/go-wikiindex/tools/internal/loadutil"
)

var (
	src       loadutil.Source
	esurl     = flag.String("es", "http://localhost:9200/", "ElasticSearch URL")
	index     = flag.String("index", "wikiindex", "Index to load into")
	workers   = flag.Int("workers", 4, "Number of bulk loaders")
	batchSize = flag.Int("batch", 1000, "Documents per bulk request")

	log = wikiindex.Logger()
	wg  sync.WaitGroup
)

func body(d subset.Document) map[string]interface{} {
	b := map[string]interface{}{
		"title":     d.Title,
		"wikiid":    d.WikiID,
		"number":    d.Number,
		"subset":    d.Subset,
		"links":     d.Links,
		"backlinks": d.Backlinks,
	}
	if d.PageRank != 0 {
		b["pagerank"] = d.PageRank
	}
	if d.Size != 0 {
		b["size"] = d.Size
		b["averageMonthlyPageViews"] = d.AverageMonthlyPageViews
		b["studentReferenceIndex"] = d.StudentReferenceIndex
		b["uniqueEditors"] = d.UniqueEditors
		b["flaggedEdits"] = d.FlaggedEdits
	}
	return b
}

func docHandler(u string, ch <-chan subset.Document, p *loadutil.Progress) {
	defer wg.Done()
	counter := 0
	es := elasticsearch.ElasticSearch{URL: u}
	bulkLoader := es.Bulk()

	for d := range ch {
		counter++
		if counter > *batchSize {
			bulkLoader.SendBatch()
			counter = 0
		}
		ui := elasticsearch.UpdateInstruction{
			Id:    d.Subset + "/" + d.Title,
			Index: *index,
			Type:  "article",
			Body:  body(d),
		}
		bulkLoader.Update(&ui)
		p.Add()
	}
	bulkLoader.Quit()
}

func main() {
	src.Register(flag.CommandLine)
	flag.Parse()
	if src.Name == "" {
		log.Fatal().Msg("You must name a subset with -subset.")
	}

	docs, err := src.Documents()
	if err != nil {
		log.Fatal().Err(err).Str("subset", src.Name).Msg("Error reading subset")
	}

	p := loadutil.NewProgress(log, len(docs), *batchSize)
	ch := make(chan subset.Document, 1000)
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go docHandler(*esurl, ch, p)
	}
	for _, d := range docs {
		ch <- d
	}
	close(ch)
	wg.Wait()
	p.Done(0)
}
