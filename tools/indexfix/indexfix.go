// Print the blocks described by a multistream index file.
package main

import (
	"bufio"
	"compress/bzip2"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/dustin/go-wikiindex"
)

var entries = flag.Bool("entries", false, "Print every entry, not just block bounds")

func main() {
	flag.Parse()
	log := wikiindex.Logger()
	if flag.NArg() < 1 {
		log.Fatal().Msgf("Usage: %s [-entries] index.txt.bz2 [data.xml.bz2]", os.Args[0])
	}

	// The last block runs to the end of the data file, if we know it.
	size := int64(-1)
	if flag.NArg() > 1 {
		st, err := os.Stat(flag.Arg(1))
		if err != nil {
			log.Fatal().Err(err).Msg("Error reading data file size")
		}
		size = st.Size()
	}

	r, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Str("file", flag.Arg(0)).Msg("Error opening index")
	}
	defer r.Close()

	blocks, err := wikiindex.ReadBlocks(bzip2.NewReader(bufio.NewReader(r)), size)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading stream")
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	articles := 0
	for i, b := range blocks {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", i, b.Start, b.End, len(b.Entries))
		if *entries {
			for _, e := range b.Entries {
				fmt.Fprintf(w, "\t%d\t%s\n", e.ID, e.Title)
			}
		}
		articles += len(b.Entries)
	}
	log.Info().Msgf("%s blocks, %s articles",
		humanize.Comma(int64(len(blocks))), humanize.Comma(int64(articles)))
}
