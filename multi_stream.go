package wikiindex

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// A WalkFunc receives one article along with the decompressed text of
// the block holding it.
type WalkFunc func(n ArticleNumber, rec MainRecord, title, block string) error

type blockChunk struct {
	block uint32
	first ArticleNumber
	recs  []MainRecord
}

// WalkArticles calls fn for every article in the index.
//
// The main list is streamed in ArticleNumber order and split into runs
// of articles sharing a block.  Each run is handed to one of workers
// goroutines, which decompresses the block once for the whole run.  fn
// is called concurrently from the workers; articles of one block are
// delivered in order.  The first error stops the walk.
func (s *Store) WalkArticles(ctx context.Context, workers int, fn WalkFunc) error {
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	ch := make(chan blockChunk, workers*4)

	g.Go(func() error {
		defer close(ch)
		return s.streamChunks(ctx, ch)
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for c := range ch {
				text, err := s.FetchBlockText(c.block)
				if err != nil {
					return err
				}
				for j, rec := range c.recs {
					title, err := s.TitleAt(rec.TitleOffset)
					if err != nil {
						return err
					}
					if err := fn(c.first+ArticleNumber(j), rec, title, text); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Store) streamChunks(ctx context.Context, ch chan<- blockChunk) error {
	r := bufio.NewReaderSize(io.NewSectionReader(s.mainList, 0, int64(s.articles)*recordSize), 1<<16)

	start := time.Now()
	var cur blockChunk
	send := func() error {
		if len(cur.recs) == 0 {
			return nil
		}
		select {
		case ch <- cur:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}

	var buf [recordSize]byte
	for n := 0; n < s.articles; n++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		rec := MainRecord{
			WikiID:      binary.LittleEndian.Uint32(buf[0:]),
			TitleOffset: binary.LittleEndian.Uint32(buf[4:]),
			BlockIndex:  binary.LittleEndian.Uint32(buf[8:]),
		}
		if len(cur.recs) > 0 && rec.BlockIndex != cur.block {
			if err := send(); err != nil {
				return err
			}
			cur = blockChunk{}
		}
		if len(cur.recs) == 0 {
			cur.block = rec.BlockIndex
			cur.first = ArticleNumber(n)
		}
		cur.recs = append(cur.recs, rec)

		if n > 0 && n%100000 == 0 {
			s.log.Info().Msgf("Queued %s articles (%.2f/s)",
				humanize.Comma(int64(n)), float64(n)/time.Since(start).Seconds())
		}
	}
	return send()
}
