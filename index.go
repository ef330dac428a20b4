package wikiindex

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// An IndexEntry is an individual article from the index.
type IndexEntry struct {
	StreamOffset int64
	ArticleID    uint64
	Title        string
}

func (i IndexEntry) String() string {
	return fmt.Sprintf("%v:%v:%v",
		i.StreamOffset, i.ArticleID, i.Title)
}

// An IndexReader is a wikipedia multistream index reader.
type IndexReader struct {
	r          *bufio.Scanner
	base       int64
	prevOffset int64
}

// Next gets the next entry from the index stream.
//
// This assumes the numbers were meant to be incremental.
func (ir *IndexReader) Next() (IndexEntry, error) {
	if !ir.r.Scan() {
		err := ir.r.Err()
		if err == nil {
			err = io.EOF
		}
		return IndexEntry{}, err
	}
	parts := strings.SplitN(ir.r.Text(), ":", 3)
	if len(parts) != 3 {
		return IndexEntry{}, errors.New("bad record")
	}
	rv := IndexEntry{Title: parts[2]}
	offset, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return IndexEntry{}, err
	}
	if offset < ir.prevOffset {
		ir.base += (1 << 32)
	}
	rv.StreamOffset = offset + ir.base
	rv.ArticleID, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return IndexEntry{}, err
	}
	ir.prevOffset = offset

	return rv, nil
}

// NewIndexReader gets a wikipedia index reader.
func NewIndexReader(r io.Reader) *IndexReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &IndexReader{r: s}
}

// A BlockEntry is one article listed in a block.
type BlockEntry struct {
	ID    uint64
	Title string
}

// A Block is one independently compressed stream of a data file and
// the articles it holds, in index order.
type Block struct {
	Start   int64
	End     int64
	Entries []BlockEntry
}

// ReadBlocks groups the entries of an index stream into blocks.
//
// Consecutive lines sharing a stream offset belong to one block.  A
// block ends where the next one starts; the last block ends at
// dataSize.
func ReadBlocks(r io.Reader, dataSize int64) ([]Block, error) {
	ir := NewIndexReader(r)
	var rv []Block
	for {
		e, err := ir.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rv) == 0 || rv[len(rv)-1].Start != e.StreamOffset {
			if len(rv) > 0 {
				rv[len(rv)-1].End = e.StreamOffset
			}
			rv = append(rv, Block{Start: e.StreamOffset, End: -1})
		}
		cur := &rv[len(rv)-1]
		cur.Entries = append(cur.Entries, BlockEntry{ID: e.ArticleID, Title: e.Title})
	}
	if len(rv) > 0 {
		rv[len(rv)-1].End = dataSize
	}
	return rv, nil
}

// ParseBlockIndex decompresses the i'th index file of the catalog and
// returns its blocks.
func ParseBlockIndex(c *Catalog, i int) ([]Block, error) {
	size, err := c.DataSize(i)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(c.IndexPath(i))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blocks, err := ReadBlocks(bzip2.NewReader(bufio.NewReader(f)), size)
	if err != nil {
		return nil, fmt.Errorf("parsing %v: %w", c.Files[i].IndexFilename, err)
	}
	return blocks, nil
}
