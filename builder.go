package wikiindex

import (
	"bufio"
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Table filenames inside the index directory.
const (
	DefaultIndexDir = "MainIndex"

	TitleHashFile = "titleHash.bin"
	TitleListFile = "titleList.bin"
	IDHashFile    = "idHash.bin"
	IDListFile    = "idList.bin"
	MainListFile  = "mainList.bin"
	BlockListFile = "blockList.bin"
)

const (
	recordSize  = 12
	slotSize    = 4
	emptyBucket = math.MaxUint32
)

// A Builder constructs the on-disk tables for one dump snapshot.
type Builder struct {
	catalog *Catalog
	dir     string
	buckets uint32
	log     zerolog.Logger
}

// A BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBucketCount sets the number of hash buckets in both hash tables.
func WithBucketCount(n uint32) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.buckets = n
		}
	}
}

// WithIndexDir sets the output directory.  Relative paths are taken
// relative to the catalog directory.
func WithIndexDir(dir string) BuilderOption {
	return func(b *Builder) {
		b.dir = dir
	}
}

// WithBuilderLogger sets the logger progress is reported to.
func WithBuilderLogger(l zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.log = l
	}
}

// NewBuilder gets a Builder for the given catalog.
func NewBuilder(c *Catalog, opts ...BuilderOption) *Builder {
	b := &Builder{
		catalog: c,
		dir:     DefaultIndexDir,
		buckets: DefaultBucketCount,
		log:     Logger(),
	}
	for _, o := range opts {
		o(b)
	}
	if !filepath.IsAbs(b.dir) {
		b.dir = filepath.Join(c.Dir, b.dir)
	}
	return b
}

// Dir is the directory the tables are written to.
func (b *Builder) Dir() string {
	return b.dir
}

// Build writes the title hash, id hash, main list and block list.
//
// An existing index directory is taken to mean the tables are already
// built and is left untouched.  If a step fails the partially written
// directory is removed.
func (b *Builder) Build(ctx context.Context) (err error) {
	if _, err := os.Stat(b.dir); err == nil {
		b.log.Warn().Str("dir", b.dir).
			Msg("Main index already exists (delete the directory to rebuild)")
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(b.dir)
		}
	}()

	b.log.Info().Msg("Building title hash table")
	offsets, err := b.buildTitleHash(ctx)
	if err != nil {
		return fmt.Errorf("title hash: %w", err)
	}
	b.log.Info().Msg("Building id hash table")
	if err := b.buildIDHash(ctx); err != nil {
		return fmt.Errorf("id hash: %w", err)
	}
	b.log.Info().Msg("Building main list")
	if err := b.buildMainList(ctx, offsets); err != nil {
		return fmt.Errorf("main list: %w", err)
	}
	b.log.Info().Msg("Building block list")
	if err := b.buildBlockList(ctx); err != nil {
		return fmt.Errorf("block list: %w", err)
	}
	b.log.Info().Str("dir", b.dir).Msg("Done building main indexes")
	return nil
}

// walk visits every block of every catalog entry in catalog order.
// This order defines ArticleNumbers and block indexes.
func (b *Builder) walk(ctx context.Context, fn func(catalogIndex int, blk Block) error) error {
	total := int64(0)
	for i := range b.catalog.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.log.Debug().Msgf("Processing catalog entry %d/%d", i+1, len(b.catalog.Files))
		blocks, err := ParseBlockIndex(b.catalog, i)
		if err != nil {
			return err
		}
		for _, blk := range blocks {
			if err := fn(i, blk); err != nil {
				return err
			}
			total += int64(len(blk.Entries))
		}
		b.log.Info().Msgf("Total articles processed so far: %s", humanize.Comma(total))
	}
	return nil
}

type titleRecord struct {
	bucket uint32
	title  string
	num    ArticleNumber
}

type idRecord struct {
	bucket uint32
	id     uint32
	num    ArticleNumber
}

// buildTitleHash writes titleHash.bin and titleList.bin and returns
// the titleList offset of every article's title.
func (b *Builder) buildTitleHash(ctx context.Context) ([]uint32, error) {
	var recs []titleRecord
	var n uint64
	err := b.walk(ctx, func(_ int, blk Block) error {
		for _, e := range blk.Entries {
			if n >= emptyBucket {
				return ErrOffsetOverflow
			}
			if e.Title != "" {
				recs = append(recs, titleRecord{titleBucket(e.Title, b.buckets), e.Title, ArticleNumber(n)})
			}
			n++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Stable, so each bucket keeps ArticleNumber order.
	slices.SortStableFunc(recs, func(x, y titleRecord) int {
		return cmp.Compare(x.bucket, y.bucket)
	})

	offsets := make([]uint32, n)
	for i := range offsets {
		offsets[i] = emptyBucket
	}

	hash, err := createTable(filepath.Join(b.dir, TitleHashFile))
	if err != nil {
		return nil, err
	}
	defer hash.abort()
	list, err := createTable(filepath.Join(b.dir, TitleListFile))
	if err != nil {
		return nil, err
	}
	defer list.abort()

	j := 0
	for bucket := uint32(0); bucket < b.buckets; bucket++ {
		if j >= len(recs) || recs[j].bucket != bucket {
			hash.u32(emptyBucket)
			continue
		}
		if err := hash.offset(list.pos); err != nil {
			return nil, err
		}
		for ; j < len(recs) && recs[j].bucket == bucket; j++ {
			if list.pos >= emptyBucket {
				return nil, ErrOffsetOverflow
			}
			offsets[recs[j].num] = uint32(list.pos)
			list.bytes([]byte(recs[j].title))
			list.bytes([]byte{0})
			list.u32(uint32(recs[j].num))
		}
		list.bytes([]byte{0})
	}

	if err := hash.close(); err != nil {
		return nil, err
	}
	return offsets, list.close()
}

// buildIDHash writes idHash.bin and idList.bin.
func (b *Builder) buildIDHash(ctx context.Context) error {
	var recs []idRecord
	var n uint64
	err := b.walk(ctx, func(_ int, blk Block) error {
		for _, e := range blk.Entries {
			if e.ID >= emptyBucket {
				return fmt.Errorf("%w: article id %v", ErrOffsetOverflow, e.ID)
			}
			recs = append(recs, idRecord{idBucket(e.ID, b.buckets), uint32(e.ID), ArticleNumber(n)})
			n++
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortStableFunc(recs, func(x, y idRecord) int {
		return cmp.Compare(x.bucket, y.bucket)
	})

	hash, err := createTable(filepath.Join(b.dir, IDHashFile))
	if err != nil {
		return err
	}
	defer hash.abort()
	list, err := createTable(filepath.Join(b.dir, IDListFile))
	if err != nil {
		return err
	}
	defer list.abort()

	j := 0
	for bucket := uint32(0); bucket < b.buckets; bucket++ {
		if j >= len(recs) || recs[j].bucket != bucket {
			hash.u32(emptyBucket)
			continue
		}
		if err := hash.offset(list.pos); err != nil {
			return err
		}
		for ; j < len(recs) && recs[j].bucket == bucket; j++ {
			list.u32(recs[j].id)
			list.u32(uint32(recs[j].num))
		}
		list.u32(emptyBucket)
	}

	if err := hash.close(); err != nil {
		return err
	}
	return list.close()
}

// buildMainList writes one {wikiId, titleOffset, blockIndex} record
// per ArticleNumber.
func (b *Builder) buildMainList(ctx context.Context, titleOffsets []uint32) error {
	main, err := createTable(filepath.Join(b.dir, MainListFile))
	if err != nil {
		return err
	}
	defer main.abort()

	var n int
	var blockIndex uint32
	err = b.walk(ctx, func(_ int, blk Block) error {
		for _, e := range blk.Entries {
			if n >= len(titleOffsets) {
				return fmt.Errorf("index changed during build: more than %d articles", len(titleOffsets))
			}
			main.u32(uint32(e.ID))
			main.u32(titleOffsets[n])
			main.u32(blockIndex)
			n++
		}
		blockIndex++
		return nil
	})
	if err != nil {
		return err
	}
	if n != len(titleOffsets) {
		return fmt.Errorf("index changed during build: %d articles, expected %d", n, len(titleOffsets))
	}
	return main.close()
}

// buildBlockList writes one {catalogIndex, start, end} record per block.
func (b *Builder) buildBlockList(ctx context.Context) error {
	list, err := createTable(filepath.Join(b.dir, BlockListFile))
	if err != nil {
		return err
	}
	defer list.abort()

	err = b.walk(ctx, func(catalogIndex int, blk Block) error {
		if blk.Start < 0 || blk.End > math.MaxUint32 {
			return fmt.Errorf("%w: block [%d,%d) of %v", ErrOffsetOverflow,
				blk.Start, blk.End, b.catalog.Files[catalogIndex].DataFilename)
		}
		list.u32(uint32(catalogIndex))
		list.u32(uint32(blk.Start))
		list.u32(uint32(blk.End))
		return nil
	})
	if err != nil {
		return err
	}
	return list.close()
}

// tableWriter is a buffered, position tracking writer for one table
// file.  Write errors are sticky in the bufio.Writer and surface at
// close.
type tableWriter struct {
	f    *os.File
	w    *bufio.Writer
	pos  uint64
	done bool
	buf  [4]byte
}

func createTable(path string) (*tableWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &tableWriter{f: f, w: bufio.NewWriterSize(f, 1<<20)}, nil
}

func (t *tableWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(t.buf[:], v)
	t.bytes(t.buf[:])
}

// offset writes a bucket offset, refusing values that would collide
// with the empty bucket sentinel.
func (t *tableWriter) offset(pos uint64) error {
	if pos >= emptyBucket {
		return ErrOffsetOverflow
	}
	t.u32(uint32(pos))
	return nil
}

func (t *tableWriter) bytes(b []byte) {
	n, _ := t.w.Write(b)
	t.pos += uint64(n)
}

func (t *tableWriter) close() error {
	t.done = true
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}

// abort closes a table that was not closed normally.
func (t *tableWriter) abort() {
	if !t.done {
		t.f.Close()
	}
}
