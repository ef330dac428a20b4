package wikiindex

import (
	"bufio"
	"compress/bzip2"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/rs/zerolog"
)

// A MainRecord is the main list entry of one article.
type MainRecord struct {
	WikiID      uint32
	TitleOffset uint32
	BlockIndex  uint32
}

// A BlockLocation places a block inside one data file of the catalog.
type BlockLocation struct {
	CatalogIndex uint32
	Start        uint32
	End          uint32
}

// A Store answers lookups against a built index and fetches article
// text from the dump.
//
// All reads are positional, so a Store may be shared by any number of
// goroutines.
type Store struct {
	catalog *Catalog
	dir     string
	log     zerolog.Logger

	titleHash mmap.MMap
	idHash    mmap.MMap
	buckets   uint32

	files     []*os.File
	titleList *os.File
	idList    *os.File
	mainList  *os.File
	blockList *os.File

	articles int
	blocks   int

	mu   sync.Mutex
	data map[uint32]*os.File
}

// A StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreIndexDir sets the directory holding the tables.  Relative
// paths are taken relative to the catalog directory.
func WithStoreIndexDir(dir string) StoreOption {
	return func(s *Store) {
		s.dir = dir
	}
}

// WithStoreLogger sets the store's logger.
func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = l
	}
}

// OpenStore opens the tables built for the given catalog.
func OpenStore(c *Catalog, opts ...StoreOption) (*Store, error) {
	s := &Store{
		catalog: c,
		dir:     DefaultIndexDir,
		log:     Logger(),
		data:    map[uint32]*os.File{},
	}
	for _, o := range opts {
		o(s)
	}
	if !filepath.IsAbs(s.dir) {
		s.dir = filepath.Join(c.Dir, s.dir)
	}
	if _, err := os.Stat(s.dir); err != nil {
		return nil, fmt.Errorf("%w: main index %v: %v", ErrNotBuilt, s.dir, err)
	}

	if err := s.open(); err != nil {
		s.Close()
		return nil, err
	}
	s.log.Debug().Str("dir", s.dir).Int("articles", s.articles).
		Int("blocks", s.blocks).Uint32("buckets", s.buckets).Msg("Opened store")
	return s, nil
}

func (s *Store) openFile(name string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, f)
	return f, nil
}

func (s *Store) mapFile(name string) (mmap.MMap, error) {
	f, err := s.openFile(name)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %v: %w", name, err)
	}
	return m, nil
}

func (s *Store) open() error {
	var err error
	if s.titleHash, err = s.mapFile(TitleHashFile); err != nil {
		return err
	}
	if s.idHash, err = s.mapFile(IDHashFile); err != nil {
		return err
	}
	if len(s.titleHash) == 0 || len(s.titleHash)%slotSize != 0 ||
		len(s.idHash) != len(s.titleHash) {
		return fmt.Errorf("hash tables of %v and %v bytes do not agree",
			len(s.titleHash), len(s.idHash))
	}
	s.buckets = uint32(len(s.titleHash) / slotSize)

	if s.titleList, err = s.openFile(TitleListFile); err != nil {
		return err
	}
	if s.idList, err = s.openFile(IDListFile); err != nil {
		return err
	}
	if s.mainList, err = s.openFile(MainListFile); err != nil {
		return err
	}
	if s.blockList, err = s.openFile(BlockListFile); err != nil {
		return err
	}

	st, err := s.mainList.Stat()
	if err != nil {
		return err
	}
	s.articles = int(st.Size() / recordSize)
	st, err = s.blockList.Stat()
	if err != nil {
		return err
	}
	s.blocks = int(st.Size() / recordSize)
	return nil
}

// Close releases every file and mapping held by the store.
func (s *Store) Close() error {
	var rv error
	for _, m := range []mmap.MMap{s.titleHash, s.idHash} {
		if m != nil {
			if err := m.Unmap(); err != nil && rv == nil {
				rv = err
			}
		}
	}
	s.titleHash, s.idHash = nil, nil
	for _, f := range s.files {
		f.Close()
	}
	s.files = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, f := range s.data {
		f.Close()
		delete(s.data, k)
	}
	return rv
}

// Catalog is the catalog the store was opened over.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Len is the number of articles in the index.
func (s *Store) Len() int {
	return s.articles
}

// BlockCount is the number of blocks in the index.
func (s *Store) BlockCount() int {
	return s.blocks
}

// Buckets is the number of hash buckets the index was built with.
func (s *Store) Buckets() uint32 {
	return s.buckets
}

func slot(m mmap.MMap, bucket uint32) uint32 {
	return binary.LittleEndian.Uint32(m[int(bucket)*slotSize:])
}

func bucketReader(f *os.File, off uint32) *bufio.Reader {
	return bufio.NewReaderSize(io.NewSectionReader(f, int64(off), math.MaxInt64-int64(off)), 512)
}

// LookupByTitle finds the ArticleNumber of the article with the given
// title.  The first character is upper-cased before lookup.
func (s *Store) LookupByTitle(title string) (ArticleNumber, error) {
	title = UpperFirst(title)
	if title == "" {
		return 0, ErrNotFound
	}
	off := slot(s.titleHash, titleBucket(title, s.buckets))
	if off == emptyBucket {
		return 0, ErrNotFound
	}

	r := bucketReader(s.titleList, off)
	var buf [4]byte
	for {
		t, err := r.ReadString(0)
		if err != nil {
			return 0, fmt.Errorf("reading title bucket at %v: %w", off, err)
		}
		t = t[:len(t)-1]
		if t == "" {
			return 0, ErrNotFound
		}
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("reading title bucket at %v: %w", off, err)
		}
		if t == title {
			return ArticleNumber(binary.LittleEndian.Uint32(buf[:])), nil
		}
	}
}

// LookupByID finds the ArticleNumber of the article with the given
// wiki page id.
func (s *Store) LookupByID(id uint64) (ArticleNumber, error) {
	if id >= emptyBucket {
		return 0, ErrNotFound
	}
	off := slot(s.idHash, idBucket(id, s.buckets))
	if off == emptyBucket {
		return 0, ErrNotFound
	}

	r := bucketReader(s.idList, off)
	var buf [8]byte
	for {
		if _, err := io.ReadFull(r, buf[:4]); err != nil {
			return 0, fmt.Errorf("reading id bucket at %v: %w", off, err)
		}
		got := binary.LittleEndian.Uint32(buf[:4])
		if got == emptyBucket {
			return 0, ErrNotFound
		}
		if _, err := io.ReadFull(r, buf[4:]); err != nil {
			return 0, fmt.Errorf("reading id bucket at %v: %w", off, err)
		}
		if uint64(got) == id {
			return ArticleNumber(binary.LittleEndian.Uint32(buf[4:])), nil
		}
	}
}

func readRecord(f *os.File, i int) ([3]uint32, error) {
	var buf [recordSize]byte
	var rv [3]uint32
	if _, err := f.ReadAt(buf[:], int64(i)*recordSize); err != nil {
		return rv, err
	}
	for j := range rv {
		rv[j] = binary.LittleEndian.Uint32(buf[j*4:])
	}
	return rv, nil
}

// RecordAt gets the main list record of article n.
func (s *Store) RecordAt(n ArticleNumber) (MainRecord, error) {
	if int(n) >= s.articles {
		return MainRecord{}, ErrNotFound
	}
	r, err := readRecord(s.mainList, int(n))
	if err != nil {
		return MainRecord{}, err
	}
	return MainRecord{WikiID: r[0], TitleOffset: r[1], BlockIndex: r[2]}, nil
}

// TitleAt reads the title stored at the given title list offset.
func (s *Store) TitleAt(offset uint32) (string, error) {
	if offset == emptyBucket {
		return "", ErrNotFound
	}
	t, err := bucketReader(s.titleList, offset).ReadString(0)
	if err != nil {
		return "", fmt.Errorf("reading title at %v: %w", offset, err)
	}
	return t[:len(t)-1], nil
}

// Title gets the title of article n.
func (s *Store) Title(n ArticleNumber) (string, error) {
	rec, err := s.RecordAt(n)
	if err != nil {
		return "", err
	}
	return s.TitleAt(rec.TitleOffset)
}

// BlockLocation gets the location of block b.
func (s *Store) BlockLocation(b uint32) (BlockLocation, error) {
	if int(b) >= s.blocks {
		return BlockLocation{}, ErrNotFound
	}
	r, err := readRecord(s.blockList, int(b))
	if err != nil {
		return BlockLocation{}, err
	}
	return BlockLocation{CatalogIndex: r[0], Start: r[1], End: r[2]}, nil
}

func (s *Store) dataFile(i uint32) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.data[i]; ok {
		return f, nil
	}
	if int(i) >= len(s.catalog.Files) {
		return nil, fmt.Errorf("%w: catalog entry %v", ErrNotFound, i)
	}
	f, err := os.Open(s.catalog.DataPath(int(i)))
	if err != nil {
		return nil, err
	}
	s.data[i] = f
	return f, nil
}

// FetchBlockText decompresses block b.
func (s *Store) FetchBlockText(b uint32) (string, error) {
	loc, err := s.BlockLocation(b)
	if err != nil {
		return "", err
	}
	f, err := s.dataFile(loc.CatalogIndex)
	if err != nil {
		return "", err
	}
	sr := io.NewSectionReader(f, int64(loc.Start), int64(loc.End)-int64(loc.Start))
	text, err := io.ReadAll(bzip2.NewReader(bufio.NewReader(sr)))
	if err != nil {
		return "", fmt.Errorf("decompressing block %v: %w", b, err)
	}
	return string(text), nil
}

var xmlTitleEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// extractPage cuts the <page> element holding the given title out of
// a block.
func extractPage(block, title string) (string, bool) {
	for _, t := range []string{title, xmlTitleEscaper.Replace(title)} {
		i := strings.Index(block, "<title>"+t+"</title>")
		if i < 0 {
			continue
		}
		start := strings.LastIndex(block[:i], "<page>")
		if start < 0 {
			start = i
		}
		end := len(block)
		if j := strings.Index(block[i:], "</page>"); j >= 0 {
			end = i + j + len("</page>")
		}
		return block[start:end], true
	}
	return "", false
}

// FetchArticleText gets the <page> xml of article n.  If titleHint is
// empty the title is read from the index.
func (s *Store) FetchArticleText(n ArticleNumber, titleHint string) (string, error) {
	rec, err := s.RecordAt(n)
	if err != nil {
		return "", err
	}
	title := UpperFirst(titleHint)
	if title == "" {
		if title, err = s.TitleAt(rec.TitleOffset); err != nil {
			return "", err
		}
	}
	block, err := s.FetchBlockText(rec.BlockIndex)
	if err != nil {
		return "", err
	}
	page, ok := extractPage(block, title)
	if !ok {
		return "", fmt.Errorf("%w: %q not in block %v", ErrExtractionFailed, title, rec.BlockIndex)
	}
	return page, nil
}
