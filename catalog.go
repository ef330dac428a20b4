package wikiindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// CatalogFilename is the name of the persisted catalog inside a dump
// directory.
const CatalogFilename = "fileIndex.json"

const (
	indexMarker = "-pages-articles-multistream-index"
	rangeMarker = ".txt-p"
)

// A DumpFile is one index/data file pair of a split multistream dump.
type DumpFile struct {
	Start         uint64 `json:"start"`
	End           uint64 `json:"end"`
	IndexFilename string `json:"indexFilename"`
	DataFilename  string `json:"dataFilename"`
}

// A Catalog is every DumpFile of a dump, ordered by page id range.
type Catalog struct {
	Dir   string     `json:"-"`
	Files []DumpFile `json:"catalog"`
}

// IndexPath is the full path of the i'th index file.
func (c *Catalog) IndexPath(i int) string {
	return filepath.Join(c.Dir, c.Files[i].IndexFilename)
}

// DataPath is the full path of the i'th data file.
func (c *Catalog) DataPath(i int) string {
	return filepath.Join(c.Dir, c.Files[i].DataFilename)
}

// DataSize is the size in bytes of the i'th data file.
func (c *Catalog) DataSize(i int) (int64, error) {
	st, err := os.Stat(c.DataPath(i))
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// parseRange extracts the page id range from an index filename such
// as enwiki-20200301-pages-articles-multistream-index1.txt-p1p30303.bz2
func parseRange(name string) (start, end uint64, err error) {
	i := strings.Index(name, rangeMarker)
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCatalogEntry, name)
	}
	rest := strings.TrimSuffix(name[i+len(rangeMarker):], ".bz2")
	parts := strings.SplitN(rest, "p", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCatalogEntry, name)
	}
	start, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCatalogEntry, name)
	}
	end, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedCatalogEntry, name)
	}
	return start, end, nil
}

// dataFilenameFor maps an index filename to its data counterpart.
func dataFilenameFor(indexName string) string {
	return strings.Replace(strings.Replace(indexName, "-index", "", 1),
		".txt", ".xml", 1)
}

// BuildCatalog catalogs the index/data pairs in dir whose names start
// with prefix (e.g. "enwiki-20200301") and persists the result.
//
// If dir already holds a catalog it is loaded instead; delete
// fileIndex.json to force a rebuild.
func BuildCatalog(dir, prefix string) (*Catalog, error) {
	if _, err := os.Stat(filepath.Join(dir, CatalogFilename)); err == nil {
		log := Logger()
		log.Info().Str("dir", dir).
			Msgf("Catalog already present (delete %s to force a rebuild)", CatalogFilename)
		return LoadCatalog(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	present := map[string]bool{}
	for _, e := range entries {
		present[e.Name()] = true
	}

	c := &Catalog{Dir: dir}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) ||
			!strings.Contains(name, indexMarker) || !strings.HasSuffix(name, ".bz2") {
			continue
		}
		start, end, err := parseRange(name)
		if err != nil {
			return nil, err
		}
		data := dataFilenameFor(name)
		if !present[data] {
			return nil, fmt.Errorf("%w: %q for %q", ErrMissingCounterpart, data, name)
		}
		c.Files = append(c.Files, DumpFile{
			Start:         start,
			End:           end,
			IndexFilename: name,
			DataFilename:  data,
		})
	}
	sort.Slice(c.Files, func(i, j int) bool {
		return c.Files[i].Start < c.Files[j].Start
	})
	log := Logger()
	log.Info().Int("files", len(c.Files)).Msg("Found index files")

	b, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, CatalogFilename), b, 0o644); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadCatalog reads a persisted catalog from dir.
func LoadCatalog(dir string) (*Catalog, error) {
	b, err := os.ReadFile(filepath.Join(dir, CatalogFilename))
	if err != nil {
		return nil, err
	}
	c := &Catalog{}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", CatalogFilename, err)
	}
	c.Dir = dir
	return c, nil
}
