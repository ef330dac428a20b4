// Package subset keeps named collections of articles from a
// wikiindex.Store along with the link graph, rankings, view and edit
// history, and metrics derived for them.
//
// Every per-article artifact of a subset is a list parallel to its
// membership and addressed by LocalIndex.  Build steps persist their
// artifact as JSON in the subset directory and are skipped when it
// already exists; artifacts are loaded lazily on first use.
package subset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dustin/go-wikiindex"
)

// Artifact filenames inside a subset directory.
const (
	MembersFile        = "mainList.json"
	LinkCatalogFile    = "linkCatalog.json"
	PageRankFile       = "pageRank.json"
	ViewCatalogFile    = "viewCatalog.json"
	EditCatalogFile    = "editCatalog.json"
	EditorsFile        = "users.json"
	EditorEditsFile    = "userEditCatalog.json"
	ArticleMetricsFile = "extraArticleInfo.json"
	EditorMetricsFile  = "extraUserInfo.json"
	LinkOffsetsFile    = "linkOffsets.bin"
	LinkDataFile       = "linkData.bin"
)

// A LocalIndex is the position of an article in a subset's
// membership.  It is only meaningful within that subset.
type LocalIndex int

// A Member is one article of a subset.  It is stored as the tuple
// [number, wikiId, title].
type Member struct {
	Number wikiindex.ArticleNumber
	WikiID uint32
	Title  string
}

func (m Member) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Number, m.WikiID, m.Title})
}

func (m *Member) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("member has %d fields, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.Number); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &m.WikiID); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &m.Title)
}

// A Subset is a named, persisted collection of articles.
//
// A Subset is not safe for concurrent use.
type Subset struct {
	name  string
	dir   string
	store *wikiindex.Store
	log   zerolog.Logger
	pool  *wikiindex.TaskPool

	members []Member
	index   map[wikiindex.ArticleNumber]LocalIndex
	bitmap  *roaring.Bitmap

	links          LinkCatalog
	rank           []float64
	views          [][]int64
	edits          [][]EditRecord
	editors        []string
	editorEdits    [][]EditRef
	articleMetrics *ArticleMetrics
	editorMetrics  *EditorMetrics

	opts     []Option
	children map[string]*Subset
}

// An Option configures a Subset.
type Option func(*Subset)

// WithLogger sets the subset's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Subset) {
		s.log = l
	}
}

// WithTaskPool sets the pool used for view and edit fetches.
func WithTaskPool(tp *wikiindex.TaskPool) Option {
	return func(s *Subset) {
		s.pool = tp
	}
}

// Open opens the subset called name under dir, creating its directory
// if needed.  An existing membership is loaded.
func Open(dir, name string, store *wikiindex.Store, opts ...Option) (*Subset, error) {
	s := &Subset{
		name:     name,
		dir:      filepath.Join(dir, name),
		store:    store,
		log:      wikiindex.Logger(),
		opts:     opts,
		children: map[string]*Subset{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.pool == nil {
		s.pool = wikiindex.NewTaskPool(wikiindex.DefaultWorkers, wikiindex.DefaultMaxAttempts)
	}
	s.pool = s.pool.WithLogger(s.log)
	s.log = s.log.With().Str("subset", name).Logger()

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.log.Info().Str("dir", s.dir).Msg("Creating subset")
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, err
		}
	}

	if s.has(MembersFile) {
		var ms []Member
		if err := s.readJSON(MembersFile, &ms); err != nil {
			return nil, err
		}
		s.setMembers(ms)
		s.log.Debug().Int("members", len(ms)).Msg("Loaded subset")
	}
	return s, nil
}

// Name is the subset's name.
func (s *Subset) Name() string { return s.name }

// Dir is the directory holding the subset's artifacts.
func (s *Subset) Dir() string { return s.dir }

// Built is true once the membership exists.
func (s *Subset) Built() bool { return s.members != nil }

// Len is the number of members.
func (s *Subset) Len() int { return len(s.members) }

// Members lists the membership in LocalIndex order.
func (s *Subset) Members() []Member { return s.members }

// Member gets the member at i.
func (s *Subset) Member(i LocalIndex) Member { return s.members[i] }

// LocalIndexOf finds the position of article n in the subset.
func (s *Subset) LocalIndexOf(n wikiindex.ArticleNumber) (LocalIndex, bool) {
	i, ok := s.index[n]
	return i, ok
}

// Contains is true if article n is a member.
func (s *Subset) Contains(n wikiindex.ArticleNumber) bool {
	return s.bitmap != nil && s.bitmap.Contains(uint32(n))
}

func (s *Subset) setMembers(ms []Member) {
	if ms == nil {
		ms = []Member{}
	}
	s.members = ms
	s.index = make(map[wikiindex.ArticleNumber]LocalIndex, len(ms))
	s.bitmap = roaring.New()
	for i, m := range ms {
		s.index[m.Number] = LocalIndex(i)
		s.bitmap.Add(uint32(m.Number))
	}
}

// Create builds the membership from members less excluded.
// Duplicates are dropped and members are ordered by ArticleNumber.
// Nothing happens if the membership already exists.
func (s *Subset) Create(members, excluded []wikiindex.ArticleNumber) error {
	if s.Built() {
		s.log.Info().Msg("Membership already built")
		return nil
	}

	bm := roaring.New()
	for _, n := range members {
		bm.Add(uint32(n))
	}
	for _, n := range excluded {
		bm.Remove(uint32(n))
	}

	s.log.Info().Uint64("members", bm.GetCardinality()).Msg("Building membership")
	ms := make([]Member, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		n := wikiindex.ArticleNumber(it.Next())
		rec, err := s.store.RecordAt(n)
		if err != nil {
			return fmt.Errorf("member %v: %w", n, err)
		}
		title, err := s.store.TitleAt(rec.TitleOffset)
		if err != nil {
			return fmt.Errorf("member %v: %w", n, err)
		}
		ms = append(ms, Member{Number: n, WikiID: rec.WikiID, Title: title})
	}

	if err := s.writeJSON(MembersFile, ms); err != nil {
		return err
	}
	s.setMembers(ms)
	return nil
}

func (s *Subset) requireMembers() error {
	if !s.Built() {
		return fmt.Errorf("%w: membership of %v", wikiindex.ErrNotBuilt, s.name)
	}
	return nil
}

func (s *Subset) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Subset) has(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *Subset) readJSON(name string, v any) error {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v of %v", wikiindex.ErrNotBuilt, name, s.name)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %v: %w", s.path(name), err)
	}
	return nil
}

// writeJSON writes an artifact through a temp file so an interrupted
// write never leaves a file that looks complete.
func (s *Subset) writeJSON(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := s.path(name + ".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(name))
}

// checkLen makes sure a loaded per-article artifact matches the
// membership.
func (s *Subset) checkLen(name string, n int) error {
	if n != len(s.members) {
		return fmt.Errorf("%v of %v has %d entries for %d members",
			name, s.name, n, len(s.members))
	}
	return nil
}
