package subset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring"

	"github.com/dustin/go-wikiindex"
)

var listPrefixes = []string{"List of", "Glossary of", "Index of"}

// CreateChild makes a subset inside this one holding the given
// articles that are members here.  Its link catalog is derived from
// this subset's, so no article text is read.
func (s *Subset) CreateChild(name string, members []wikiindex.ArticleNumber) (*Subset, error) {
	links, err := s.LinkCatalog()
	if err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid child subset name %q", name)
	}

	want := roaring.New()
	for _, n := range members {
		want.Add(uint32(n))
	}
	want.And(s.bitmap)
	nums := make([]wikiindex.ArticleNumber, 0, want.GetCardinality())
	it := want.Iterator()
	for it.HasNext() {
		nums = append(nums, wikiindex.ArticleNumber(it.Next()))
	}

	child, err := Open(s.dir, name, s.store, s.opts...)
	if err != nil {
		return nil, err
	}
	if err := child.Create(nums, nil); err != nil {
		return nil, err
	}

	if !child.has(LinkCatalogFile) {
		cl := make(LinkCatalog, child.Len())
		for i, m := range child.members {
			p, ok := s.index[m.Number]
			if !ok {
				return nil, fmt.Errorf("child %v member %v is not in %v", name, m.Number, s.name)
			}
			ls := []LocalIndex{}
			for _, l := range links[p] {
				if ci, ok := child.index[s.members[l].Number]; ok {
					ls = append(ls, ci)
				}
			}
			slices.Sort(ls)
			cl[i] = ls
		}
		if err := child.writeJSON(LinkCatalogFile, cl); err != nil {
			return nil, err
		}
		child.links = cl
	}

	s.log.Info().Str("child", name).Int("members", child.Len()).Msg("Created child subset")
	s.children[name] = child
	return child, nil
}

// CreateChildFromIndexes is CreateChild with members given by their
// position in this subset.  Out of range positions are ignored.
func (s *Subset) CreateChildFromIndexes(name string, idx []LocalIndex) (*Subset, error) {
	nums := make([]wikiindex.ArticleNumber, 0, len(idx))
	for _, i := range idx {
		if i >= 0 && int(i) < len(s.members) {
			nums = append(nums, s.members[i].Number)
		}
	}
	return s.CreateChild(name, nums)
}

// ChildName turns the title of a list article into a child subset
// name: the text after the first "of ", with punctuation and the words
// "articles" and "topics" removed, and the remaining words capitalized
// and joined by underscores.
func ChildName(title string) string {
	if i := strings.Index(title, "of "); i >= 0 {
		title = title[i+3:]
	}
	title = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		}
		return r
	}, title)

	var words []string
	for _, w := range strings.Fields(title) {
		if w == "articles" || w == "topics" {
			continue
		}
		words = append(words, wikiindex.UpperFirst(w))
	}
	return strings.Join(words, "_")
}

func isListTitle(title string) bool {
	for _, p := range listPrefixes {
		if strings.HasPrefix(title, p) {
			return true
		}
	}
	return false
}

// AutoDeriveChildSubsets makes a child subset for every list, glossary
// or index article with more than minSize links inside this subset,
// holding the articles it links to.  It returns the children's names.
func (s *Subset) AutoDeriveChildSubsets(minSize int) ([]string, error) {
	links, err := s.LinkCatalog()
	if err != nil {
		return nil, err
	}
	var rv []string
	for i, m := range s.members {
		if !isListTitle(m.Title) || len(links[i]) <= minSize {
			continue
		}
		name := ChildName(m.Title)
		if name == "" {
			s.log.Debug().Str("title", m.Title).Msg("No usable child name")
			continue
		}
		if _, err := s.CreateChildFromIndexes(name, links[i]); err != nil {
			return rv, err
		}
		rv = append(rv, name)
	}
	return rv, nil
}

// LoadChildren opens every child subset found in the directory.
func (s *Subset) LoadChildren() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var rv []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), MembersFile)); err != nil {
			continue
		}
		if _, ok := s.children[e.Name()]; !ok {
			child, err := Open(s.dir, e.Name(), s.store, s.opts...)
			if err != nil {
				return rv, err
			}
			s.children[e.Name()] = child
		}
		rv = append(rv, e.Name())
	}
	return rv, nil
}

// Child gets the named child subset.
func (s *Subset) Child(name string) (*Subset, error) {
	if c, ok := s.children[name]; ok {
		return c, nil
	}
	if _, err := s.LoadChildren(); err != nil {
		return nil, err
	}
	if c, ok := s.children[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: child %v of %v", wikiindex.ErrNotFound, name, s.name)
}
