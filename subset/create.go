package subset

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dustin/go-wikiindex"
)

// DefaultMinChildSize is the smallest list or category that becomes a
// child subset.
const DefaultMinChildSize = 100

// ListGroups fill the {} placeholder of a list title split into
// alphabetical pages, e.g. "Index of mathematics articles ({})".
var ListGroups = []string{
	"!$@", "0-9",
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

func expandListTitles(titles []string) []string {
	var rv []string
	for _, t := range titles {
		if !strings.Contains(t, "{}") {
			rv = append(rv, t)
			continue
		}
		for _, g := range ListGroups {
			rv = append(rv, strings.ReplaceAll(t, "{}", g))
		}
	}
	return rv
}

// CreateFromListArticles builds the subset from the articles linked by
// one or more list articles, then its link catalog and the child
// subsets of its own lists.  The list articles themselves are left
// out.
func (s *Subset) CreateFromListArticles(titles []string, minChildSize int) error {
	if !s.Built() {
		var nums, lists []wikiindex.ArticleNumber
		for _, t := range expandListTitles(titles) {
			a, err := s.store.ArticleByTitle(t)
			if err != nil {
				return err
			}
			if !a.Exists() {
				s.log.Debug().Str("title", t).Msg("No such list article")
				continue
			}
			ln, err := a.LinkNumbers()
			if err != nil {
				return err
			}
			nums = append(nums, ln...)
			lists = append(lists, a.Number())
		}
		if err := s.Create(nums, lists); err != nil {
			return err
		}
	}
	if err := s.BuildLinkCatalog(); err != nil {
		return err
	}
	_, err := s.AutoDeriveChildSubsets(minChildSize)
	return err
}

func (s *Subset) resolveTitles(titles map[string]string) ([]wikiindex.ArticleNumber, error) {
	rv := make([]wikiindex.ArticleNumber, 0, len(titles))
	for t := range titles {
		n, err := s.store.LookupByTitle(t)
		switch {
		case errors.Is(err, wikiindex.ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		rv = append(rv, n)
	}
	return rv, nil
}

func sortedKeys(m map[string]string) []string {
	rv := make([]string, 0, len(m))
	for k := range m {
		rv = append(rv, k)
	}
	sort.Strings(rv)
	return rv
}

// CreateFromCategory builds the subset from the pages of a category
// and of each of its direct subcategories, then its link catalog and
// PageRank.  Subcategories with at least minChildSize articles in the
// index become child subsets named after them.
func (s *Subset) CreateFromCategory(ctx context.Context, src wikiindex.CategorySource,
	categoryURL string, minChildSize int) error {

	pages, subcats, err := src.Category(ctx, categoryURL)
	if err != nil {
		return err
	}
	nums, err := s.resolveTitles(pages)
	if err != nil {
		return err
	}

	type child struct {
		name string
		nums []wikiindex.ArticleNumber
	}
	var children []child
	for _, name := range sortedKeys(subcats) {
		subPages, _, err := src.Category(ctx, subcats[name])
		if err != nil {
			return err
		}
		subNums, err := s.resolveTitles(subPages)
		if err != nil {
			return err
		}
		s.log.Debug().Str("category", name).Int("articles", len(subNums)).Msg("Read subcategory")
		nums = append(nums, subNums...)
		if len(subNums) >= minChildSize {
			children = append(children, child{strings.ReplaceAll(name, " ", "_"), subNums})
		}
	}

	if err := s.Create(nums, nil); err != nil {
		return err
	}
	if err := s.BuildLinkCatalog(); err != nil {
		return err
	}
	if _, err := s.ComputePageRank(DefaultIterations); err != nil {
		return err
	}
	for _, c := range children {
		if _, err := s.CreateChild(c.name, c.nums); err != nil {
			return err
		}
	}
	return nil
}
