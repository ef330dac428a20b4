package subset

import (
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring"
	"github.com/dustin/go-humanize"

	"github.com/dustin/go-wikiindex"
)

// A LinkCatalog holds, for every member, the sorted and deduplicated
// members it links to.  Self links are dropped.
type LinkCatalog [][]LocalIndex

// BuildLinkCatalog extracts the links of every member and keeps those
// that point inside the subset.
func (s *Subset) BuildLinkCatalog() error {
	if err := s.requireMembers(); err != nil {
		return err
	}
	if s.has(LinkCatalogFile) {
		s.log.Info().Msg("Link catalog already built")
		_, err := s.LinkCatalog()
		return err
	}

	s.log.Info().Int("members", len(s.members)).Msg("Building link catalog")
	start := time.Now()
	links := make(LinkCatalog, len(s.members))
	for i, m := range s.members {
		a, err := s.store.ArticleByNumber(m.Number)
		if err != nil {
			return err
		}
		nums, err := a.LinkNumbers()
		if err != nil {
			return err
		}
		links[i] = s.localLinks(LocalIndex(i), nums)

		if (i+1)%1000 == 0 {
			s.log.Info().Msgf("Constructed links for %s/%s articles (%.2f/s)",
				humanize.Comma(int64(i+1)), humanize.Comma(int64(len(s.members))),
				float64(i+1)/time.Since(start).Seconds())
		}
	}

	if err := s.writeJSON(LinkCatalogFile, links); err != nil {
		return err
	}
	s.links = links
	return nil
}

// localLinks maps resolved link targets of member i into the subset.
func (s *Subset) localLinks(i LocalIndex, nums []wikiindex.ArticleNumber) []LocalIndex {
	in := roaring.New()
	for _, n := range nums {
		in.Add(uint32(n))
	}
	in.And(s.bitmap)
	in.Remove(uint32(s.members[i].Number))

	rv := make([]LocalIndex, 0, in.GetCardinality())
	it := in.Iterator()
	for it.HasNext() {
		rv = append(rv, s.index[wikiindex.ArticleNumber(it.Next())])
	}
	slices.Sort(rv)
	return rv
}

// LinkCatalog gets the link catalog, loading it if needed.
func (s *Subset) LinkCatalog() (LinkCatalog, error) {
	if s.links != nil {
		return s.links, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	var links LinkCatalog
	if err := s.readJSON(LinkCatalogFile, &links); err != nil {
		return nil, err
	}
	if err := s.checkLen(LinkCatalogFile, len(links)); err != nil {
		return nil, err
	}
	for i := range links {
		if links[i] == nil {
			links[i] = []LocalIndex{}
		}
	}
	s.links = links
	return links, nil
}

// Backlinks inverts the link catalog: for every member, the members
// linking to it, in ascending order.
func (s *Subset) Backlinks() ([][]LocalIndex, error) {
	links, err := s.LinkCatalog()
	if err != nil {
		return nil, err
	}
	return backlinks(links), nil
}

func backlinks(links LinkCatalog) [][]LocalIndex {
	rv := make([][]LocalIndex, len(links))
	for i := range rv {
		rv[i] = []LocalIndex{}
	}
	for i, ls := range links {
		for _, l := range ls {
			rv[l] = append(rv[l], LocalIndex(i))
		}
	}
	return rv
}
