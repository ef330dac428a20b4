package subset

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// DefaultIterations is the number of PageRank steps.
const DefaultIterations = 100

// PageRank runs exactly iters power iteration steps over the link
// graph, starting from the uniform vector.
//
// A member splits its weight evenly over its out links (self links
// ignored).  A member with no out links spreads its weight evenly over
// every member, itself included.  There is no damping.
func PageRank(links LinkCatalog, iters int) []float64 {
	n := len(links)
	if n == 0 {
		return []float64{}
	}
	x := make([]float64, n)
	floats.AddConst(1/float64(n), x)
	next := make([]float64, n)

	out := make([]int, n)
	for i, ls := range links {
		for _, l := range ls {
			if int(l) != i {
				out[i]++
			}
		}
	}

	for it := 0; it < iters; it++ {
		clear(next)
		dangling := 0.0
		for i, ls := range links {
			if out[i] == 0 {
				dangling += x[i]
				continue
			}
			w := x[i] / float64(out[i])
			for _, l := range ls {
				if int(l) != i {
					next[l] += w
				}
			}
		}
		if dangling != 0 {
			floats.AddConst(dangling/float64(n), next)
		}
		x, next = next, x
	}
	return x
}

// ComputePageRank ranks the members over the link catalog and persists
// the result.
func (s *Subset) ComputePageRank(iters int) ([]float64, error) {
	if s.has(PageRankFile) {
		s.log.Info().Msg("PageRank already built")
		return s.PageRank()
	}
	links, err := s.LinkCatalog()
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("iterations", iters).Msg("Calculating PageRank")
	rank := PageRank(links, iters)
	if err := s.writeJSON(PageRankFile, rank); err != nil {
		return nil, err
	}
	s.rank = rank
	return rank, nil
}

// PageRank gets the persisted ranking, loading it if needed.
func (s *Subset) PageRank() ([]float64, error) {
	if s.rank != nil {
		return s.rank, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	var rank []float64
	if err := s.readJSON(PageRankFile, &rank); err != nil {
		return nil, err
	}
	if err := s.checkLen(PageRankFile, len(rank)); err != nil {
		return nil, err
	}
	s.rank = rank
	return rank, nil
}

// HighestRanked lists the n members with the highest PageRank, best
// first.  Ties keep LocalIndex order.
func (s *Subset) HighestRanked(n int) ([]LocalIndex, error) {
	rank, err := s.PageRank()
	if err != nil {
		return nil, err
	}
	idx := make([]LocalIndex, len(rank))
	for i := range idx {
		idx[i] = LocalIndex(i)
	}
	slices.SortStableFunc(idx, func(a, b LocalIndex) int {
		return cmp.Compare(rank[b], rank[a])
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx, nil
}
