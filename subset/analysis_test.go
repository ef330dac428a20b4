package subset

import (
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/dustin/go-wikiindex/testutil"
)

func TestPageRankCycle(t *testing.T) {
	rank := PageRank(LinkCatalog{{1}, {2}, {0}}, DefaultIterations)
	require.Len(t, rank, 3)
	for i, r := range rank {
		assert.InDelta(t, 1.0/3, r, 1e-9, "node %d", i)
	}
}

func TestPageRankSingle(t *testing.T) {
	assert.Equal(t, []float64{1}, PageRank(LinkCatalog{{}}, DefaultIterations))
	// A self link counts for nothing.
	assert.Equal(t, []float64{1}, PageRank(LinkCatalog{{0}}, DefaultIterations))
}

func TestPageRankEmpty(t *testing.T) {
	assert.Empty(t, PageRank(LinkCatalog{}, DefaultIterations))
}

func TestPageRankDangling(t *testing.T) {
	rank := PageRank(LinkCatalog{{1}, {}}, DefaultIterations)
	assert.InDelta(t, 1.0/3, rank[0], 1e-6)
	assert.InDelta(t, 2.0/3, rank[1], 1e-6)
}

func TestPageRankZeroIterations(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5}, PageRank(LinkCatalog{{1}, {}}, 0))
}

func TestComputePageRank(t *testing.T) {
	store, s := fullSubset(t)
	rank, err := s.ComputePageRank(DefaultIterations)
	require.NoError(t, err)
	require.Len(t, rank, len(testutil.Titles))
	assert.InDelta(t, 1, floats.Sum(rank), 1e-9)

	top, err := s.HighestRanked(3)
	require.NoError(t, err)
	assert.Equal(t, []LocalIndex{
		LocalIndex(testutil.Topology),
		LocalIndex(testutil.Geometry),
		LocalIndex(testutil.Algebra),
	}, top)

	all, err := s.HighestRanked(100)
	require.NoError(t, err)
	assert.Len(t, all, len(testutil.Titles))

	reopened := openSubset(t, store, filepath.Dir(s.Dir()), "math")
	loaded, err := reopened.PageRank()
	require.NoError(t, err)
	assert.InDeltaSlice(t, rank, loaded, 1e-12)
}

// chron builds an edit list, newest first, from oldest first sizes,
// editors and timestamps.
func chron(sizes []int64, editors []int, times []int64) []EditRecord {
	rv := make([]EditRecord, len(sizes))
	for i := range sizes {
		rv[i] = EditRecord{RevisionID: int64(i), Size: sizes[i], Timestamp: times[i], Editor: editors[i]}
	}
	slices.Reverse(rv)
	return rv
}

func TestFlaggedEdits(t *testing.T) {
	tests := []struct {
		name    string
		sizes   []int64
		editors []int
		times   []int64
		exp     []int
	}{
		{"empty", nil, nil, nil, []int{}},
		{"single", []int64{5000}, []int{0}, []int64{0}, []int{}},
		{"reverted",
			[]int64{1000, 1000, 5100, 1000}, []int{0, 1, 2, 2}, []int64{0, 100, 200, 300},
			[]int{0, 1}},
		{"small changes",
			[]int64{1000, 1020, 1030}, []int{0, 1, 2}, []int64{0, 100, 200},
			[]int{}},
		{"reverted too late",
			[]int64{1000, 1000, 5100, 1000}, []int{0, 1, 2, 2}, []int64{0, 100, 200, 200 + 86401},
			[]int{}},
		{"reverted by someone else",
			[]int64{1000, 1000, 5100, 1000}, []int{0, 1, 2, 3}, []int64{0, 100, 200, 300},
			[]int{1}},
		{"vandal keeps going",
			[]int64{1000, 3000, 3100, 1000}, []int{0, 1, 1, 2}, []int64{0, 100, 200, 300},
			[]int{1, 2}},
		{"blanking",
			[]int64{4000, 0, 4000}, []int{0, 1, 0}, []int64{0, 100, 200},
			[]int{1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := FlaggedEdits(chron(test.sizes, test.editors, test.times))
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestTrimmedMean(t *testing.T) {
	assert.True(t, math.IsNaN(TrimmedMean(nil)))
	assert.Equal(t, 7.0, TrimmedMean([]float64{7}))
	assert.Equal(t, 5.0, TrimmedMean([]float64{5, 5}))
	assert.InDelta(t, 2.5, TrimmedMean([]float64{1, 2, 3, 4, 100}), 1e-12)
}

// year lays out twelve months, most recent first, starting from a
// December, with the school months and June and July set.
func year(school, summer int64) []int64 {
	rv := make([]int64, 12)
	for i := range rv {
		rv[i] = 50
	}
	for _, i := range []int{1, 2, 8, 9} {
		rv[i] = school
	}
	rv[5], rv[6] = summer, summer
	return rv
}

// monthly turns years into a series of views, oldest first, ending
// with three months of the current season.
func monthly(years ...[]int64) []int64 {
	back := []int64{999, 999, 999}
	for _, y := range years {
		back = append(back, y...)
	}
	slices.Reverse(back)
	return back
}

func TestStudentReferenceIndex(t *testing.T) {
	tests := []struct {
		name  string
		views []int64
		exp   float64
	}{
		{"no views", nil, 1},
		{"short", []int64{1, 2, 3, 4, 5}, 1},
		{"incomplete year", monthly(year(300, 100))[1:], 1},
		{"flat", monthly(year(100, 100)), 1},
		{"school year", monthly(year(300, 100)), 3},
		{"two years", monthly(year(300, 100), year(200, 100)), 2.5},
		{"no summer", monthly(year(300, 100), year(300, 0)), 1},
		{"partial year ignored", append(make([]int64, 5), monthly(year(400, 100))...), 4},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.exp, StudentReferenceIndex(test.views), 1e-12)
		})
	}
}
