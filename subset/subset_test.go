package subset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/testutil"
)

// fixtureLinks is the link catalog of a subset holding every sample
// article, where LocalIndex and ArticleNumber coincide.
var fixtureLinks = LinkCatalog{
	{1, 2},
	{0, 6},
	{0, 8},
	{0},
	{},
	{0, 1, 2, 3, 6, 7, 8},
	{1, 7},
	{6},
	{0, 2, 7},
}

func allArticles() []wikiindex.ArticleNumber {
	rv := make([]wikiindex.ArticleNumber, len(testutil.Titles))
	for i := range rv {
		rv[i] = wikiindex.ArticleNumber(i)
	}
	return rv
}

func openSubset(t *testing.T, store *wikiindex.Store, dir, name string) *Subset {
	t.Helper()
	s, err := Open(dir, name, store,
		WithLogger(zerolog.Nop()),
		WithTaskPool(wikiindex.NewTaskPool(4, 3)))
	require.NoError(t, err)
	return s
}

func newSubset(t *testing.T) (*wikiindex.Store, *Subset) {
	t.Helper()
	store := testutil.Fixture(t)
	return store, openSubset(t, store, t.TempDir(), "math")
}

func fullSubset(t *testing.T) (*wikiindex.Store, *Subset) {
	t.Helper()
	store, s := newSubset(t)
	require.NoError(t, s.Create(allArticles(), nil))
	require.NoError(t, s.BuildLinkCatalog())
	return store, s
}

func TestCreate(t *testing.T) {
	store, s := newSubset(t)
	assert.False(t, s.Built())

	require.NoError(t, s.Create(
		[]wikiindex.ArticleNumber{testutil.GroupTheory, testutil.NumberTheory,
			testutil.NumberTheory, testutil.Algebra, testutil.ListOfMathematics},
		[]wikiindex.ArticleNumber{testutil.ListOfMathematics}))

	require.True(t, s.Built())
	assert.Equal(t, []Member{
		{Number: testutil.Algebra, WikiID: 10, Title: "Algebra"},
		{Number: testutil.NumberTheory, WikiID: 13, Title: "Number theory"},
		{Number: testutil.GroupTheory, WikiID: 40, Title: "Group theory"},
	}, s.Members())

	i, ok := s.LocalIndexOf(testutil.GroupTheory)
	assert.True(t, ok)
	assert.Equal(t, LocalIndex(2), i)
	assert.True(t, s.Contains(testutil.NumberTheory))
	assert.False(t, s.Contains(testutil.ListOfMathematics))

	b, err := os.ReadFile(filepath.Join(s.Dir(), MembersFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[[0,10,"Algebra"],[2,13,"Number theory"],[8,40,"Group theory"]]`, string(b))

	// Reopening loads the membership; creating again changes nothing.
	again := openSubset(t, store, filepath.Dir(s.Dir()), "math")
	assert.Equal(t, s.Members(), again.Members())
	require.NoError(t, again.Create([]wikiindex.ArticleNumber{testutil.Calculus}, nil))
	assert.Equal(t, 3, again.Len())
}

func TestCreateUnknownArticle(t *testing.T) {
	_, s := newSubset(t)
	err := s.Create([]wikiindex.ArticleNumber{99}, nil)
	assert.ErrorIs(t, err, wikiindex.ErrNotFound)
	assert.False(t, s.Built())
}

func TestNotBuilt(t *testing.T) {
	_, s := newSubset(t)
	assert.ErrorIs(t, s.BuildLinkCatalog(), wikiindex.ErrNotBuilt)
	_, err := s.ComputePageRank(DefaultIterations)
	assert.ErrorIs(t, err, wikiindex.ErrNotBuilt)
	assert.ErrorIs(t, s.BuildEditorEditIndex(), wikiindex.ErrNotBuilt)

	require.NoError(t, s.Create(allArticles(), nil))
	_, err = s.LinkCatalog()
	assert.ErrorIs(t, err, wikiindex.ErrNotBuilt)
	_, err = s.HighestRanked(3)
	assert.ErrorIs(t, err, wikiindex.ErrNotBuilt)
	assert.ErrorIs(t, s.BuildArticleMetrics(), wikiindex.ErrNotBuilt)
	_, err = s.Documents()
	assert.ErrorIs(t, err, wikiindex.ErrNotBuilt)
}

func TestBuildLinkCatalog(t *testing.T) {
	store, s := fullSubset(t)

	links, err := s.LinkCatalog()
	require.NoError(t, err)
	assert.Equal(t, fixtureLinks, links)

	b, err := os.ReadFile(filepath.Join(s.Dir(), LinkCatalogFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[0,6],[0,8],[0],[],[0,1,2,3,6,7,8],[1,7],[6],[0,2,7]]`, string(b))

	again := openSubset(t, store, filepath.Dir(s.Dir()), "math")
	links, err = again.LinkCatalog()
	require.NoError(t, err)
	assert.Equal(t, fixtureLinks, links)
}

func TestLinkCatalogStaysInside(t *testing.T) {
	_, s := newSubset(t)
	require.NoError(t, s.Create([]wikiindex.ArticleNumber{
		testutil.Algebra, testutil.Geometry, testutil.Topology}, nil))
	require.NoError(t, s.BuildLinkCatalog())

	links, err := s.LinkCatalog()
	require.NoError(t, err)
	assert.Equal(t, LinkCatalog{{1}, {0, 2}, {1}}, links)
}

func TestBacklinks(t *testing.T) {
	_, s := fullSubset(t)
	back, err := s.Backlinks()
	require.NoError(t, err)
	assert.Equal(t, [][]LocalIndex{
		{1, 2, 3, 5, 8},
		{0, 5, 6},
		{0, 5, 8},
		{5},
		{},
		{},
		{1, 5, 7},
		{5, 6, 8},
		{2, 5},
	}, back)
}

func TestWriteGraphData(t *testing.T) {
	_, s := newSubset(t)
	require.NoError(t, s.Create([]wikiindex.ArticleNumber{
		testutil.Algebra, testutil.Geometry, testutil.ATT, testutil.Topology}, nil))
	require.NoError(t, s.BuildLinkCatalog())
	require.NoError(t, s.WriteGraphData())

	offsets, err := os.ReadFile(filepath.Join(s.Dir(), LinkOffsetsFile))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		4, 0, 0, 0,
		12, 0, 0, 0,
		0, 0, 0, 0,
		24, 0, 0, 0,
	}, offsets)

	data, err := os.ReadFile(filepath.Join(s.Dir(), LinkDataFile))
	require.NoError(t, err)
	end := []byte{0xff, 0xff, 0xff, 0xff}
	var exp []byte
	exp = append(exp, end...)
	exp = append(exp, 1, 0, 0, 0)
	exp = append(exp, end...)
	exp = append(exp, 0, 0, 0, 0, 3, 0, 0, 0)
	exp = append(exp, end...)
	exp = append(exp, 1, 0, 0, 0)
	exp = append(exp, end...)
	assert.Equal(t, exp, data)
}

func TestDocuments(t *testing.T) {
	_, s := fullSubset(t)
	docs, err := s.Documents()
	require.NoError(t, err)
	require.Len(t, docs, len(testutil.Titles))

	d := docs[testutil.Algebra]
	assert.Equal(t, "Algebra", d.ID)
	assert.Equal(t, uint32(10), d.WikiID)
	assert.Equal(t, "math", d.Subset)
	assert.Equal(t, []string{"Geometry", "Number theory"}, d.Links)
	assert.Equal(t, []string{"Geometry", "Number theory", "Calculus",
		"List of mathematics topics", "Group theory"}, d.Backlinks)
	assert.Zero(t, d.PageRank)

	_, err = s.ComputePageRank(DefaultIterations)
	require.NoError(t, err)
	docs, err = s.Documents()
	require.NoError(t, err)
	assert.Greater(t, docs[testutil.Topology].PageRank, docs[testutil.Algebra].PageRank)
}

func TestCorruptArtifact(t *testing.T) {
	store, s := fullSubset(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), PageRankFile), []byte("[0.5]"), 0o644))

	again := openSubset(t, store, filepath.Dir(s.Dir()), "math")
	_, err := again.PageRank()
	require.Error(t, err)
	assert.False(t, errors.Is(err, wikiindex.ErrNotBuilt))
}
