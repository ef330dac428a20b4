package wikimedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/go-wikiindex"
)

func testClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithRESTBase(srv.URL + "/rest"),
		WithActionBase(srv.URL + "/w/api.php"),
		WithSiteBase("https://en.wikipedia.org"),
		WithUserAgent("tester/1.0"),
		WithRateLimit(0),
		WithLogger(zerolog.Nop()),
	}, opts...)
	return NewClient(opts...)
}

func TestMonthlyViews(t *testing.T) {
	var path, agent string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, agent = r.URL.EscapedPath(), r.UserAgent()
		fmt.Fprint(w, `{"items":[{"timestamp":"2015070100","views":12},`+
			`{"timestamp":"2015080100","views":7},{"timestamp":"2015090100","views":30}]}`)
	}), WithViewWindow(time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2015, 9, 30, 0, 0, 0, 0, time.UTC)))

	views, err := c.MonthlyViews(context.Background(), "Number theory")
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 7, 30}, views)
	assert.Equal(t, "/rest/metrics/pageviews/per-article/en.wikipedia/all-access/user/"+
		"Number_theory/monthly/2015070100/2015093000", path)
	assert.Equal(t, "tester/1.0", agent)
}

func TestMonthlyViewsEscapes(t *testing.T) {
	var path string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		fmt.Fprint(w, `{"items":[]}`)
	}))
	views, err := c.MonthlyViews(context.Background(), "AC/DC")
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Contains(t, path, "/user/AC%2FDC/monthly/")
}

func TestMonthlyViewsNotFound(t *testing.T) {
	c := testClient(t, http.NotFoundHandler())
	views, err := c.MonthlyViews(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.Equal(t, []int64{}, views)
}

func TestStatusErrors(t *testing.T) {
	var code atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(code.Load()))
	}))

	var perm *backoff.PermanentError
	var se *StatusError

	code.Store(http.StatusForbidden)
	_, err := c.MonthlyViews(context.Background(), "X")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.ErrorAs(t, err, &perm)

	for _, c2 := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		code.Store(int32(c2))
		_, err = c.MonthlyViews(context.Background(), "X")
		require.ErrorAs(t, err, &se)
		assert.Equal(t, c2, se.Code)
		assert.False(t, errors.As(err, &perm), "status %d should be retried", c2)
	}
}

func TestMonthlyViewsBadJSON(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":`)
	}))
	_, err := c.MonthlyViews(context.Background(), "X")
	assert.Error(t, err)
}

func TestEdits(t *testing.T) {
	var queries []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		queries = append(queries, q.Get("rvlimit")+"/"+q.Get("rvcontinue"))
		assert.Equal(t, "/w/api.php", r.URL.Path)
		assert.Equal(t, "Group theory", q.Get("titles"))
		assert.Equal(t, "ids|timestamp|size|user", q.Get("rvprop"))
		switch q.Get("rvcontinue") {
		case "":
			fmt.Fprint(w, `{"continue":{"rvcontinue":"20190101|5","continue":"||"},
				"query":{"pages":[{"pageid":40,"title":"Group theory","revisions":[
				{"revid":9,"user":"Alice","timestamp":"2020-03-01T10:00:00Z","size":5000},
				{"revid":8,"userhidden":true,"timestamp":"2020-02-01T10:00:00Z","size":4000}]}]}}`)
		case "20190101|5":
			fmt.Fprint(w, `{"query":{"pages":[{"pageid":40,"title":"Group theory","revisions":[
				{"revid":5,"user":"Bob","timestamp":"2016-01-01T00:00:00Z","size":3000},
				{"revid":4,"user":"Carol","timestamp":"2014-12-31T23:59:59Z","size":2000}]}]}}`)
		default:
			t.Errorf("Unexpected continuation %q", q.Get("rvcontinue"))
		}
	}))

	edits, err := c.Edits(context.Background(), "Group theory")
	require.NoError(t, err)
	assert.Equal(t, []wikiindex.Edit{
		{RevisionID: 9, Size: 5000, Timestamp: time.Date(2020, 3, 1, 10, 0, 0, 0, time.UTC).Unix(), Editor: "Alice"},
		{RevisionID: 8, Size: 4000, Timestamp: time.Date(2020, 2, 1, 10, 0, 0, 0, time.UTC).Unix(), Editor: UnknownEditor},
		{RevisionID: 5, Size: 3000, Timestamp: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), Editor: "Bob"},
	}, edits)
	assert.Equal(t, []string{"100/", "500/20190101|5"}, queries)
}

func TestEditsMissingPage(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`)
	}))
	_, err := c.Edits(context.Background(), "Nope")
	assert.ErrorIs(t, err, wikiindex.ErrNotFound)
}

const categoryPage = `<!DOCTYPE html>
<html><body>
<div id="mw-subcategories"><h2>Subcategories</h2>
<ul>
<li><a href="/wiki/Category:Abstract_algebra">Abstract algebra</a></li>
<li><a href="/wiki/Category:Number_theory"> Number theory </a></li>
</ul></div>
<div id="mw-pages"><h2>Pages in category "Mathematics"</h2>
<a href="/w/index.php?title=Category:Mathematics&amp;pagefrom=Zeta#mw-pages">next page</a>
<ul>
<li><a href="/wiki/Algebra" title="Algebra">Algebra</a></li>
<li><a href="https://en.wikipedia.org/wiki/AT%26T"><i>AT&amp;T</i></a></li>
<li><a>No link</a></li>
</ul></div>
<div id="footer"><a href="/wiki/Main_Page">Main Page</a></div>
</body></html>`

func TestCategory(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/Category:Mathematics", r.URL.Path)
		io.WriteString(w, categoryPage)
	}))

	srvURL := strings.TrimSuffix(c.restBase, "/rest")
	pages, subcats, err := c.Category(context.Background(), srvURL+"/wiki/Category:Mathematics")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Algebra": "https://en.wikipedia.org/wiki/Algebra",
		"AT&T":    "https://en.wikipedia.org/wiki/AT%26T",
	}, pages)
	assert.Equal(t, map[string]string{
		"Abstract algebra": "https://en.wikipedia.org/wiki/Category:Abstract_algebra",
		"Number theory":    "https://en.wikipedia.org/wiki/Category:Number_theory",
	}, subcats)
}

func TestCategoryEmpty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Nothing here</p></body></html>`)
	}))
	pages, subcats, err := c.Category(context.Background(), strings.TrimSuffix(c.restBase, "/rest"))
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Empty(t, subcats)
}

func TestCategoryURL(t *testing.T) {
	c := NewClient()
	assert.Equal(t, "https://en.wikipedia.org/wiki/Category:Fields_of_mathematics",
		c.CategoryURL("Fields of mathematics"))
}

func TestRateLimit(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"items":[]}`)
	}), WithRateLimit(1))

	_, err := c.MonthlyViews(context.Background(), "A")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.MonthlyViews(ctx, "B")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
