package wikimedia

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dustin/go-wikiindex"
)

// UnknownEditor stands in for editors the API does not name.
const UnknownEditor = "unknown"

const (
	firstPageSize = 100
	nextPageSize  = 500
)

type revisionResponse struct {
	Continue *struct {
		RVContinue string `json:"rvcontinue"`
	} `json:"continue"`
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Revisions []struct {
				RevID     int64     `json:"revid"`
				Size      int64     `json:"size"`
				Timestamp time.Time `json:"timestamp"`
				User      string    `json:"user"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *Client) revisionsURL(title, cont string) string {
	v := url.Values{}
	v.Set("action", "query")
	v.Set("prop", "revisions")
	v.Set("titles", title)
	v.Set("format", "json")
	v.Set("formatversion", "2")
	v.Set("rvprop", "ids|timestamp|size|user")
	if cont == "" {
		v.Set("rvlimit", strconv.Itoa(firstPageSize))
	} else {
		v.Set("rvlimit", strconv.Itoa(nextPageSize))
		v.Set("rvcontinue", cont)
	}
	return c.actionBase + "?" + v.Encode()
}

// Edits gets the revisions of title, newest first, back to the
// client's cutoff.
func (c *Client) Edits(ctx context.Context, title string) ([]wikiindex.Edit, error) {
	var rv []wikiindex.Edit
	cont := ""
	for {
		var res revisionResponse
		if err := c.getJSON(ctx, c.revisionsURL(title, cont), &res); err != nil {
			return nil, err
		}
		if len(res.Query.Pages) == 0 {
			return nil, fmt.Errorf("no page in revisions of %q", title)
		}
		page := res.Query.Pages[0]
		if page.Missing {
			return nil, fmt.Errorf("%w: %q", wikiindex.ErrNotFound, title)
		}
		for _, r := range page.Revisions {
			if r.Timestamp.Before(c.since) {
				return rv, nil
			}
			user := r.User
			if user == "" {
				user = UnknownEditor
			}
			rv = append(rv, wikiindex.Edit{
				RevisionID: r.RevID,
				Size:       r.Size,
				Timestamp:  r.Timestamp.Unix(),
				Editor:     user,
			})
		}
		if res.Continue == nil || res.Continue.RVContinue == "" {
			return rv, nil
		}
		cont = res.Continue.RVContinue
		c.log.Debug().Str("title", title).Int("edits", len(rv)).Msg("Fetching more revisions")
	}
}
