package wikimedia

import (
	"context"
	"net/url"
	"strings"
)

const viewDateFormat = "2006010200"

type viewResponse struct {
	Items []struct {
		Timestamp string `json:"timestamp"`
		Views     int64  `json:"views"`
	} `json:"items"`
}

func (c *Client) viewsURL(title string) string {
	return c.restBase + "/metrics/pageviews/per-article/" + c.project +
		"/all-access/user/" + url.PathEscape(strings.ReplaceAll(title, " ", "_")) +
		"/monthly/" + c.viewStart.Format(viewDateFormat) + "/" + c.viewEnd.Format(viewDateFormat)
}

// MonthlyViews gets the monthly user views of title over the client's
// view window, oldest first.  An article with no recorded views has an
// empty series.
func (c *Client) MonthlyViews(ctx context.Context, title string) ([]int64, error) {
	var res viewResponse
	err := c.getJSON(ctx, c.viewsURL(title), &res)
	switch {
	case IsNotFound(err):
		return []int64{}, nil
	case err != nil:
		return nil, err
	}
	rv := make([]int64, len(res.Items))
	for i, it := range res.Items {
		rv[i] = it.Views
	}
	return rv, nil
}
