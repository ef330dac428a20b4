package wikimedia

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// CategoryURL is the page of the named category on the client's site.
func (c *Client) CategoryURL(name string) string {
	return c.siteBase + "/wiki/Category:" + url.PathEscape(strings.ReplaceAll(name, " ", "_"))
}

// Category scrapes a category page for its member pages and
// subcategories, each mapped from link text to absolute URL.
func (c *Client) Category(ctx context.Context, u string) (map[string]string, map[string]string, error) {
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()
	doc, err := html.Parse(body)
	if err != nil {
		return nil, nil, err
	}
	base, err := url.Parse(c.siteBase)
	if err != nil {
		return nil, nil, err
	}

	pages, subcats := map[string]string{}, map[string]string{}
	if n := findByID(doc, "mw-pages"); n != nil {
		collectLinks(n, base, pages)
	}
	if n := findByID(doc, "mw-subcategories"); n != nil {
		collectLinks(n, base, subcats)
	}
	return pages, subcats, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		if v, ok := attr(n, "id"); ok && v == id {
			return n
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if f := findByID(ch, id); f != nil {
			return f
		}
	}
	return nil
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// isPager is true for the previous and next page links of a long
// category.
func isPager(u *url.URL) bool {
	q := u.Query()
	for _, k := range []string{"pagefrom", "pageuntil", "subcatfrom", "subcatuntil"} {
		if q.Has(k) {
			return true
		}
	}
	return false
}

func collectLinks(n *html.Node, base *url.URL, into map[string]string) {
	if n.Type == html.ElementNode && n.Data == "a" {
		href, ok := attr(n, "href")
		name := text(n)
		if !ok || name == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil || isPager(ref) {
			return
		}
		into[name] = base.ResolveReference(ref).String()
		return
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		collectLinks(ch, base, into)
	}
}
