package wikiindex

import (
	"encoding/xml"
)

// A user who contributed a revision.
type Contributor struct {
	ID       uint64 `xml:"id"`
	Username string `xml:"username"`
	IP       string `xml:"ip"`
}

// A revision to a page.
type Revision struct {
	ID          uint64      `xml:"id"`
	ParentID    uint64      `xml:"parentid"`
	Timestamp   string      `xml:"timestamp"`
	Contributor Contributor `xml:"contributor"`
	Comment     string      `xml:"comment"`
	Text        string      `xml:"text"`
}

// A wiki page.
type Page struct {
	Title     string `xml:"title"`
	Namespace int    `xml:"ns"`
	ID        uint64 `xml:"id"`
	Redirect  *struct {
		Title string `xml:"title,attr"`
	} `xml:"redirect"`
	Revision Revision `xml:"revision"`
}

// IsRedirect is true if the page only points at another page.
func (p *Page) IsRedirect() bool {
	return p.Redirect != nil
}

// DecodePage decodes the <page> element of a single article as
// returned by Store.FetchArticleText.
func DecodePage(text string) (*Page, error) {
	rv := new(Page)
	if err := xml.Unmarshal([]byte(text), rv); err != nil {
		return nil, err
	}
	return rv, nil
}
