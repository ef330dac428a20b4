package wikiindex

import (
	"context"
	"errors"
	"html"
	"sync"
	"unicode/utf8"
)

// An Article is a lazy view of one article of a Store.
//
// Whether the article exists is decided once when the view is made.
// Accessors on an article that does not exist return empty results.
type Article struct {
	store  *Store
	num    ArticleNumber
	title  string
	exists bool

	textOnce sync.Once
	text     string
	textErr  error

	linkOnce sync.Once
	links    []string
}

// ArticleByTitle gets a view of the article with the given title.
func (s *Store) ArticleByTitle(title string) (*Article, error) {
	a := &Article{store: s, title: UpperFirst(title)}
	n, err := s.LookupByTitle(title)
	switch {
	case errors.Is(err, ErrNotFound):
		return a, nil
	case err != nil:
		return nil, err
	}
	a.num, a.exists = n, true
	return a, nil
}

// ArticleByNumber gets a view of article n.
func (s *Store) ArticleByNumber(n ArticleNumber) (*Article, error) {
	a := &Article{store: s, num: n}
	title, err := s.Title(n)
	switch {
	case errors.Is(err, ErrNotFound):
		return a, nil
	case err != nil:
		return nil, err
	}
	a.title, a.exists = title, true
	return a, nil
}

// Exists is true if the article is in the index.
func (a *Article) Exists() bool { return a.exists }

// Number is the article's ArticleNumber.  It is meaningless if the
// article does not exist.
func (a *Article) Number() ArticleNumber { return a.num }

// Title is the article's title.
func (a *Article) Title() string { return a.title }

// Text gets the <page> xml of the article.  It is fetched once.
func (a *Article) Text() (string, error) {
	if !a.exists {
		return "", nil
	}
	a.textOnce.Do(func() {
		a.text, a.textErr = a.store.FetchArticleText(a.num, a.title)
	})
	return a.text, a.textErr
}

// Links gets the link targets of the article, in order of appearance.
func (a *Article) Links() ([]string, error) {
	text, err := a.Text()
	if err != nil {
		return nil, err
	}
	a.linkOnce.Do(func() {
		for _, l := range FindLinks(text) {
			a.links = append(a.links, html.UnescapeString(l))
		}
	})
	return a.links, nil
}

// LinkNumbers resolves the article's links to ArticleNumbers.  Links
// to articles not in the index are dropped; duplicates are kept.
func (a *Article) LinkNumbers() ([]ArticleNumber, error) {
	links, err := a.Links()
	if err != nil {
		return nil, err
	}
	rv := make([]ArticleNumber, 0, len(links))
	for _, l := range links {
		n, err := a.store.LookupByTitle(l)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		rv = append(rv, n)
	}
	return rv, nil
}

// Page decodes the article's xml.  It is nil for a missing article.
func (a *Article) Page() (*Page, error) {
	text, err := a.Text()
	if err != nil || text == "" {
		return nil, err
	}
	return DecodePage(text)
}

// Size is the length of the article's xml in characters.
func (a *Article) Size() (int, error) {
	text, err := a.Text()
	if err != nil {
		return 0, err
	}
	return utf8.RuneCountInString(text), nil
}

// EditHistory asks src for the article's edits, newest first.
func (a *Article) EditHistory(ctx context.Context, src EditSource) ([]Edit, error) {
	if !a.exists {
		return nil, nil
	}
	return src.Edits(ctx, a.title)
}
