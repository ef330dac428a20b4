package wikiindex

import (
	"context"
	"reflect"
	"testing"
)

type fakeEdits map[string][]Edit

func (f fakeEdits) Edits(ctx context.Context, title string) ([]Edit, error) {
	return f[title], nil
}

func TestArticleLinks(t *testing.T) {
	s := buildFixture(t, WithBucketCount(7))

	a, err := s.ArticleByTitle("algebra")
	if err != nil {
		t.Fatalf("Error getting article: %v", err)
	}
	if !a.Exists() || a.Number() != 0 || a.Title() != "Algebra" {
		t.Fatalf("Unexpected article %v/%v/%q", a.Exists(), a.Number(), a.Title())
	}

	links, err := a.Links()
	if err != nil {
		t.Fatalf("Error finding links: %v", err)
	}
	exp := []string{"Geometry", "number theory", "Algebra", "Missing article", "Geometry"}
	if !reflect.DeepEqual(links, exp) {
		t.Fatalf("Expected links %q, got %q", exp, links)
	}

	nums, err := a.LinkNumbers()
	if err != nil {
		t.Fatalf("Error resolving links: %v", err)
	}
	if !reflect.DeepEqual(nums, []ArticleNumber{1, 2, 0, 1}) {
		t.Fatalf("Expected [1 2 0 1], got %v", nums)
	}
}

func TestArticleUnclosedLink(t *testing.T) {
	s := buildFixture(t, WithBucketCount(7))
	a, err := s.ArticleByNumber(8)
	if err != nil {
		t.Fatalf("Error getting article: %v", err)
	}
	nums, err := a.LinkNumbers()
	if err != nil {
		t.Fatalf("Error resolving links: %v", err)
	}
	if !reflect.DeepEqual(nums, []ArticleNumber{0, 2, 7}) {
		t.Fatalf("Expected [0 2 7], got %v", nums)
	}
}

func TestArticlePage(t *testing.T) {
	s := buildFixture(t, WithBucketCount(7))
	a, err := s.ArticleByTitle("AT&T")
	if err != nil {
		t.Fatalf("Error getting article: %v", err)
	}
	p, err := a.Page()
	if err != nil {
		t.Fatalf("Error decoding page: %v", err)
	}
	if p.Title != "AT&T" || p.ID != 18 || p.Revision.Contributor.Username != "Editor18" {
		t.Fatalf("Unexpected page %+v", p)
	}
	if p.Revision.Text != "A telephone company." || p.IsRedirect() {
		t.Fatalf("Unexpected revision %+v", p.Revision)
	}
	size, err := a.Size()
	if err != nil || size == 0 {
		t.Fatalf("Expected a size, got %v, %v", size, err)
	}
}

func TestArticleMissing(t *testing.T) {
	s := buildFixture(t, WithBucketCount(7))
	for _, get := range []func() (*Article, error){
		func() (*Article, error) { return s.ArticleByTitle("Missing article") },
		func() (*Article, error) { return s.ArticleByNumber(42) },
	} {
		a, err := get()
		if err != nil {
			t.Fatalf("Error getting missing article: %v", err)
		}
		if a.Exists() {
			t.Fatalf("Expected a missing article")
		}
		text, err := a.Text()
		if err != nil || text != "" {
			t.Errorf("Expected no text, got %q, %v", text, err)
		}
		links, err := a.LinkNumbers()
		if err != nil || len(links) != 0 {
			t.Errorf("Expected no links, got %v, %v", links, err)
		}
		p, err := a.Page()
		if err != nil || p != nil {
			t.Errorf("Expected no page, got %v, %v", p, err)
		}
		edits, err := a.EditHistory(context.Background(), fakeEdits{})
		if err != nil || edits != nil {
			t.Errorf("Expected no edits, got %v, %v", edits, err)
		}
	}
}

func TestArticleEditHistory(t *testing.T) {
	s := buildFixture(t, WithBucketCount(7))
	src := fakeEdits{"Geometry": {{RevisionID: 2, Size: 10, Timestamp: 20, Editor: "b"},
		{RevisionID: 1, Size: 5, Timestamp: 10, Editor: "a"}}}
	a, err := s.ArticleByNumber(1)
	if err != nil {
		t.Fatalf("Error getting article: %v", err)
	}
	edits, err := a.EditHistory(context.Background(), src)
	if err != nil {
		t.Fatalf("Error getting edits: %v", err)
	}
	if !reflect.DeepEqual(edits, src["Geometry"]) {
		t.Fatalf("Expected %v, got %v", src["Geometry"], edits)
	}
}
