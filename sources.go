package wikiindex

import "context"

// An Edit is one revision of an article as reported by an EditSource.
type Edit struct {
	RevisionID int64
	Size       int64
	Timestamp  int64 // unix seconds
	Editor     string
}

// An EditSource reports the edit history of an article, newest first,
// over whatever time window it is configured for.  Pagination and
// retries are its own business.
type EditSource interface {
	Edits(ctx context.Context, title string) ([]Edit, error)
}

// A ViewSource reports monthly page view counts of an article, oldest
// month first.
type ViewSource interface {
	MonthlyViews(ctx context.Context, title string) ([]int64, error)
}

// A CategorySource lists the pages and subcategories of a category
// page, each mapped to its URL.
type CategorySource interface {
	Category(ctx context.Context, url string) (pages, subcategories map[string]string, err error)
}
