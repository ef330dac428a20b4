package subset

import (
	"errors"

	"github.com/dustin/go-wikiindex"
)

// A Document is the publishable summary of one member, as stored by
// the loader tools.
type Document struct {
	ID        string                  `json:"_id" bson:"_id"`
	Title     string                  `json:"title" bson:"title"`
	WikiID    uint32                  `json:"wikiid" bson:"wikiid"`
	Number    wikiindex.ArticleNumber `json:"number" bson:"number"`
	Subset    string                  `json:"subset" bson:"subset"`
	Links     []string                `json:"links" bson:"links"`
	Backlinks []string                `json:"backlinks" bson:"backlinks"`

	PageRank                float64 `json:"pagerank,omitempty" bson:"pagerank,omitempty"`
	AverageMonthlyPageViews float64 `json:"averageMonthlyPageViews,omitempty" bson:"averageMonthlyPageViews,omitempty"`
	StudentReferenceIndex   float64 `json:"studentReferenceIndex,omitempty" bson:"studentReferenceIndex,omitempty"`
	UniqueEditors           int     `json:"uniqueEditors,omitempty" bson:"uniqueEditors,omitempty"`
	FlaggedEdits            int     `json:"flaggedEdits,omitempty" bson:"flaggedEdits,omitempty"`
	Size                    int     `json:"size,omitempty" bson:"size,omitempty"`
}

// Documents summarizes every member.  The link catalog is required;
// PageRank and article metrics are included when they have been
// built.
func (s *Subset) Documents() ([]Document, error) {
	links, err := s.LinkCatalog()
	if err != nil {
		return nil, err
	}
	back := backlinks(links)

	rank, err := s.PageRank()
	if err != nil && !errors.Is(err, wikiindex.ErrNotBuilt) {
		return nil, err
	}
	metrics, err := s.ArticleMetrics()
	if err != nil && !errors.Is(err, wikiindex.ErrNotBuilt) {
		return nil, err
	}

	titles := func(idx []LocalIndex) []string {
		rv := make([]string, len(idx))
		for i, l := range idx {
			rv[i] = s.members[l].Title
		}
		return rv
	}

	rv := make([]Document, len(s.members))
	for i, m := range s.members {
		d := Document{
			ID:        m.Title,
			Title:     m.Title,
			WikiID:    m.WikiID,
			Number:    m.Number,
			Subset:    s.name,
			Links:     titles(links[i]),
			Backlinks: titles(back[i]),
		}
		if rank != nil {
			d.PageRank = rank[i]
		}
		if metrics != nil {
			d.AverageMonthlyPageViews = metrics.AverageMonthlyPageViews[i]
			d.StudentReferenceIndex = metrics.StudentReferenceIndex[i]
			d.UniqueEditors = len(metrics.UniqueEditors[i])
			d.FlaggedEdits = len(metrics.FlaggedEdits[i])
			d.Size = metrics.ArticleSizes[i]
		}
		rv[i] = d
	}
	return rv, nil
}
