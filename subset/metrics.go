package subset

import (
	"slices"
)

// ArticleMetrics are the derived per-member figures, each parallel to
// the membership.
type ArticleMetrics struct {
	AverageMonthlyPageViews []float64      `json:"averageMonthlyPageViews"`
	UniqueEditors           [][]int        `json:"uniqueEditors"`
	FlaggedEdits            [][]int        `json:"flaggedEdits"`
	StudentReferenceIndex   []float64      `json:"studentReferenceIndex"`
	Backlinks               [][]LocalIndex `json:"backlinks"`
	ArticleSizes            []int          `json:"articleSizes"`
}

// EditorMetrics are the derived per-editor figures, each parallel to
// the editor list.  Flagged edits are positions in the editor's list
// of edits; sizes are [added, removed] byte totals.
type EditorMetrics struct {
	FlaggedEdits      [][]int    `json:"flaggedEdits"`
	EditSize          [][2]int64 `json:"editSize"`
	EditSizeNoFlagged [][2]int64 `json:"editSizeNoFlagged"`
}

func averageViews(views []int64) float64 {
	var total int64
	for _, v := range views {
		total += v
	}
	if total == 0 {
		return 0
	}
	return float64(total) / float64(len(views))
}

func uniqueEditors(edits []EditRecord) []int {
	rv := make([]int, 0, len(edits))
	for _, e := range edits {
		rv = append(rv, e.Editor)
	}
	slices.Sort(rv)
	return slices.Compact(rv)
}

// BuildArticleMetrics derives the per-member metrics.  It needs the
// link, view and edit catalogs.
func (s *Subset) BuildArticleMetrics() error {
	if s.has(ArticleMetricsFile) {
		s.log.Info().Msg("Article metrics already built")
		_, err := s.ArticleMetrics()
		return err
	}
	links, err := s.LinkCatalog()
	if err != nil {
		return err
	}
	views, err := s.ViewCatalog()
	if err != nil {
		return err
	}
	edits, _, err := s.EditCatalog()
	if err != nil {
		return err
	}
	flagged, err := s.DetectFlaggedEdits()
	if err != nil {
		return err
	}

	s.log.Info().Msg("Building article metrics")
	m := &ArticleMetrics{
		AverageMonthlyPageViews: make([]float64, len(s.members)),
		UniqueEditors:           make([][]int, len(s.members)),
		FlaggedEdits:            flagged,
		StudentReferenceIndex:   make([]float64, len(s.members)),
		Backlinks:               backlinks(links),
		ArticleSizes:            make([]int, len(s.members)),
	}
	for i, mem := range s.members {
		m.AverageMonthlyPageViews[i] = averageViews(views[i])
		m.UniqueEditors[i] = uniqueEditors(edits[i])
		m.StudentReferenceIndex[i] = StudentReferenceIndex(views[i])

		a, err := s.store.ArticleByNumber(mem.Number)
		if err != nil {
			return err
		}
		if m.ArticleSizes[i], err = a.Size(); err != nil {
			return err
		}
	}

	if err := s.writeJSON(ArticleMetricsFile, m); err != nil {
		return err
	}
	s.articleMetrics = m
	return nil
}

// ArticleMetrics gets the per-member metrics.
func (s *Subset) ArticleMetrics() (*ArticleMetrics, error) {
	if s.articleMetrics != nil {
		return s.articleMetrics, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	m := &ArticleMetrics{}
	if err := s.readJSON(ArticleMetricsFile, m); err != nil {
		return nil, err
	}
	if err := s.checkLen(ArticleMetricsFile, len(m.ArticleSizes)); err != nil {
		return nil, err
	}
	s.articleMetrics = m
	return m, nil
}

// editSize is how much edit j of a member changed the article, or 0
// for the oldest known edit.
func editSize(edits []EditRecord, j int) int64 {
	if j+1 >= len(edits) {
		return 0
	}
	return edits[j].Size - edits[j+1].Size
}

// BuildEditorMetrics derives the per-editor metrics.  It needs the
// edit catalog and builds the editor edit index if missing.
func (s *Subset) BuildEditorMetrics() error {
	if s.has(EditorMetricsFile) {
		s.log.Info().Msg("Editor metrics already built")
		_, err := s.EditorMetrics()
		return err
	}
	edits, _, err := s.EditCatalog()
	if err != nil {
		return err
	}
	if err := s.BuildEditorEditIndex(); err != nil {
		return err
	}
	idx, err := s.EditorEditIndex()
	if err != nil {
		return err
	}
	flagged, err := s.DetectFlaggedEdits()
	if err != nil {
		return err
	}
	isFlagged := make([]map[int]bool, len(flagged))
	for i, fs := range flagged {
		isFlagged[i] = map[int]bool{}
		for _, f := range fs {
			isFlagged[i][f] = true
		}
	}

	s.log.Info().Int("editors", len(idx)).Msg("Building editor metrics")
	m := &EditorMetrics{
		FlaggedEdits:      make([][]int, len(idx)),
		EditSize:          make([][2]int64, len(idx)),
		EditSizeNoFlagged: make([][2]int64, len(idx)),
	}
	for u, refs := range idx {
		m.FlaggedEdits[u] = []int{}
		for k, ref := range refs {
			size := editSize(edits[ref.Article], ref.Edit)
			f := isFlagged[ref.Article][ref.Edit]
			if f {
				m.FlaggedEdits[u] = append(m.FlaggedEdits[u], k)
			}
			addSize(&m.EditSize[u], size)
			if !f {
				addSize(&m.EditSizeNoFlagged[u], size)
			}
		}
	}

	if err := s.writeJSON(EditorMetricsFile, m); err != nil {
		return err
	}
	s.editorMetrics = m
	return nil
}

func addSize(totals *[2]int64, size int64) {
	if size > 0 {
		totals[0] += size
	} else {
		totals[1] -= size
	}
}

// EditorMetrics gets the per-editor metrics.
func (s *Subset) EditorMetrics() (*EditorMetrics, error) {
	if s.editorMetrics != nil {
		return s.editorMetrics, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	m := &EditorMetrics{}
	if err := s.readJSON(EditorMetricsFile, m); err != nil {
		return nil, err
	}
	s.editorMetrics = m
	return m, nil
}
