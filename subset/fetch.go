package subset

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/dustin/go-wikiindex"
)

// An EditRecord is one edit of a member, stored as the tuple
// [revisionId, size, timestamp, editor].
type EditRecord struct {
	RevisionID int64
	Size       int64
	Timestamp  int64
	Editor     int
}

func (e EditRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int64{e.RevisionID, e.Size, e.Timestamp, int64(e.Editor)})
}

func (e *EditRecord) UnmarshalJSON(b []byte) error {
	var t [4]int64
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*e = EditRecord{RevisionID: t[0], Size: t[1], Timestamp: t[2], Editor: int(t[3])}
	return nil
}

// An EditRef locates one edit in the edit catalog, stored as the
// tuple [article, edit].
type EditRef struct {
	Article LocalIndex
	Edit    int
}

func (r EditRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{int(r.Article), r.Edit})
}

func (r *EditRef) UnmarshalJSON(b []byte) error {
	var t [2]int
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*r = EditRef{Article: LocalIndex(t[0]), Edit: t[1]}
	return nil
}

// BuildViewCatalog fetches the monthly views of every member.  Members
// whose fetch is abandoned get an empty series.
func (s *Subset) BuildViewCatalog(ctx context.Context, src wikiindex.ViewSource) error {
	if err := s.requireMembers(); err != nil {
		return err
	}
	if s.has(ViewCatalogFile) {
		s.log.Info().Msg("View catalog already built")
		_, err := s.ViewCatalog()
		return err
	}

	s.log.Info().Int("members", len(s.members)).Msg("Fetching page views")
	views, abandoned := wikiindex.Gather(ctx, s.pool, len(s.members),
		func(ctx context.Context, i int) ([]int64, error) {
			v, err := src.MonthlyViews(ctx, s.members[i].Title)
			if err != nil {
				return nil, err
			}
			if v == nil {
				v = []int64{}
			}
			return v, nil
		})
	for _, i := range abandoned {
		views[i] = []int64{}
	}
	if len(abandoned) > 0 {
		s.log.Warn().Int("abandoned", len(abandoned)).Msg("Some page views could not be fetched")
	}

	if err := s.writeJSON(ViewCatalogFile, views); err != nil {
		return err
	}
	s.views = views
	return nil
}

// ViewCatalog gets the monthly views of every member, oldest first.
func (s *Subset) ViewCatalog() ([][]int64, error) {
	if s.views != nil {
		return s.views, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	var views [][]int64
	if err := s.readJSON(ViewCatalogFile, &views); err != nil {
		return nil, err
	}
	if err := s.checkLen(ViewCatalogFile, len(views)); err != nil {
		return nil, err
	}
	s.views = views
	return views, nil
}

// BuildEditCatalog fetches the edit history of every member and gives
// each editor a dense id in order of first appearance (member order,
// then the order edits were delivered).
func (s *Subset) BuildEditCatalog(ctx context.Context, src wikiindex.EditSource) error {
	if err := s.requireMembers(); err != nil {
		return err
	}
	if s.has(EditCatalogFile) && s.has(EditorsFile) {
		s.log.Info().Msg("Edit catalog already built")
		_, _, err := s.EditCatalog()
		return err
	}

	s.log.Info().Int("members", len(s.members)).Msg("Fetching edit histories")
	fetched, abandoned := wikiindex.Gather(ctx, s.pool, len(s.members),
		func(ctx context.Context, i int) ([]wikiindex.Edit, error) {
			return src.Edits(ctx, s.members[i].Title)
		})
	if len(abandoned) > 0 {
		s.log.Warn().Int("abandoned", len(abandoned)).Msg("Some edit histories could not be fetched")
	}

	ids := map[string]int{}
	editors := []string{}
	edits := make([][]EditRecord, len(fetched))
	for i, es := range fetched {
		edits[i] = make([]EditRecord, 0, len(es))
		for _, e := range es {
			id, ok := ids[e.Editor]
			if !ok {
				id = len(editors)
				ids[e.Editor] = id
				editors = append(editors, e.Editor)
			}
			edits[i] = append(edits[i], EditRecord{
				RevisionID: e.RevisionID,
				Size:       e.Size,
				Timestamp:  e.Timestamp,
				Editor:     id,
			})
		}
	}

	if err := s.writeJSON(EditCatalogFile, edits); err != nil {
		return err
	}
	if err := s.writeJSON(EditorsFile, editors); err != nil {
		return err
	}
	s.edits, s.editors = edits, editors
	return nil
}

// EditCatalog gets every member's edits, newest first, and the editor
// names by id.
func (s *Subset) EditCatalog() ([][]EditRecord, []string, error) {
	if s.edits != nil && s.editors != nil {
		return s.edits, s.editors, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, nil, err
	}
	var edits [][]EditRecord
	if err := s.readJSON(EditCatalogFile, &edits); err != nil {
		return nil, nil, err
	}
	if err := s.checkLen(EditCatalogFile, len(edits)); err != nil {
		return nil, nil, err
	}
	var editors []string
	if err := s.readJSON(EditorsFile, &editors); err != nil {
		return nil, nil, err
	}
	s.edits, s.editors = edits, editors
	return edits, editors, nil
}

// BuildEditorEditIndex lists, for every editor, the edits they made.
func (s *Subset) BuildEditorEditIndex() error {
	if s.has(EditorEditsFile) {
		s.log.Info().Msg("Editor edit index already built")
		_, err := s.EditorEditIndex()
		return err
	}
	edits, editors, err := s.EditCatalog()
	if err != nil {
		return err
	}

	idx := make([][]EditRef, len(editors))
	for i := range idx {
		idx[i] = []EditRef{}
	}
	for a, es := range edits {
		for j, e := range es {
			if e.Editor < 0 || e.Editor >= len(editors) {
				return fmt.Errorf("edit %d of member %d has unknown editor %d", j, a, e.Editor)
			}
			idx[e.Editor] = append(idx[e.Editor], EditRef{Article: LocalIndex(a), Edit: j})
		}
	}

	if err := s.writeJSON(EditorEditsFile, idx); err != nil {
		return err
	}
	s.editorEdits = idx
	return nil
}

// EditorEditIndex gets the edits of every editor.
func (s *Subset) EditorEditIndex() ([][]EditRef, error) {
	if s.editorEdits != nil {
		return s.editorEdits, nil
	}
	if err := s.requireMembers(); err != nil {
		return nil, err
	}
	var idx [][]EditRef
	if err := s.readJSON(EditorEditsFile, &idx); err != nil {
		return nil, err
	}
	s.editorEdits = idx
	return idx, nil
}
