package subset

import (
	"slices"
)

const (
	flagSizeDelta = 1000
	flagWindow    = 86400 // seconds
)

// FlaggedEdits finds edits that look like vandalism: a change of at
// least 1000 bytes that a later edit within a day undoes, bringing the
// article back to exactly its prior size.
//
// When such a pair is found, the initiating edit and every edit up to
// and including the restoring one that shares the initiating editor
// are flagged.  edits is newest first and the result holds positions
// in it, ascending and without duplicates.
func FlaggedEdits(edits []EditRecord) []int {
	n := len(edits)
	if n == 0 {
		return []int{}
	}
	chron := slices.Clone(edits)
	slices.Reverse(chron)

	flagged := map[int]bool{}
	last := chron[0].Size
	for i := 1; i < n; i++ {
		e := chron[i]
		delta := e.Size - last
		if delta < 0 {
			delta = -delta
		}
		if delta >= flagSizeDelta {
			for j := i + 1; j < n; j++ {
				if chron[j].Timestamp-e.Timestamp > flagWindow {
					break
				}
				if chron[j].Size == last {
					for k := i; k <= j; k++ {
						if chron[k].Editor == e.Editor {
							flagged[n-1-k] = true
						}
					}
					break
				}
			}
		}
		last = e.Size
	}

	rv := make([]int, 0, len(flagged))
	for k := range flagged {
		rv = append(rv, k)
	}
	slices.Sort(rv)
	return rv
}

// DetectFlaggedEdits runs FlaggedEdits over every member's edits.
func (s *Subset) DetectFlaggedEdits() ([][]int, error) {
	edits, _, err := s.EditCatalog()
	if err != nil {
		return nil, err
	}
	rv := make([][]int, len(edits))
	for i, es := range edits {
		rv[i] = FlaggedEdits(es)
	}
	return rv, nil
}
