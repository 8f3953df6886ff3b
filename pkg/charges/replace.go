package charges

import (
	"github.com/google/uuid"
)

// ChangeSet lists what a wholesale child-row replacement did. Deleted rows are
// the ones absent from the new set; the persistence layer removes them.
type ChangeSet struct {
	Added   []uuid.UUID
	Updated []uuid.UUID
	Deleted []uuid.UUID
}

// Empty reports whether the replacement changed nothing.
func (c ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// ReplaceByTerm returns a copy of s whose by-term rows are exactly rows.
// Rows without an ID are new and get one assigned. Existing rows missing from
// rows are reported as deleted.
func (s Scheme) ReplaceByTerm(rows []RateByTerm) (Scheme, ChangeSet) {
	existing := make(map[uuid.UUID]bool, len(s.ByTerm))
	for _, row := range s.ByTerm {
		existing[row.ID] = true
	}

	var changes ChangeSet
	next := make([]RateByTerm, 0, len(rows))
	kept := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row.ID == uuid.Nil || !existing[row.ID] {
			if row.ID == uuid.Nil {
				row.ID = uuid.New()
			}
			changes.Added = append(changes.Added, row.ID)
		} else {
			changes.Updated = append(changes.Updated, row.ID)
		}
		kept[row.ID] = true
		next = append(next, row)
	}
	for _, row := range s.ByTerm {
		if !kept[row.ID] {
			changes.Deleted = append(changes.Deleted, row.ID)
		}
	}

	s.ByTerm = next
	return s, changes
}

// ReplaceRanges is the by-range counterpart of ReplaceByTerm.
func (s Scheme) ReplaceRanges(rows []RangeRate) (Scheme, ChangeSet) {
	existing := make(map[uuid.UUID]bool, len(s.Ranges))
	for _, row := range s.Ranges {
		existing[row.ID] = true
	}

	var changes ChangeSet
	next := make([]RangeRate, 0, len(rows))
	kept := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row.ID == uuid.Nil || !existing[row.ID] {
			if row.ID == uuid.Nil {
				row.ID = uuid.New()
			}
			changes.Added = append(changes.Added, row.ID)
		} else {
			changes.Updated = append(changes.Updated, row.ID)
		}
		kept[row.ID] = true
		next = append(next, row)
	}
	for _, row := range s.Ranges {
		if !kept[row.ID] {
			changes.Deleted = append(changes.Deleted, row.ID)
		}
	}

	s.Ranges = next
	return s, changes
}
