package query

import (
	"sort"

	"github.com/OFFIS-RIT/interactome/pkg/common"
)

func boolLess(a, b bool) bool {
	return !a && b
}

// SortActionResults orders rows lexicographically over all fields. A nil
// action sorts before any action string.
func SortActionResults(rows []common.ActionResult) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Gene1 != b.Gene1 {
			return a.Gene1 < b.Gene1
		}
		if a.Gene2 != b.Gene2 {
			return a.Gene2 < b.Gene2
		}
		if a.Mode != b.Mode {
			return a.Mode < b.Mode
		}
		switch {
		case a.Action == nil && b.Action != nil:
			return true
		case a.Action != nil && b.Action == nil:
			return false
		case a.Action != nil && *a.Action != *b.Action:
			return *a.Action < *b.Action
		}
		if a.IsDirectional != b.IsDirectional {
			return boolLess(a.IsDirectional, b.IsDirectional)
		}
		if a.Gene1IsActing != b.Gene1IsActing {
			return boolLess(a.Gene1IsActing, b.Gene1IsActing)
		}
		return a.Score < b.Score
	})
}

// SortEvidenceResults orders tuples lexicographically over all fields.
func SortEvidenceResults(rows []common.EvidenceResult) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Gene1 != b.Gene1 {
			return a.Gene1 < b.Gene1
		}
		if a.Gene2 != b.Gene2 {
			return a.Gene2 < b.Gene2
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Value < b.Value
	})
}
