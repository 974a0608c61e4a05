package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

type sortKey struct {
	propertyID string
	kind       types.CompareKind
	desc       bool
}

func compileSorts(idx *schema.Index, sorts []Sort) ([]sortKey, error) {
	keys := make([]sortKey, 0, len(sorts))
	for _, s := range sorts {
		p, ok := idx.Property(s.PropertyID)
		if !ok {
			return nil, fmt.Errorf("sort: %w: %s", types.ErrPropertyNotFound, s.PropertyID)
		}
		if !p.Type.Sortable() {
			return nil, fmt.Errorf("sort on %q: %w: %s", p.Name, types.ErrNotSortable, p.Type)
		}
		var desc bool
		switch strings.ToLower(s.Direction) {
		case "", Asc:
		case Desc:
			desc = true
		default:
			return nil, fmt.Errorf("sort on %q: %w: direction %q", p.Name, types.ErrInvalidFilter, s.Direction)
		}
		tr, _ := p.Type.Traits()
		keys = append(keys, sortKey{propertyID: p.PropertyID, kind: tr.Compare, desc: desc})
	}
	return keys, nil
}

// sortTasks returns a sorted copy. Keys apply in order; when every key ties
// the tasks fall back to Order ascending.
func sortTasks(tasks []*types.Task, keys []sortKey) []*types.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *types.Task) int {
		for _, k := range keys {
			c := compareValues(a.Value(k.propertyID), b.Value(k.propertyID), k.kind)
			// The missing-value sentinel is flipped along with the rest
			// of the comparison, so missing values sort last under asc
			// and first under desc.
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// compareValues is the unsigned per-key comparison. A missing value is
// greater than any defined value. Number and date values that cannot be
// read as the key's kind, such as a date range with no start, rank as
// missing.
func compareValues(a, b types.Value, kind types.CompareKind) int {
	am, bm := missingFor(a, kind), missingFor(b, kind)
	switch {
	case am && bm:
		return 0
	case am:
		return 1
	case bm:
		return -1
	}

	switch kind {
	case types.CompareNumber:
		x, _ := numberOf(a)
		y, _ := numberOf(b)
		return cmp.Compare(x, y)
	case types.CompareDate:
		x, _ := instantOf(a)
		y, _ := instantOf(b)
		return x.Compare(y)
	case types.CompareBool:
		return cmp.Compare(b2i(boolOf(a)), b2i(boolOf(b)))
	default:
		return strings.Compare(textOf(a), textOf(b))
	}
}

func missingFor(v types.Value, kind types.CompareKind) bool {
	if isMissing(v) {
		return true
	}
	switch kind {
	case types.CompareNumber:
		_, ok := numberOf(v)
		return !ok
	case types.CompareDate:
		_, ok := instantOf(v)
		return !ok
	}
	return false
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
