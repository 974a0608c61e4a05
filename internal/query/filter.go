package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// predicate tests one filter against one task.
type predicate func(t *types.Task) bool

func matchesAll(t *types.Task, preds []predicate) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}

// compileFilters checks every filter against the schema and turns it into a
// predicate. Filters combine with AND, so their order does not matter.
func compileFilters(idx *schema.Index, filters []Filter) ([]predicate, error) {
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		p, ok := idx.Property(f.PropertyID)
		if !ok {
			return nil, fmt.Errorf("filter: %w: %s", types.ErrPropertyNotFound, f.PropertyID)
		}
		if !p.Type.SupportsOperator(f.Operator) {
			return nil, fmt.Errorf("filter on %q: %w: %s on %s", p.Name, types.ErrInvalidOperator, f.Operator, p.Type)
		}
		pred, err := compileFilter(p, f)
		if err != nil {
			return nil, fmt.Errorf("filter on %q: %w", p.Name, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func compileFilter(p *types.Property, f Filter) (predicate, error) {
	id := p.PropertyID
	switch f.Operator {
	case types.OpIsEmpty:
		return func(t *types.Task) bool { return t.Value(id).IsBlank() }, nil
	case types.OpIsNotEmpty:
		return func(t *types.Task) bool { return !t.Value(id).IsBlank() }, nil
	}

	tr, _ := p.Type.Traits()
	switch tr.Kind {
	case types.KindText:
		return textFilter(id, f)
	case types.KindNumber:
		return numberFilter(id, f)
	case types.KindDate:
		return dateFilter(id, f)
	case types.KindOption, types.KindOptions, types.KindPeople:
		return idFilter(id, f)
	case types.KindCheckbox:
		return checkboxFilter(id, f)
	}
	return nil, fmt.Errorf("%w: %s", types.ErrInvalidOperator, f.Operator)
}

func textFilter(id string, f Filter) (predicate, error) {
	want, err := cast.ToStringE(f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
	}
	switch f.Operator {
	case types.OpContains:
		want = strings.ToLower(want)
		return func(t *types.Task) bool {
			v := t.Value(id)
			if isMissing(v) {
				return false
			}
			return strings.Contains(strings.ToLower(textOf(v)), want)
		}, nil
	case types.OpEquals:
		return func(t *types.Task) bool {
			v := t.Value(id)
			return !isMissing(v) && textOf(v) == want
		}, nil
	case types.OpNotEquals:
		return func(t *types.Task) bool { return textOf(t.Value(id)) != want }, nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrInvalidOperator, f.Operator)
}

func numberFilter(id string, f Filter) (predicate, error) {
	want, ok := coerceNumber(f.Value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a number", types.ErrInvalidFilter, f.Value)
	}
	var cmp func(have float64) bool
	switch f.Operator {
	case types.OpEquals:
		cmp = func(have float64) bool { return have == want }
	case types.OpNotEquals:
		return func(t *types.Task) bool {
			have, ok := numberOf(t.Value(id))
			return !ok || have != want
		}, nil
	case types.OpGreaterThan:
		cmp = func(have float64) bool { return have > want }
	case types.OpLessThan:
		cmp = func(have float64) bool { return have < want }
	case types.OpGreaterOrEqual:
		cmp = func(have float64) bool { return have >= want }
	case types.OpLessOrEqual:
		cmp = func(have float64) bool { return have <= want }
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidOperator, f.Operator)
	}
	return func(t *types.Task) bool {
		have, ok := numberOf(t.Value(id))
		return ok && cmp(have)
	}, nil
}

func dateFilter(id string, f Filter) (predicate, error) {
	wantValue, err := types.DecodeValue(types.PropertyDate, f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v is not a date", types.ErrInvalidFilter, f.Value)
	}
	want, ok := wantValue.Date().Instant()
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a date", types.ErrInvalidFilter, f.Value)
	}
	var cmp func(have time.Time) bool
	switch f.Operator {
	case types.OpEquals:
		// Equality is by calendar day so a timed value matches a date-only
		// filter.
		y, m, d := want.UTC().Date()
		cmp = func(have time.Time) bool {
			hy, hm, hd := have.UTC().Date()
			return hy == y && hm == m && hd == d
		}
	case types.OpBefore:
		cmp = func(have time.Time) bool { return have.Before(want) }
	case types.OpAfter:
		cmp = func(have time.Time) bool { return have.After(want) }
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidOperator, f.Operator)
	}
	return func(t *types.Task) bool {
		have, ok := instantOf(t.Value(id))
		return ok && cmp(have)
	}, nil
}

// idFilter handles select, status, multi_select, person and user. equals
// matches when the stored IDs contain the filter value.
func idFilter(id string, f Filter) (predicate, error) {
	want, err := cast.ToStringE(f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
	}
	contains := func(t *types.Task) bool {
		for _, have := range idsOf(t.Value(id)) {
			if have == want {
				return true
			}
		}
		return false
	}
	switch f.Operator {
	case types.OpEquals:
		return contains, nil
	case types.OpNotEquals:
		return func(t *types.Task) bool { return !contains(t) }, nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrInvalidOperator, f.Operator)
}

// checkboxFilter treats a missing checkbox as unchecked.
func checkboxFilter(id string, f Filter) (predicate, error) {
	want, err := cast.ToBoolE(f.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidFilter, err)
	}
	return func(t *types.Task) bool { return boolOf(t.Value(id)) == want }, nil
}
