// Package query implements the view query processor: search, filter, sort,
// group and aggregate over a board's tasks. Every function is pure; inputs
// are never mutated and nothing is shared between calls, so Apply is safe
// to call concurrently.
package query

import (
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// Filter is one toolbar filter. Value is ignored by is_empty and
// is_not_empty.
type Filter struct {
	PropertyID string               `json:"propertyId"`
	Operator   types.FilterOperator `json:"operator"`
	Value      any                  `json:"value,omitempty"`
}

// Sort is one sort key.
type Sort struct {
	PropertyID string `json:"propertyId"`
	Direction  string `json:"direction"`
}

// Toolbar is the transient search, filter and sort state of a view.
type Toolbar struct {
	SearchQuery string   `json:"searchQuery,omitempty"`
	Filters     []Filter `json:"filters,omitempty"`
	Sorts       []Sort   `json:"sorts,omitempty"`
}

// Group is one bucket of a grouped view.
type Group struct {
	Key     string        `json:"key"`
	Label   string        `json:"label"`
	Color   string        `json:"color,omitempty"`
	NoValue bool          `json:"noValue,omitempty"`
	Count   int           `json:"count"`
	Tasks   []*types.Task `json:"tasks"`
}

// AggregateValue is one computed column statistic. Value is nil when the
// statistic has no defined result, such as the minimum of no numbers.
type AggregateValue struct {
	PropertyID string                `json:"propertyId"`
	Type       types.AggregationType `json:"type"`
	Value      *float64              `json:"value"`
}

// Result is the output of Apply.
type Result struct {
	// Tasks holds the searched, filtered and sorted tasks.
	Tasks []*types.Task `json:"tasks"`
	// Groups is nil unless the view groups by a property.
	Groups []Group `json:"groups,omitempty"`
	// Columns lists the visible properties in display order.
	Columns []*types.Property `json:"columns"`
	// Aggregates is keyed by property ID.
	Aggregates map[string]AggregateValue `json:"aggregates"`
}

// Visible returns the tasks in visual order: the group buckets flattened in
// bucket order when grouped, otherwise Tasks.
func (r *Result) Visible() []*types.Task {
	if r.Groups == nil {
		return r.Tasks
	}
	var out []*types.Task
	for _, g := range r.Groups {
		out = append(out, g.Tasks...)
	}
	return out
}

type options struct {
	users []string
}

// Option configures Apply.
type Option func(*options)

// WithUsers sets the known user IDs, in bucket order, used when grouping by
// a person or user property.
func WithUsers(ids []string) Option {
	return func(o *options) { o.users = ids }
}

// Apply runs the pipeline search → filter → sort → group and computes the
// view's aggregations over the filtered, ungrouped tasks. Unknown
// properties, operators a property type does not support, unsortable sort
// keys and a non-groupable groupBy are reported as validation errors before
// any work is done.
func Apply(tasks []*types.Task, idx *schema.Index, cfg types.ViewConfig, tb Toolbar, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	preds, err := compileFilters(idx, tb.Filters)
	if err != nil {
		return nil, err
	}
	keys, err := compileSorts(idx, tb.Sorts)
	if err != nil {
		return nil, err
	}
	if err := validateGroupBy(idx, cfg.GroupBy); err != nil {
		return nil, err
	}
	if err := validateAggregations(idx, cfg.Aggregations); err != nil {
		return nil, err
	}

	matched := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !matchesSearch(t, idx, tb.SearchQuery) {
			continue
		}
		if !matchesAll(t, preds) {
			continue
		}
		matched = append(matched, t)
	}

	res := &Result{
		Tasks:      sortTasks(matched, keys),
		Columns:    columns(idx, cfg.VisibleProperties),
		Aggregates: aggregate(matched, idx, cfg.Aggregations),
	}
	if cfg.GroupBy != "" {
		p, _ := idx.Property(cfg.GroupBy)
		res.Groups = group(res.Tasks, p, o.users)
	}
	return res, nil
}

// columns resolves the visible property list. IDs that no longer name a
// property are skipped.
func columns(idx *schema.Index, visible []string) []*types.Property {
	if visible == nil {
		return idx.Properties()
	}
	out := make([]*types.Property, 0, len(visible))
	for _, id := range visible {
		if p, ok := idx.Property(id); ok {
			out = append(out, p)
		}
	}
	return out
}
