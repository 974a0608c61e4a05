package query

import (
	"fmt"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// ValidateConfig checks a view configuration against the board schema
// before it is persisted: groupBy must name a groupable property, visible
// properties must exist without repeats, and every aggregation must be
// supported by its property's type.
func ValidateConfig(idx *schema.Index, cfg types.ViewConfig) error {
	if err := validateGroupBy(idx, cfg.GroupBy); err != nil {
		return err
	}
	seen := make(map[string]bool, len(cfg.VisibleProperties))
	for _, id := range cfg.VisibleProperties {
		if _, ok := idx.Property(id); !ok {
			return fmt.Errorf("visible properties: %w: %s", types.ErrPropertyNotFound, id)
		}
		if seen[id] {
			return fmt.Errorf("visible properties: %w: %s", types.ErrDuplicateID, id)
		}
		seen[id] = true
	}
	return validateAggregations(idx, cfg.Aggregations)
}

// ValidateToolbar checks filters and sorts without running a query.
func ValidateToolbar(idx *schema.Index, tb Toolbar) error {
	if _, err := compileFilters(idx, tb.Filters); err != nil {
		return err
	}
	_, err := compileSorts(idx, tb.Sorts)
	return err
}

func validateGroupBy(idx *schema.Index, id string) error {
	if id == "" {
		return nil
	}
	p, ok := idx.Property(id)
	if !ok {
		return fmt.Errorf("group by: %w: %s", types.ErrPropertyNotFound, id)
	}
	if !p.Type.Groupable() {
		return fmt.Errorf("group by %q: %w: %s", p.Name, types.ErrNotGroupable, p.Type)
	}
	return nil
}

func validateAggregations(idx *schema.Index, aggs []types.Aggregation) error {
	for _, a := range aggs {
		p, ok := idx.Property(a.PropertyID)
		if !ok {
			return fmt.Errorf("aggregation: %w: %s", types.ErrPropertyNotFound, a.PropertyID)
		}
		if !p.Type.SupportsAggregation(a.Type) {
			return fmt.Errorf("aggregation on %q: %w: %s on %s", p.Name, types.ErrInvalidAggregation, a.Type, p.Type)
		}
	}
	return nil
}
