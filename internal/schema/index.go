// Package schema implements the schema store operations on a board's
// property list, the id index shared by the query and fill engines, and
// validation of task values on write.
package schema

import (
	"sort"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Index resolves properties and options by ID. Build it once per board load
// and share it; it is read-only after construction and safe for concurrent
// use.
type Index struct {
	ordered []*types.Property
	props   map[string]*types.Property
	options map[string]map[string]*types.Option
}

// NewIndex indexes props. The index holds copies, so later mutation of the
// slice does not affect it. Properties are ordered by their Order field,
// ties broken by input position.
func NewIndex(props []types.Property) *Index {
	idx := &Index{
		ordered: make([]*types.Property, len(props)),
		props:   make(map[string]*types.Property, len(props)),
		options: make(map[string]map[string]*types.Option, len(props)),
	}
	for i := range props {
		p := props[i].Clone()
		idx.ordered[i] = &p
		idx.props[p.PropertyID] = &p
		if len(p.Options) > 0 {
			opts := make(map[string]*types.Option, len(p.Options))
			for j := range p.Options {
				opts[p.Options[j].OptionID] = &p.Options[j]
			}
			idx.options[p.PropertyID] = opts
		}
	}
	sort.SliceStable(idx.ordered, func(i, j int) bool {
		return idx.ordered[i].Order < idx.ordered[j].Order
	})
	return idx
}

// Property returns the property with the given ID.
func (idx *Index) Property(id string) (*types.Property, bool) {
	p, ok := idx.props[id]
	return p, ok
}

// Option returns an option of a property.
func (idx *Index) Option(propertyID, optionID string) (*types.Option, bool) {
	o, ok := idx.options[propertyID][optionID]
	return o, ok
}

// Properties returns the properties in display order.
func (idx *Index) Properties() []*types.Property {
	return append([]*types.Property(nil), idx.ordered...)
}

// Schema returns the properties in display order as values, the form the
// task helpers in package types accept.
func (idx *Index) Schema() []types.Property {
	out := make([]types.Property, len(idx.ordered))
	for i, p := range idx.ordered {
		out[i] = *p
	}
	return out
}

// Len returns the number of indexed properties.
func (idx *Index) Len() int { return len(idx.ordered) }
