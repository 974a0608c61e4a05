package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// DefaultWidth is the display width given to new properties.
const DefaultWidth = 200

// newID generates a UUID v7 for properties and options.
var newID = func() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// PropertySpec describes a property to add.
type PropertySpec struct {
	Name     string
	Type     types.PropertyType
	Width    int
	Required bool
	Options  []OptionSpec
}

// OptionSpec describes an option to add.
type OptionSpec struct {
	Label string
	Color string
}

// OptionPatch updates an option. Nil fields are left as they are.
type OptionPatch struct {
	Label *string
	Color *string
}

// The operations below mutate the board in place. Callers that need
// all-or-nothing semantics operate on a Board.Clone and persist it only
// when the operation returned nil.

// AddProperty appends a property with a fresh ID at the end of the
// display order.
func AddProperty(b *types.Board, spec PropertySpec) (*types.Property, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, types.ErrInvalidName
	}
	if !spec.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidPropertyType, spec.Type)
	}
	if len(spec.Options) > 0 && !spec.Type.HasOptions() {
		return nil, fmt.Errorf("%w: %s properties have no options", types.ErrInvalidPropertyType, spec.Type)
	}
	width := spec.Width
	if width <= 0 {
		width = DefaultWidth
	}

	normalizeOrder(b)
	p := types.Property{
		PropertyID: newID(),
		Name:       name,
		Type:       spec.Type,
		Order:      len(b.Properties),
		Width:      width,
		Required:   spec.Required,
	}
	for _, o := range spec.Options {
		label := strings.TrimSpace(o.Label)
		if label == "" {
			return nil, types.ErrInvalidName
		}
		p.Options = append(p.Options, types.Option{OptionID: newID(), Label: label, Color: o.Color})
	}
	b.Properties = append(b.Properties, p)
	return &b.Properties[len(b.Properties)-1], nil
}

// RemoveProperty deletes a property from the schema. Task values for the
// property are not touched.
func RemoveProperty(b *types.Board, propertyID string) error {
	normalizeOrder(b)
	i := indexOf(b, propertyID)
	if i < 0 {
		return types.ErrPropertyNotFound
	}
	b.Properties = append(b.Properties[:i], b.Properties[i+1:]...)
	renumber(b)
	return nil
}

// RenameProperty changes a property's display name.
func RenameProperty(b *types.Board, propertyID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.ErrInvalidName
	}
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	p.Name = name
	return nil
}

// ResizeProperty sets the display width hint.
func ResizeProperty(b *types.Board, propertyID string, width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: width %d", types.ErrInvalidData, width)
	}
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	p.Width = width
	return nil
}

// SetRequired toggles whether tasks must carry a value for the property.
func SetRequired(b *types.Board, propertyID string, required bool) error {
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	p.Required = required
	return nil
}

// ReorderProperties moves the property at display position oldIndex to
// newIndex. It is a pure permutation: IDs never change.
func ReorderProperties(b *types.Board, oldIndex, newIndex int) error {
	normalizeOrder(b)
	if err := move(b.Properties, oldIndex, newIndex); err != nil {
		return err
	}
	renumber(b)
	return nil
}

// AddOption appends an option with a fresh ID to a select, multi_select or
// status property.
func AddOption(b *types.Board, propertyID string, spec OptionSpec) (*types.Option, error) {
	p, ok := b.Property(propertyID)
	if !ok {
		return nil, types.ErrPropertyNotFound
	}
	if !p.Type.HasOptions() {
		return nil, fmt.Errorf("%w: %s properties have no options", types.ErrInvalidPropertyType, p.Type)
	}
	label := strings.TrimSpace(spec.Label)
	if label == "" {
		return nil, types.ErrInvalidName
	}
	p.Options = append(p.Options, types.Option{OptionID: newID(), Label: label, Color: spec.Color})
	return &p.Options[len(p.Options)-1], nil
}

// UpdateOption changes an option's label or color. Tasks referencing the
// option keep their value.
func UpdateOption(b *types.Board, propertyID, optionID string, patch OptionPatch) error {
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	o, ok := p.Option(optionID)
	if !ok {
		return types.ErrOptionNotFound
	}
	if patch.Label != nil {
		label := strings.TrimSpace(*patch.Label)
		if label == "" {
			return types.ErrInvalidName
		}
		o.Label = label
	}
	if patch.Color != nil {
		o.Color = *patch.Color
	}
	return nil
}

// RemoveOption drops an option from the property. Tasks that reference it
// keep the stale ID; renderers show it as an unknown option.
func RemoveOption(b *types.Board, propertyID, optionID string) error {
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	for i := range p.Options {
		if p.Options[i].OptionID == optionID {
			p.Options = append(p.Options[:i], p.Options[i+1:]...)
			return nil
		}
	}
	return types.ErrOptionNotFound
}

// ReorderOptions moves an option within its property's option list.
func ReorderOptions(b *types.Board, propertyID string, oldIndex, newIndex int) error {
	p, ok := b.Property(propertyID)
	if !ok {
		return types.ErrPropertyNotFound
	}
	return move(p.Options, oldIndex, newIndex)
}

// move shifts s[from] to position to, sliding the elements in between.
func move[T any](s []T, from, to int) error {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return fmt.Errorf("%w: move %d to %d of %d", types.ErrInvalidIndex, from, to, len(s))
	}
	item := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = item
	return nil
}

func indexOf(b *types.Board, propertyID string) int {
	for i := range b.Properties {
		if b.Properties[i].PropertyID == propertyID {
			return i
		}
	}
	return -1
}

// normalizeOrder sorts the property slice by Order so slice position and
// display position agree.
func normalizeOrder(b *types.Board) {
	idx := NewIndex(b.Properties)
	b.Properties = idx.Schema()
}

func renumber(b *types.Board) {
	for i := range b.Properties {
		b.Properties[i].Order = i
	}
}
