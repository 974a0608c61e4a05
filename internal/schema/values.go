package schema

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// ParseValue validates a caller-supplied payload for property p and returns
// the typed value. On top of the shape check it rejects unknown option IDs,
// unparseable dates, non-finite numbers and attachments without an ID.
// A nil payload yields the zero Value.
func ParseValue(p *types.Property, x any) (types.Value, error) {
	v, err := types.DecodeValue(p.Type, x)
	if err != nil {
		return types.Value{}, fmt.Errorf("property %q: %w", p.Name, err)
	}
	switch v.Kind() {
	case types.KindNumber:
		if math.IsNaN(v.Number()) || math.IsInf(v.Number(), 0) {
			return types.Value{}, fmt.Errorf("property %q: %w: non-finite number", p.Name, types.ErrInvalidValue)
		}
	case types.KindDate:
		d := v.Date()
		for _, s := range []*string{d.From, d.To} {
			if s == nil {
				continue
			}
			if _, ok := types.ParseInstant(*s); !ok {
				return types.Value{}, fmt.Errorf("property %q: %w: date %q", p.Name, types.ErrInvalidValue, *s)
			}
		}
	case types.KindOption:
		if v.OptionID() != "" {
			if _, ok := p.Option(v.OptionID()); !ok {
				return types.Value{}, fmt.Errorf("property %q: %w: unknown option %s", p.Name, types.ErrInvalidValue, v.OptionID())
			}
		}
	case types.KindOptions:
		seen := make(map[string]bool)
		for _, id := range v.IDs() {
			if _, ok := p.Option(id); !ok {
				return types.Value{}, fmt.Errorf("property %q: %w: unknown option %s", p.Name, types.ErrInvalidValue, id)
			}
			if seen[id] {
				return types.Value{}, fmt.Errorf("property %q: %w: %s", p.Name, types.ErrDuplicateID, id)
			}
			seen[id] = true
		}
	case types.KindPeople:
		for _, id := range v.IDs() {
			if id == "" {
				return types.Value{}, fmt.Errorf("property %q: %w: empty user id", p.Name, types.ErrInvalidValue)
			}
		}
	case types.KindAttachments:
		for _, f := range v.Attachments() {
			if f.ID == "" {
				return types.Value{}, fmt.Errorf("property %q: %w: attachment without id", p.Name, types.ErrInvalidValue)
			}
		}
	}
	return v, nil
}

// ParseValues validates a patch of property values keyed by property ID.
// Every entry must name a property of the schema. A nil entry clears the
// value. Nothing is returned unless every entry is valid.
func ParseValues(idx *Index, patch map[string]any) (map[string]types.Value, error) {
	out := make(map[string]types.Value, len(patch))
	for id, x := range patch {
		p, ok := idx.Property(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrPropertyNotFound, id)
		}
		v, err := ParseValue(p, x)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

// CheckRequired reports ErrRequiredValue for the first required property
// that has no value, or a blank value, on the task.
func CheckRequired(idx *Index, task *types.Task) error {
	for _, p := range idx.Properties() {
		if !p.Required {
			continue
		}
		if task.Value(p.PropertyID).IsBlank() {
			return fmt.Errorf("%w: %s", types.ErrRequiredValue, p.Name)
		}
	}
	return nil
}
