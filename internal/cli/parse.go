package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/taskboard/internal/query"
	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// errUsage marks malformed command-line input.
var errUsage = errors.New("usage")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// findProperty resolves ref as a property ID or, failing that, a
// case-insensitive property name.
func findProperty(b *types.Board, ref string) (*types.Property, error) {
	if p, ok := b.Property(ref); ok {
		return p, nil
	}
	for i := range b.Properties {
		if strings.EqualFold(b.Properties[i].Name, ref) {
			return &b.Properties[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", types.ErrPropertyNotFound, ref)
}

// findOption resolves ref as an option ID or a case-insensitive label.
func findOption(p *types.Property, ref string) (*types.Option, error) {
	if o, ok := p.Option(ref); ok {
		return o, nil
	}
	for i := range p.Options {
		if strings.EqualFold(p.Options[i].Label, ref) {
			return &p.Options[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", types.ErrOptionNotFound, ref, p.Name)
}

// parseValue turns command-line text into a payload for p. Option labels
// become option IDs, list types split on commas, and an empty string
// clears the value.
func parseValue(p *types.Property, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	switch p.Type {
	case types.PropertySelect, types.PropertyStatus:
		o, err := findOption(p, raw)
		if err != nil {
			return nil, err
		}
		return o.OptionID, nil
	case types.PropertyMultiSelect:
		var ids []string
		for _, part := range splitList(raw) {
			o, err := findOption(p, part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, o.OptionID)
		}
		return ids, nil
	case types.PropertyNumber, types.PropertyCurrency:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", types.ErrInvalidValue, p.Name, raw)
		}
		return f, nil
	case types.PropertyCheckbox:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a boolean", types.ErrInvalidValue, p.Name, raw)
		}
		return b, nil
	case types.PropertyPerson, types.PropertyUser:
		if strings.Contains(raw, ",") {
			return splitList(raw), nil
		}
		return raw, nil
	case types.PropertyAttachment, types.PropertyRichText:
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			return decoded, nil
		}
		return raw, nil
	}
	return raw, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAssignments reads name=value pairs into a patch keyed by property ID.
func parseAssignments(b *types.Board, pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, usagef("invalid assignment %q (expected property=value)", pair)
		}
		p, err := findProperty(b, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := parseValue(p, raw)
		if err != nil {
			return nil, err
		}
		out[p.PropertyID] = v
	}
	return out, nil
}

// parseFilter reads "property:operator[:value]".
func parseFilter(b *types.Board, s string) (query.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return query.Filter{}, usagef("invalid filter %q (expected property:operator[:value])", s)
	}
	p, err := findProperty(b, parts[0])
	if err != nil {
		return query.Filter{}, err
	}
	f := query.Filter{PropertyID: p.PropertyID, Operator: types.FilterOperator(parts[1])}
	if len(parts) == 3 {
		f.Value, err = parseValue(p, parts[2])
		if err != nil {
			return query.Filter{}, err
		}
	}
	return f, nil
}

// parseSort reads "property[:asc|desc]".
func parseSort(b *types.Board, s string) (query.Sort, error) {
	name, dir, _ := strings.Cut(s, ":")
	p, err := findProperty(b, name)
	if err != nil {
		return query.Sort{}, err
	}
	if dir == "" {
		dir = query.Asc
	}
	if dir != query.Asc && dir != query.Desc {
		return query.Sort{}, usagef("invalid sort direction %q", dir)
	}
	return query.Sort{PropertyID: p.PropertyID, Direction: dir}, nil
}

// parseToolbar builds the transient search, filter and sort state.
func parseToolbar(b *types.Board, search string, filters, sorts []string) (query.Toolbar, error) {
	tb := query.Toolbar{SearchQuery: search}
	for _, s := range filters {
		f, err := parseFilter(b, s)
		if err != nil {
			return query.Toolbar{}, err
		}
		tb.Filters = append(tb.Filters, f)
	}
	for _, s := range sorts {
		srt, err := parseSort(b, s)
		if err != nil {
			return query.Toolbar{}, err
		}
		tb.Sorts = append(tb.Sorts, srt)
	}
	return tb, nil
}

// parseOptionSpec reads "Label[:color]".
func parseOptionSpec(s string) schema.OptionSpec {
	label, color, _ := strings.Cut(s, ":")
	return schema.OptionSpec{Label: label, Color: color}
}

// parseIndex reads a zero-based position argument.
func parseIndex(s string) (int, error) {
	i, err := cast.ToIntE(s)
	if err != nil {
		return 0, usagef("invalid index %q", s)
	}
	return i, nil
}
