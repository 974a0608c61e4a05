package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value. There is one variant per row
// of the property type table, plus KindRaw for payloads stored before the
// schema could validate them.
type ValueKind int

// Value kinds.
const (
	KindNone ValueKind = iota
	KindText
	KindNumber
	KindDate
	KindOption
	KindOptions
	KindCheckbox
	KindPeople
	KindAttachments
	KindRaw
)

var kindNames = map[ValueKind]string{
	KindNone:        "none",
	KindText:        "text",
	KindNumber:      "number",
	KindDate:        "date",
	KindOption:      "option",
	KindOptions:     "options",
	KindCheckbox:    "checkbox",
	KindPeople:      "people",
	KindAttachments: "attachments",
	KindRaw:         "raw",
}

func (k ValueKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DateValue is the structured form of a date value. From and To are ISO
// strings; nil means unset.
type DateValue struct {
	From    *string `json:"from"`
	To      *string `json:"to"`
	HasTime bool    `json:"hasTime"`
}

// Instant returns the From timestamp. The second result is false when From
// is unset or unparseable.
func (d DateValue) Instant() (time.Time, bool) {
	if d.From == nil {
		return time.Time{}, false
	}
	return ParseInstant(*d.From)
}

// Attachment describes one uploaded file referenced by an attachment value.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Value is a single property value on a task. The zero Value is "no value".
// Values are immutable; constructors copy their slice arguments.
type Value struct {
	kind   ValueKind
	text   string
	num    float64
	date   DateValue
	flag   bool
	ids    []string
	single bool
	files  []Attachment
	raw    any
}

// TextValue holds a text or rich_text value.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// NumberValue holds a number or currency value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// DateRangeValue holds a structured date value.
func DateRangeValue(d DateValue) Value { return Value{kind: KindDate, date: d} }

// DateStringValue holds a date given as a bare ISO string, the legacy form.
// The time component is inferred from the presence of a 'T' separator.
func DateStringValue(s string) Value {
	from := s
	return Value{kind: KindDate, date: DateValue{From: &from, HasTime: strings.Contains(s, "T")}}
}

// OptionValue holds a select or status option ID.
func OptionValue(id string) Value { return Value{kind: KindOption, text: id} }

// OptionsValue holds a multi_select list of option IDs.
func OptionsValue(ids ...string) Value {
	return Value{kind: KindOptions, ids: append([]string{}, ids...)}
}

// CheckboxValue holds a checkbox value.
func CheckboxValue(b bool) Value { return Value{kind: KindCheckbox, flag: b} }

// PersonValue holds a person or user value written as a single ID.
func PersonValue(id string) Value {
	return Value{kind: KindPeople, ids: []string{id}, single: true}
}

// PeopleValue holds a person or user value written as a list of IDs.
func PeopleValue(ids ...string) Value {
	return Value{kind: KindPeople, ids: append([]string{}, ids...)}
}

// AttachmentsValue holds an attachment list.
func AttachmentsValue(files ...Attachment) Value {
	return Value{kind: KindAttachments, files: append([]Attachment{}, files...)}
}

// RawValue wraps a payload whose shape has not been checked against a
// property type. A nil payload is "no value".
func RawValue(x any) Value {
	if x == nil {
		return Value{}
	}
	if v, ok := x.(Value); ok {
		return v
	}
	return Value{kind: KindRaw, raw: x}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNone reports whether v is the zero "no value".
func (v Value) IsNone() bool { return v.kind == KindNone }

// IsBlank reports whether v counts as empty for is_empty filters and the
// empty-count aggregations: no value, null, or the empty string. Empty lists
// are not blank.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNone:
		return true
	case KindText, KindOption:
		return v.text == ""
	case KindPeople:
		return v.single && v.ids[0] == ""
	case KindRaw:
		s, ok := v.raw.(string)
		return ok && s == ""
	}
	return false
}

// Text returns the string held by a text or option value.
func (v Value) Text() string { return v.text }

// Number returns the number held by a number value.
func (v Value) Number() float64 { return v.num }

// Date returns the structured date held by a date value.
func (v Value) Date() DateValue { return v.date }

// Checkbox returns the flag held by a checkbox value.
func (v Value) Checkbox() bool { return v.flag }

// OptionID returns the option ID held by a select or status value.
func (v Value) OptionID() string {
	if v.kind == KindOption {
		return v.text
	}
	return ""
}

// IDs returns the option IDs of a multi_select value or the user IDs of a
// person value. A person value written as a single ID yields one element.
func (v Value) IDs() []string {
	if v.kind != KindOptions && v.kind != KindPeople {
		return nil
	}
	return append([]string(nil), v.ids...)
}

// Attachments returns the attachment list.
func (v Value) Attachments() []Attachment {
	return append([]Attachment(nil), v.files...)
}

// Raw returns the unchecked payload of a KindRaw value.
func (v Value) Raw() any { return v.raw }

// Interface returns the JSON-shaped form of v: nil, string, float64, bool,
// []string, DateValue, []Attachment, or the raw payload.
func (v Value) Interface() any {
	switch v.kind {
	case KindText, KindOption:
		return v.text
	case KindNumber:
		return v.num
	case KindDate:
		return v.date
	case KindOptions:
		return append([]string{}, v.ids...)
	case KindCheckbox:
		return v.flag
	case KindPeople:
		if v.single {
			return v.ids[0]
		}
		return append([]string{}, v.ids...)
	case KindAttachments:
		return append([]Attachment{}, v.files...)
	case KindRaw:
		return v.raw
	}
	return nil
}

// Equal reports whether a and b hold the same JSON-shaped payload.
func Equal(a, b Value) bool {
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// MarshalJSON writes the per-type JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON reads any JSON payload as a KindRaw value. Use Interpret to
// tag it with the owning property's type.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	*v = RawValue(x)
	return nil
}

// Interpret tags a raw value with the variant of property type t. Payloads
// that do not fit the type stay KindRaw so legacy data is never lost.
func (v Value) Interpret(t PropertyType) Value {
	if v.kind != KindRaw {
		return v
	}
	typed, err := DecodeValue(t, v.raw)
	if err != nil {
		return v
	}
	return typed
}

// DecodeValue converts a JSON-shaped payload to the variant of property
// type t. It checks shape only; option existence is the schema's concern.
// A nil payload decodes to the zero Value. Returns ErrInvalidValue when the
// payload does not fit the type.
func DecodeValue(t PropertyType, x any) (Value, error) {
	tr, ok := t.Traits()
	if !ok {
		return Value{}, ErrInvalidPropertyType
	}
	if x == nil {
		return Value{}, nil
	}
	if v, ok := x.(Value); ok {
		if v.kind == KindRaw {
			return DecodeValue(t, v.raw)
		}
		if v.kind == KindNone || v.kind == tr.Kind {
			return v, nil
		}
		return Value{}, fmt.Errorf("%w: %s value for %s property", ErrInvalidValue, v.kind, t)
	}

	switch tr.Kind {
	case KindText:
		if s, ok := x.(string); ok {
			return TextValue(s), nil
		}
		if t == PropertyRichText {
			if _, ok := x.(map[string]any); ok {
				return Value{kind: KindRaw, raw: x}, nil
			}
		}
	case KindNumber:
		if f, ok := toFloat(x); ok {
			return NumberValue(f), nil
		}
	case KindDate:
		if d, ok := toDate(x); ok {
			return DateRangeValue(d), nil
		}
	case KindOption:
		if s, ok := x.(string); ok {
			return OptionValue(s), nil
		}
	case KindOptions:
		if ids, ok := toStrings(x); ok {
			return OptionsValue(ids...), nil
		}
	case KindCheckbox:
		if b, ok := x.(bool); ok {
			return CheckboxValue(b), nil
		}
	case KindPeople:
		if s, ok := x.(string); ok {
			return PersonValue(s), nil
		}
		if ids, ok := toStrings(x); ok {
			return PeopleValue(ids...), nil
		}
	case KindAttachments:
		if files, ok := toAttachments(x); ok {
			return AttachmentsValue(files...), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %T for %s property", ErrInvalidValue, x, t)
}

func toFloat(x any) (float64, bool) {
	switch n := x.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toStrings(x any) ([]string, bool) {
	switch l := x.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toDate(x any) (DateValue, bool) {
	switch d := x.(type) {
	case string:
		return DateStringValue(d).date, true
	case DateValue:
		return d, true
	case *DateValue:
		if d == nil {
			return DateValue{}, false
		}
		return *d, true
	case map[string]any:
		var out DateValue
		for key, val := range d {
			switch key {
			case "from", "to":
				if val == nil {
					continue
				}
				s, ok := val.(string)
				if !ok {
					return DateValue{}, false
				}
				if key == "from" {
					out.From = &s
				} else {
					out.To = &s
				}
			case "hasTime":
				b, ok := val.(bool)
				if !ok {
					return DateValue{}, false
				}
				out.HasTime = b
			}
		}
		return out, true
	}
	return DateValue{}, false
}

func toAttachments(x any) ([]Attachment, bool) {
	switch l := x.(type) {
	case []Attachment:
		return l, true
	case []any:
		data, err := json.Marshal(l)
		if err != nil {
			return nil, false
		}
		var files []Attachment
		if err := json.Unmarshal(data, &files); err != nil {
			return nil, false
		}
		return files, true
	}
	return nil, false
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseInstant parses an ISO 8601 date or timestamp. Values without a zone
// are read as UTC.
func ParseInstant(s string) (time.Time, bool) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
