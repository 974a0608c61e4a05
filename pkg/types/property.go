package types

// PropertyType fixes the shape and the comparison, filter, grouping and
// aggregation semantics of a property's values.
type PropertyType string

// Property types.
const (
	PropertyText        PropertyType = "text"
	PropertyRichText    PropertyType = "rich_text"
	PropertyNumber      PropertyType = "number"
	PropertyCurrency    PropertyType = "currency"
	PropertyDate        PropertyType = "date"
	PropertySelect      PropertyType = "select"
	PropertyMultiSelect PropertyType = "multi_select"
	PropertyStatus      PropertyType = "status"
	PropertyCheckbox    PropertyType = "checkbox"
	PropertyPerson      PropertyType = "person"
	PropertyUser        PropertyType = "user"
	PropertyAttachment  PropertyType = "attachment"
)

// CompareKind selects the per-key comparator used when sorting.
type CompareKind int

// Comparator kinds.
const (
	CompareNone CompareKind = iota
	CompareString
	CompareNumber
	CompareDate
	CompareBool
)

// GroupStrategy selects how tasks are bucketed when a view groups by a
// property.
type GroupStrategy int

// Group strategies.
const (
	GroupNone GroupStrategy = iota
	GroupOptions
	GroupPeople
)

// FilterOperator names a filter comparison.
type FilterOperator string

// Filter operators.
const (
	OpContains       FilterOperator = "contains"
	OpEquals         FilterOperator = "equals"
	OpNotEquals      FilterOperator = "not_equals"
	OpIsEmpty        FilterOperator = "is_empty"
	OpIsNotEmpty     FilterOperator = "is_not_empty"
	OpGreaterThan    FilterOperator = "greater_than"
	OpLessThan       FilterOperator = "less_than"
	OpGreaterOrEqual FilterOperator = "greater_or_equal"
	OpLessOrEqual    FilterOperator = "less_or_equal"
	OpBefore         FilterOperator = "before"
	OpAfter          FilterOperator = "after"
)

// AggregationType names a per-column summary statistic.
type AggregationType string

// Aggregation types available for every property.
const (
	AggCount           AggregationType = "count"
	AggCountEmpty      AggregationType = "count_empty"
	AggCountNotEmpty   AggregationType = "count_not_empty"
	AggPercentEmpty    AggregationType = "percent_empty"
	AggPercentNotEmpty AggregationType = "percent_not_empty"
)

// Aggregation types available for number and currency properties only.
const (
	AggSum     AggregationType = "sum"
	AggAverage AggregationType = "average"
	AggMin     AggregationType = "min"
	AggMax     AggregationType = "max"
	AggRange   AggregationType = "range"
	AggMedian  AggregationType = "median"
)

// TypeTraits is the single definition of everything the engine does with a
// property type.
type TypeTraits struct {
	Kind       ValueKind
	Options    bool // carries an option list
	Searchable bool // included in free-text search
	Numeric    bool // numeric aggregations allowed
	Compare    CompareKind
	Group      GroupStrategy
	Operators  []FilterOperator
}

var (
	textOps     = []FilterOperator{OpContains, OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty}
	numberOps   = []FilterOperator{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual}
	dateOps     = []FilterOperator{OpEquals, OpBefore, OpAfter, OpIsEmpty, OpIsNotEmpty}
	optionOps   = []FilterOperator{OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty}
	checkboxOps = []FilterOperator{OpEquals}
)

var typeTable = map[PropertyType]TypeTraits{
	PropertyText:        {Kind: KindText, Searchable: true, Compare: CompareString, Operators: textOps},
	PropertyRichText:    {Kind: KindText, Searchable: true, Compare: CompareString, Operators: textOps},
	PropertyNumber:      {Kind: KindNumber, Numeric: true, Compare: CompareNumber, Operators: numberOps},
	PropertyCurrency:    {Kind: KindNumber, Numeric: true, Compare: CompareNumber, Operators: numberOps},
	PropertyDate:        {Kind: KindDate, Compare: CompareDate, Operators: dateOps},
	PropertySelect:      {Kind: KindOption, Options: true, Compare: CompareString, Group: GroupOptions, Operators: optionOps},
	PropertyStatus:      {Kind: KindOption, Options: true, Compare: CompareString, Group: GroupOptions, Operators: optionOps},
	PropertyMultiSelect: {Kind: KindOptions, Options: true, Compare: CompareString, Group: GroupOptions, Operators: optionOps},
	PropertyCheckbox:    {Kind: KindCheckbox, Compare: CompareBool, Operators: checkboxOps},
	PropertyPerson:      {Kind: KindPeople, Compare: CompareString, Group: GroupPeople, Operators: optionOps},
	PropertyUser:        {Kind: KindPeople, Compare: CompareString, Group: GroupPeople, Operators: optionOps},
	PropertyAttachment:  {Kind: KindAttachments},
}

// Traits returns the behaviour table entry for t. The second result is
// false for unknown types.
func (t PropertyType) Traits() (TypeTraits, bool) {
	tr, ok := typeTable[t]
	return tr, ok
}

// Valid reports whether t is a recognised property type.
func (t PropertyType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// HasOptions reports whether properties of this type carry an option list.
func (t PropertyType) HasOptions() bool { return typeTable[t].Options }

// Groupable reports whether a view may group by properties of this type.
func (t PropertyType) Groupable() bool { return typeTable[t].Group != GroupNone }

// Sortable reports whether a view may sort by properties of this type.
func (t PropertyType) Sortable() bool { return typeTable[t].Compare != CompareNone }

// IsPeople reports whether values identify users.
func (t PropertyType) IsPeople() bool { return typeTable[t].Kind == KindPeople }

// SupportsOperator reports whether op may filter properties of this type.
func (t PropertyType) SupportsOperator(op FilterOperator) bool {
	for _, o := range typeTable[t].Operators {
		if o == op {
			return true
		}
	}
	return false
}

// SupportsAggregation reports whether agg may summarise this type.
func (t PropertyType) SupportsAggregation(agg AggregationType) bool {
	switch agg {
	case AggCount, AggCountEmpty, AggCountNotEmpty, AggPercentEmpty, AggPercentNotEmpty:
		return t.Valid()
	case AggSum, AggAverage, AggMin, AggMax, AggRange, AggMedian:
		return typeTable[t].Numeric
	default:
		return false
	}
}

// Property defines a typed column of a board's schema.
type Property struct {
	PropertyID string       `json:"id"`
	Name       string       `json:"name"`
	Type       PropertyType `json:"type"`
	Order      int          `json:"order"`
	Width      int          `json:"width,omitempty"`
	Required   bool         `json:"required,omitempty"`
	Options    []Option     `json:"options,omitempty"`
}

// Option is one selectable value of a select, multi_select or status
// property. IDs are unique within the property; labels need not be.
type Option struct {
	OptionID string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
}

// Option returns the option with the given ID.
func (p *Property) Option(id string) (*Option, bool) {
	for i := range p.Options {
		if p.Options[i].OptionID == id {
			return &p.Options[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of p.
func (p Property) Clone() Property {
	if p.Options != nil {
		p.Options = append([]Option(nil), p.Options...)
	}
	return p
}
