package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyTypeTraits(t *testing.T) {
	tests := []struct {
		typ        PropertyType
		valid      bool
		options    bool
		groupable  bool
		sortable   bool
		aggregates bool
	}{
		{PropertyText, true, false, false, true, false},
		{PropertyRichText, true, false, false, true, false},
		{PropertyNumber, true, false, false, true, true},
		{PropertyCurrency, true, false, false, true, true},
		{PropertyDate, true, false, false, true, false},
		{PropertySelect, true, true, true, true, false},
		{PropertyStatus, true, true, true, true, false},
		{PropertyMultiSelect, true, true, true, true, false},
		{PropertyCheckbox, true, false, false, true, false},
		{PropertyPerson, true, false, true, true, false},
		{PropertyUser, true, false, true, true, false},
		{PropertyAttachment, true, false, false, false, false},
		{"formula", false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.typ.Valid())
			assert.Equal(t, tt.options, tt.typ.HasOptions())
			assert.Equal(t, tt.groupable, tt.typ.Groupable())
			assert.Equal(t, tt.sortable, tt.typ.Sortable())
			assert.Equal(t, tt.aggregates, tt.typ.SupportsAggregation(AggSum))
			assert.Equal(t, tt.valid, tt.typ.SupportsAggregation(AggCount))
		})
	}
}

func TestSupportsOperator(t *testing.T) {
	assert.True(t, PropertyText.SupportsOperator(OpContains))
	assert.False(t, PropertyNumber.SupportsOperator(OpContains))
	assert.True(t, PropertyCurrency.SupportsOperator(OpLessOrEqual))
	assert.True(t, PropertyDate.SupportsOperator(OpBefore))
	assert.False(t, PropertyDate.SupportsOperator(OpGreaterThan))
	assert.True(t, PropertyMultiSelect.SupportsOperator(OpIsEmpty))
	assert.True(t, PropertyCheckbox.SupportsOperator(OpEquals))
	assert.False(t, PropertyCheckbox.SupportsOperator(OpIsEmpty))
	assert.False(t, PropertyAttachment.SupportsOperator(OpIsEmpty))
}

func TestPropertyCloneIsDeep(t *testing.T) {
	p := Property{PropertyID: "p1", Type: PropertySelect, Options: []Option{{OptionID: "o1", Label: "A"}}}
	c := p.Clone()
	c.Options[0].Label = "B"
	assert.Equal(t, "A", p.Options[0].Label)

	opt, ok := p.Option("o1")
	assert.True(t, ok)
	assert.Equal(t, "A", opt.Label)
	_, ok = p.Option("missing")
	assert.False(t, ok)
}
