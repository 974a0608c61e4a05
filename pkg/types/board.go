package types

import "time"

// Visibility controls whether non-members can see a board.
type Visibility string

// Board visibilities.
const (
	VisibilityPrivate   Visibility = "private"
	VisibilityWorkspace Visibility = "workspace"
)

// Valid reports whether v is a recognised visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityWorkspace
}

// Board owns an ordered property schema and a list of views.
type Board struct {
	BoardID    string     `json:"id"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"ownerId"`
	Visibility Visibility `json:"visibility"`
	Properties []Property `json:"properties"`
	Views      []View     `json:"views,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Property returns the property with the given ID.
func (b *Board) Property(id string) (*Property, bool) {
	for i := range b.Properties {
		if b.Properties[i].PropertyID == id {
			return &b.Properties[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of b's schema and views.
func (b *Board) Clone() *Board {
	c := *b
	c.Properties = make([]Property, len(b.Properties))
	for i := range b.Properties {
		c.Properties[i] = b.Properties[i].Clone()
	}
	c.Views = make([]View, len(b.Views))
	for i := range b.Views {
		c.Views[i] = b.Views[i].Clone()
	}
	return &c
}

// ViewType is the layout a view renders with.
type ViewType string

// View types.
const (
	ViewTable  ViewType = "table"
	ViewKanban ViewType = "kanban"
)

// View is a saved table or kanban configuration.
type View struct {
	ViewID    string     `json:"id"`
	BoardID   string     `json:"boardId"`
	Name      string     `json:"name"`
	Type      ViewType   `json:"type"`
	IsDefault bool       `json:"isDefault"`
	Config    ViewConfig `json:"config"`
}

// Clone returns a deep copy of v.
func (v View) Clone() View {
	v.Config = v.Config.Clone()
	return v
}

// ViewConfig is persisted as JSON. A nil VisibleProperties means every
// property is visible.
type ViewConfig struct {
	GroupBy           string        `json:"groupBy,omitempty"`
	VisibleProperties []string      `json:"visibleProperties"`
	Aggregations      []Aggregation `json:"aggregations,omitempty"`
}

// Aggregation requests one summary statistic for a column.
type Aggregation struct {
	PropertyID string          `json:"propertyId"`
	Type       AggregationType `json:"type"`
}

// Clone returns a deep copy of c.
func (c ViewConfig) Clone() ViewConfig {
	if c.VisibleProperties != nil {
		c.VisibleProperties = append([]string{}, c.VisibleProperties...)
	}
	if c.Aggregations != nil {
		c.Aggregations = append([]Aggregation{}, c.Aggregations...)
	}
	return c
}

// Without returns a copy of c with every reference to propertyID dropped.
func (c ViewConfig) Without(propertyID string) ViewConfig {
	out := ViewConfig{}
	if c.GroupBy != propertyID {
		out.GroupBy = c.GroupBy
	}
	if c.VisibleProperties != nil {
		out.VisibleProperties = []string{}
		for _, id := range c.VisibleProperties {
			if id != propertyID {
				out.VisibleProperties = append(out.VisibleProperties, id)
			}
		}
	}
	for _, a := range c.Aggregations {
		if a.PropertyID != propertyID {
			out.Aggregations = append(out.Aggregations, a)
		}
	}
	return out
}
