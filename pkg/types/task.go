package types

import "time"

// Task is a record on a board. Properties is sparse: an absent key means
// "no value". Entries for removed properties are kept as they are.
type Task struct {
	TaskID     string           `json:"id"`
	BoardID    string           `json:"boardId"`
	Title      string           `json:"title"`
	Order      float64          `json:"order"`
	Properties map[string]Value `json:"properties"`
	CreatedBy  string           `json:"createdBy"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Value returns the value stored for propertyID, or the zero Value.
func (t *Task) Value(propertyID string) Value {
	if t.Properties == nil {
		return Value{}
	}
	return t.Properties[propertyID]
}

// SetValue stores v under propertyID. Storing the zero Value removes the
// key, since absence and "no value" mean the same thing.
func (t *Task) SetValue(propertyID string, v Value) {
	if v.IsNone() {
		delete(t.Properties, propertyID)
		return
	}
	if t.Properties == nil {
		t.Properties = make(map[string]Value)
	}
	t.Properties[propertyID] = v
}

// Clone returns a copy of t with its own Properties map.
func (t *Task) Clone() *Task {
	c := *t
	c.Properties = make(map[string]Value, len(t.Properties))
	for k, v := range t.Properties {
		c.Properties[k] = v
	}
	return &c
}

// Interpret tags every raw value with the type of the property it belongs
// to. Values for unknown properties are left untouched.
func (t *Task) Interpret(props []Property) {
	for i := range props {
		p := &props[i]
		if v, ok := t.Properties[p.PropertyID]; ok {
			t.Properties[p.PropertyID] = v.Interpret(p.Type)
		}
	}
}

// IsAssignedTo reports whether userID created the task or appears in any
// person or user property value, in either the single-ID or list form.
func (t *Task) IsAssignedTo(userID string, props []Property) bool {
	if userID == "" {
		return false
	}
	if t.CreatedBy == userID {
		return true
	}
	for i := range props {
		if !props[i].Type.IsPeople() {
			continue
		}
		v := t.Value(props[i].PropertyID).Interpret(props[i].Type)
		for _, id := range v.IDs() {
			if id == userID {
				return true
			}
		}
	}
	return false
}
