// Package fill implements spreadsheet-style drag-fill and bulk selection
// over the visual task order produced by the query package.
package fill

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// ErrNoFill is returned when a session is extended or planned before Start
// or after it was cancelled.
var ErrNoFill = errors.New("no fill in progress")

// Session tracks one drag-fill gesture. The zero value is idle.
type Session struct {
	active     bool
	propertyID string
	value      types.Value
	start, end int
}

// Change is one planned write of a fill.
type Change struct {
	TaskID     string
	PropertyID string
	Value      types.Value
}

// Start begins a fill of property propertyID with raw value x from visual
// index start. The value is validated against the property before anything
// else happens, so an invalid fill never reaches the store.
func (s *Session) Start(idx *schema.Index, propertyID string, x any, start int) error {
	if start < 0 {
		return fmt.Errorf("fill start %d: %w", start, types.ErrInvalidIndex)
	}
	p, ok := idx.Property(propertyID)
	if !ok {
		return fmt.Errorf("fill: %w: %s", types.ErrPropertyNotFound, propertyID)
	}
	v, err := schema.ParseValue(p, x)
	if err != nil {
		return fmt.Errorf("fill %q: %w", p.Name, err)
	}
	*s = Session{active: true, propertyID: propertyID, value: v, start: start, end: start}
	return nil
}

// Extend moves the moving end of the range to visual index i.
func (s *Session) Extend(i int) error {
	if !s.active {
		return ErrNoFill
	}
	if i < 0 {
		return fmt.Errorf("fill end %d: %w", i, types.ErrInvalidIndex)
	}
	s.end = i
	return nil
}

// Active reports whether a fill is in progress.
func (s *Session) Active() bool { return s.active }

// PropertyID returns the property being filled.
func (s *Session) PropertyID() string { return s.propertyID }

// Value returns the fill value.
func (s *Session) Value() types.Value { return s.value }

// Range returns the inclusive visual span, lowest index first, regardless
// of drag direction.
func (s *Session) Range() (lo, hi int) {
	if s.start <= s.end {
		return s.start, s.end
	}
	return s.end, s.start
}

// Contains reports whether visual index i is inside the current range.
func (s *Session) Contains(i int) bool {
	lo, hi := s.Range()
	return s.active && i >= lo && i <= hi
}

// Plan lists the writes a release would make against visible, the tasks in
// visual order. Tasks that already hold the fill value are skipped. Indexes
// past the end of visible are ignored.
func (s *Session) Plan(visible []*types.Task) ([]Change, error) {
	if !s.active {
		return nil, ErrNoFill
	}
	lo, hi := s.Range()
	var out []Change
	for i := lo; i <= hi && i < len(visible); i++ {
		t := visible[i]
		if types.Equal(t.Value(s.propertyID), s.value) {
			continue
		}
		out = append(out, Change{TaskID: t.TaskID, PropertyID: s.propertyID, Value: s.value})
	}
	return out, nil
}

// Commit plans the fill, hands the changes to apply and ends the session.
// When apply fails the session stays active so the caller may retry.
func (s *Session) Commit(visible []*types.Task, apply func([]Change) error) error {
	changes, err := s.Plan(visible)
	if err != nil {
		return err
	}
	if len(changes) > 0 {
		if err := apply(changes); err != nil {
			return err
		}
	}
	s.Cancel()
	return nil
}

// Cancel abandons the fill.
func (s *Session) Cancel() { *s = Session{} }
