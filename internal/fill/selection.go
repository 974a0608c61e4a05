package fill

import "slices"

// Selection is the bulk-select set. It holds task IDs only, so it survives
// any change to search, filter or sort. The zero value is empty.
type Selection struct {
	ids   map[string]struct{}
	order []string
}

// Add selects the given tasks.
func (s *Selection) Add(ids ...string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	for _, id := range ids {
		if _, ok := s.ids[id]; ok || id == "" {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// Remove deselects the given tasks.
func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			continue
		}
		delete(s.ids, id)
		s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	}
}

// Toggle flips the selection state of id and reports the new state.
func (s *Selection) Toggle(id string) bool {
	if s.Contains(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected tasks.
func (s *Selection) Len() int { return len(s.order) }

// IDs returns the selected IDs in selection order.
func (s *Selection) IDs() []string { return slices.Clone(s.order) }

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.order = nil
}

// Delete passes exactly the selected IDs to del. The selection is cleared
// when del succeeds and left untouched when it fails. An empty selection
// does not call del.
func (s *Selection) Delete(del func(ids []string) error) error {
	if s.Len() == 0 {
		return nil
	}
	if err := del(s.IDs()); err != nil {
		return err
	}
	s.Clear()
	return nil
}
