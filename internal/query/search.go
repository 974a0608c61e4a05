package query

import (
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// matchesSearch keeps a task when its title or any text or rich_text value
// contains q, ignoring case. An empty query matches everything.
func matchesSearch(t *types.Task, idx *schema.Index, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	for _, p := range idx.Properties() {
		tr, _ := p.Type.Traits()
		if !tr.Searchable {
			continue
		}
		v := t.Value(p.PropertyID)
		if isMissing(v) {
			continue
		}
		if strings.Contains(strings.ToLower(textOf(v)), q) {
			return true
		}
	}
	return false
}
