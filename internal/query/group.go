package query

import (
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// group buckets already-sorted tasks by the group-by property. Option
// buckets follow option order and people buckets follow the known user
// order; both are emitted even when empty. A trailing no-value bucket is
// emitted only when some task lands in it. Only the first ID of a
// multi-value field decides the bucket.
func group(tasks []*types.Task, p *types.Property, users []string) []Group {
	tr, _ := p.Type.Traits()

	var groups []Group
	pos := make(map[string]int)
	add := func(g Group) {
		pos[g.Key] = len(groups)
		groups = append(groups, g)
	}

	switch tr.Group {
	case types.GroupOptions:
		for _, o := range p.Options {
			if _, dup := pos[o.OptionID]; dup {
				continue
			}
			add(Group{Key: o.OptionID, Label: o.Label, Color: o.Color, Tasks: []*types.Task{}})
		}
	case types.GroupPeople:
		for _, u := range users {
			if _, dup := pos[u]; dup || u == "" {
				continue
			}
			add(Group{Key: u, Label: u, Tasks: []*types.Task{}})
		}
	}

	var none []*types.Task
	for _, t := range tasks {
		key := firstID(t.Value(p.PropertyID))
		if key == "" {
			none = append(none, t)
			continue
		}
		i, ok := pos[key]
		if !ok {
			if tr.Group != types.GroupPeople {
				// Stale option IDs have no bucket of their own.
				none = append(none, t)
				continue
			}
			add(Group{Key: key, Label: key, Tasks: []*types.Task{}})
			i = pos[key]
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}

	if len(none) > 0 {
		groups = append(groups, Group{NoValue: true, Label: "No value", Tasks: none})
	}
	if groups == nil {
		groups = []Group{}
	}
	for i := range groups {
		groups[i].Count = len(groups[i].Tasks)
	}
	return groups
}

func firstID(v types.Value) string {
	ids := idsOf(v)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}
