package query

import (
	"math"
	"slices"

	"github.com/mesh-intelligence/taskboard/internal/schema"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// aggregate computes each requested statistic over the filtered tasks.
// Results are keyed by property ID; a later entry for the same property
// replaces an earlier one.
func aggregate(tasks []*types.Task, idx *schema.Index, aggs []types.Aggregation) map[string]AggregateValue {
	out := make(map[string]AggregateValue, len(aggs))
	for _, a := range aggs {
		if _, ok := idx.Property(a.PropertyID); !ok {
			continue
		}
		out[a.PropertyID] = AggregateValue{
			PropertyID: a.PropertyID,
			Type:       a.Type,
			Value:      compute(tasks, a),
		}
	}
	return out
}

func compute(tasks []*types.Task, a types.Aggregation) *float64 {
	total := len(tasks)
	empty := 0
	var nums []float64
	for _, t := range tasks {
		v := t.Value(a.PropertyID)
		if v.IsBlank() || isMissing(v) {
			empty++
			continue
		}
		if n, ok := numberOf(v); ok {
			nums = append(nums, n)
		}
	}

	switch a.Type {
	case types.AggCount:
		return ptr(float64(total))
	case types.AggCountEmpty:
		return ptr(float64(empty))
	case types.AggCountNotEmpty:
		return ptr(float64(total - empty))
	case types.AggPercentEmpty:
		return ptr(percent(empty, total))
	case types.AggPercentNotEmpty:
		return ptr(percent(total-empty, total))
	case types.AggSum:
		return ptr(sum(nums))
	}

	if len(nums) == 0 {
		return nil
	}
	switch a.Type {
	case types.AggAverage:
		return ptr(round2(sum(nums) / float64(len(nums))))
	case types.AggMin:
		return ptr(slices.Min(nums))
	case types.AggMax:
		return ptr(slices.Max(nums))
	case types.AggRange:
		return ptr(slices.Max(nums) - slices.Min(nums))
	case types.AggMedian:
		return ptr(median(nums))
	}
	return nil
}

// percent is an integer percentage, 0 when there are no tasks.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part) / float64(total) * 100)
}

func sum(nums []float64) float64 {
	var s float64
	for _, n := range nums {
		s += n
	}
	return s
}

func median(nums []float64) float64 {
	s := slices.Clone(nums)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func ptr(f float64) *float64 { return &f }
