package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two intervals strictly overlap. Touching
// endpoints (a.End == b.Start) are adjacent, not overlapping. The same
// policy is applied by conflict detection and booking validation.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge sorts the input by start ascending and collapses overlapping
// intervals into a minimal disjoint, sorted set. Touching intervals
// (end == next start) are kept separate. The input slice is not
// modified.
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Interval{sorted[0]}
	for _, curr := range sorted[1:] {
		last := &merged[len(merged)-1]
		if curr.Start.Before(last.End) {
			if curr.End.After(last.End) {
				last.End = curr.End
			}
			continue
		}
		merged = append(merged, curr)
	}
	return merged
}

// Subtract returns the sub-intervals of windows not covered by busy.
// Both inputs must be disjoint and sorted by start (Merge output
// qualifies). Runs as a single linear sweep over both sequences.
func Subtract(windows, busy []Interval) []Interval {
	var free []Interval
	j := 0

	for _, w := range windows {
		cursor := w.Start

		for j < len(busy) && !busy[j].End.After(cursor) {
			j++
		}

		k := j
		for k < len(busy) && busy[k].Start.Before(w.End) {
			b := busy[k]
			if b.Start.After(cursor) {
				free = append(free, Interval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
			if !b.End.After(w.End) {
				k++
			} else {
				break
			}
		}

		if cursor.Before(w.End) {
			free = append(free, Interval{Start: cursor, End: w.End})
		}
	}

	return free
}
