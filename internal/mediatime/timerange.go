package mediatime

import (
	"fmt"
	"sort"
)

// Range is a half-open interval [Start, Start+Duration).
type Range struct {
	Start    Time
	Duration Time
}

// NewRange returns a range starting at start with the given duration.
func NewRange(start, duration Time) Range {
	return Range{Start: start, Duration: duration}
}

// RangeFromTo returns the range [start, end).
func RangeFromTo(start, end Time) Range {
	return Range{Start: start, Duration: end.Sub(start)}
}

// Seconds builds a range from floating point seconds at DefaultScale.
func Seconds(start, duration float64) Range {
	return Range{Start: FromSeconds(start, DefaultScale), Duration: FromSeconds(duration, DefaultScale)}
}

// End returns Start + Duration.
func (r Range) End() Time {
	return r.Start.Add(r.Duration)
}

// IsEmpty reports whether the range has no positive duration.
func (r Range) IsEmpty() bool {
	return !r.Duration.IsPositive()
}

// Valid reports whether Duration is non-negative.
func (r Range) Valid() bool {
	return r.Duration.Value >= 0
}

// Equal compares start and duration by value, ignoring timescale.
func (r Range) Equal(o Range) bool {
	return r.Start.Equal(o.Start) && r.Duration.Equal(o.Duration)
}

// Intersection returns the overlap of r and o. Disjoint ranges yield a
// zero-duration range anchored at the later start.
func (r Range) Intersection(o Range) Range {
	start := Max(r.Start, o.Start)
	end := Min(r.End(), o.End())
	if !end.After(start) {
		return Range{Start: start, Duration: Zero}
	}
	return RangeFromTo(start, end)
}

// Overlaps reports whether r and o share a positive-duration interval.
// Touching ranges do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Intersection(o).Duration.IsPositive()
}

// Contains reports whether o lies entirely inside r.
func (r Range) Contains(o Range) bool {
	return !o.Start.Before(r.Start) && !o.End().After(r.End())
}

// ContainsTime reports whether t falls in [Start, End).
func (r Range) ContainsTime(t Time) bool {
	return !t.Before(r.Start) && t.Before(r.End())
}

// Shifted returns r moved so that it starts at start.
func (r Range) Shifted(start Time) Range {
	return Range{Start: start, Duration: r.Duration}
}

// Subtract returns the fragments of r left after removing its overlap with
// o: zero, one or two ranges, left fragment first.
func (r Range) Subtract(o Range) []Range {
	inter := r.Intersection(o)
	if !inter.Duration.IsPositive() {
		return []Range{r}
	}
	var out []Range
	if left := RangeFromTo(r.Start, inter.Start); left.Duration.IsPositive() {
		out = append(out, left)
	}
	if right := RangeFromTo(inter.End(), r.End()); right.Duration.IsPositive() {
		out = append(out, right)
	}
	return out
}

// SliceRanges partitions the union of a and b into ordered disjoint pieces
// at every boundary of either range. Ranges without a positive overlap are
// returned unchanged as [a, b].
func SliceRanges(a, b Range) []Range {
	inter := a.Intersection(b)
	if !inter.Duration.IsPositive() {
		return []Range{a, b}
	}

	lo, hi := b, a
	if b.Contains(a) || (a.Start.Before(b.Start) && a.End().Before(b.End())) {
		lo, hi = a, b
	}
	return mix(lo, inter, hi)
}

func mix(lo, inter, hi Range) []Range {
	if hi.Contains(lo) {
		if hi.Equal(lo) {
			return []Range{inter}
		}
		var out []Range
		if left := RangeFromTo(hi.Start, inter.Start); left.Duration.IsPositive() {
			out = append(out, left)
		}
		out = append(out, inter)
		if right := RangeFromTo(inter.End(), hi.End()); right.Duration.IsPositive() {
			out = append(out, right)
		}
		return out
	}

	var out []Range
	if left := NewRange(lo.Start, lo.Duration.Sub(inter.Duration)); left.Duration.IsPositive() {
		out = append(out, left)
	}
	out = append(out, inter)
	if right := RangeFromTo(inter.End(), hi.End()); right.Duration.IsPositive() {
		out = append(out, right)
	}
	return out
}

// Union merges ranges into the minimal sorted set of disjoint ranges.
// Adjacent ranges are joined.
func Union(ranges []Range) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Duration.IsPositive() {
			sorted = append(sorted, r)
		}
	}
	SortByStart(sorted)

	var out []Range
	for _, r := range sorted {
		if n := len(out); n > 0 && !r.Start.After(out[n-1].End()) {
			if r.End().After(out[n-1].End()) {
				out[n-1] = RangeFromTo(out[n-1].Start, r.End())
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortByStart orders ranges by start time, keeping equal starts stable.
func SortByStart(ranges []Range) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start.Before(ranges[j].Start)
	})
}

func (r Range) String() string {
	return fmt.Sprintf("[%.3fs, %.3fs)", r.Start.Seconds(), r.End().Seconds())
}
