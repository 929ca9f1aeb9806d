package interval

import (
	"testing"
	"time"
)

var day = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func iv(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestOverlapsBoundary(t *testing.T) {
	a := iv(9, 0, 10, 0)

	// Ends exactly when the other starts: adjacent, not overlapping.
	if Overlaps(a, iv(10, 0, 11, 0)) {
		t.Error("touching endpoints must not overlap")
	}
	if Overlaps(iv(10, 0, 11, 0), a) {
		t.Error("touching endpoints must not overlap (reversed)")
	}

	// One minute of overlap is a conflict.
	if !Overlaps(a, iv(9, 59, 11, 0)) {
		t.Error("expected overlap for 9:59-11:00 against 9:00-10:00")
	}
	if !Overlaps(iv(9, 59, 11, 0), a) {
		t.Error("overlap must be symmetric")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		input []Interval
		want  []Interval
	}{
		{
			name:  "empty",
			input: nil,
			want:  nil,
		},
		{
			name:  "overlapping collapse",
			input: []Interval{iv(9, 0, 10, 0), iv(9, 30, 11, 0)},
			want:  []Interval{iv(9, 0, 11, 0)},
		},
		{
			name:  "touching stay separate",
			input: []Interval{iv(9, 0, 10, 0), iv(10, 0, 11, 0)},
			want:  []Interval{iv(9, 0, 10, 0), iv(10, 0, 11, 0)},
		},
		{
			name:  "unsorted input",
			input: []Interval{iv(14, 0, 15, 0), iv(9, 0, 10, 0), iv(9, 15, 9, 45)},
			want:  []Interval{iv(9, 0, 10, 0), iv(14, 0, 15, 0)},
		},
		{
			name:  "contained interval absorbed",
			input: []Interval{iv(9, 0, 12, 0), iv(10, 0, 11, 0)},
			want:  []Interval{iv(9, 0, 12, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.input)
			assertIntervals(t, got, tt.want)
		})
	}
}

func TestMergeOutputDisjointSorted(t *testing.T) {
	input := []Interval{
		iv(13, 0, 14, 30), iv(9, 0, 9, 30), iv(9, 15, 10, 0),
		iv(14, 0, 16, 0), iv(8, 0, 8, 30),
	}
	got := Merge(input)
	for i := 1; i < len(got); i++ {
		if got[i].Start.Before(got[i-1].End) {
			t.Errorf("output not disjoint at %d: %v then %v", i, got[i-1], got[i])
		}
		if got[i].Start.Before(got[i-1].Start) {
			t.Errorf("output not sorted at %d", i)
		}
	}
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name    string
		windows []Interval
		busy    []Interval
		want    []Interval
	}{
		{
			name:    "busy in middle splits window",
			windows: []Interval{iv(10, 0, 18, 0)},
			busy:    []Interval{iv(14, 0, 15, 0)},
			want:    []Interval{iv(10, 0, 14, 0), iv(15, 0, 18, 0)},
		},
		{
			name:    "no busy returns windows",
			windows: []Interval{iv(10, 0, 12, 0)},
			busy:    nil,
			want:    []Interval{iv(10, 0, 12, 0)},
		},
		{
			name:    "busy covers whole window",
			windows: []Interval{iv(10, 0, 12, 0)},
			busy:    []Interval{iv(9, 0, 13, 0)},
			want:    nil,
		},
		{
			name:    "busy overhangs window start",
			windows: []Interval{iv(10, 0, 12, 0)},
			busy:    []Interval{iv(9, 0, 10, 30)},
			want:    []Interval{iv(10, 30, 12, 0)},
		},
		{
			name:    "busy overhangs window end",
			windows: []Interval{iv(10, 0, 12, 0)},
			busy:    []Interval{iv(11, 30, 13, 0)},
			want:    []Interval{iv(10, 0, 11, 30)},
		},
		{
			name:    "multiple windows and busy",
			windows: []Interval{iv(9, 0, 12, 0), iv(13, 0, 17, 0)},
			busy:    []Interval{iv(10, 0, 10, 30), iv(13, 0, 14, 0), iv(16, 0, 18, 0)},
			want: []Interval{
				iv(9, 0, 10, 0), iv(10, 30, 12, 0),
				iv(14, 0, 16, 0),
			},
		},
		{
			name:    "busy touching window edge leaves window intact",
			windows: []Interval{iv(10, 0, 12, 0)},
			busy:    []Interval{iv(8, 0, 10, 0), iv(12, 0, 13, 0)},
			want:    []Interval{iv(10, 0, 12, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtract(tt.windows, tt.busy)
			assertIntervals(t, got, tt.want)
		})
	}
}

func assertIntervals(t *testing.T, got, want []Interval) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d intervals, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Errorf("interval %d: got [%v, %v), want [%v, %v)",
				i, got[i].Start, got[i].End, want[i].Start, want[i].End)
		}
	}
}
