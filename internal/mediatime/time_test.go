package mediatime

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareLongTimelinesOnMixedScales(t *testing.T) {
	late := FromDuration(2 * time.Hour).Add(New(1, 44100))
	early := FromDuration(time.Second).Add(FromSeconds(0, DefaultScale))

	require.Equal(t, int32(441_000_000), late.Scale)
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, -1, late.Neg().Compare(early))
	assert.True(t, late.Equal(late.Convert(441_000_000)))
	assert.InDelta(t, 7200.0, late.Ratio(New(1, 1)), 1e-3)
	assert.Equal(t, 2*time.Hour+22675*time.Nanosecond, late.Duration())
}

func TestRangesDeepIntoTimeline(t *testing.T) {
	fade := NewRange(FromDuration(time.Second), FromDuration(2*time.Second))
	buf := NewRange(
		FromDuration(7201*time.Second).Add(New(0, 44100)),
		New(1024, 44100),
	)

	assert.False(t, fade.Overlaps(buf))
	assert.True(t, fade.Intersection(buf).IsEmpty())
	assert.False(t, fade.ContainsTime(buf.Start))
	assert.True(t, buf.ContainsTime(buf.Start))
}

func TestAddWithoutCommonScale(t *testing.T) {
	a := New(1, math.MaxInt32)
	b := New(1, math.MaxInt32-1)

	sum := a.Add(b)
	assert.Equal(t, int32(math.MaxInt32), sum.Scale)
	assert.InDelta(t, a.Seconds()+b.Seconds(), sum.Seconds(), 1e-9)

	big := New(math.MaxInt64/2, 1).Add(New(math.MaxInt64/2, 1))
	assert.Equal(t, int64(math.MaxInt64-1), big.Value)
	assert.True(t, big.After(New(math.MaxInt64/2, 1)))
}

func TestConvertLargeValues(t *testing.T) {
	tests := []struct {
		name  string
		in    Time
		scale int32
		want  int64
	}{
		{"hours at audio rate", FromDuration(3 * time.Hour), 44100, 3 * 3600 * 44100},
		{"round half up", New(5, 10), 1, 1},
		{"round half away from zero", New(-5, 10), 1, -1},
		{"saturates", New(math.MaxInt64, 1), 1000, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Convert(tt.scale).Value)
		})
	}
}
