package composition

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

type stubMedia struct {
	name string
	last mediatime.Time
}

func (m *stubMedia) Name() string { return m.name }

func (m *stubMedia) Frame(_ context.Context, at mediatime.Time, size image.Point) (image.Image, error) {
	m.last = at
	return image.NewRGBA(image.Rectangle{Max: size}), nil
}

func TestAddTrack(t *testing.T) {
	l := NewLayout(WithTrackLimit(2))

	id, err := l.AddTrack(Video, 1001)
	require.NoError(t, err)
	assert.Equal(t, int32(1001), id)

	again, err := l.AddTrack(Video, 1001)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = l.AddTrack(Audio, 1001)
	assert.Error(t, err)

	auto, err := l.AddTrack(Audio, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), auto)

	_, err = l.AddTrack(Video, 7)
	assert.True(t, errors.Is(err, ErrTrackLimit))
	assert.Len(t, l.Tracks(), 2)
}

func TestInsertRejectsOverlap(t *testing.T) {
	l := NewLayout()
	id, _ := l.AddTrack(Video, 1)
	m := &stubMedia{name: "a"}

	require.NoError(t, l.Insert(id, m, mediatime.Seconds(0, 5), mediatime.Zero))
	require.NoError(t, l.Insert(id, m, mediatime.Seconds(0, 5), mediatime.FromSeconds(5, 600)))
	assert.Error(t, l.Insert(id, m, mediatime.Seconds(0, 2), mediatime.FromSeconds(4, 600)))
	assert.Error(t, l.Insert(99, m, mediatime.Seconds(0, 1), mediatime.Zero))
}

func TestScaleRangeAndSourceFrame(t *testing.T) {
	l := NewLayout()
	id, _ := l.AddTrack(Video, 1)
	m := &stubMedia{name: "clip"}

	require.NoError(t, l.Insert(id, m, mediatime.Seconds(10, 4), mediatime.FromSeconds(2, 600)))
	require.NoError(t, l.ScaleRange(id, mediatime.Seconds(2, 4), mediatime.FromSeconds(2, 600)))

	seg, ok := l.SegmentAt(id, mediatime.FromSeconds(3, 600))
	require.True(t, ok)
	assert.True(t, seg.TimelineRange.Equal(mediatime.Seconds(2, 2)))

	_, err := l.SourceFrame(context.Background(), id, mediatime.FromSeconds(3, 600), image.Pt(2, 2))
	require.NoError(t, err)
	assert.InDelta(t, 12.0, m.last.Seconds(), 1e-9)

	_, err = l.SourceFrame(context.Background(), id, mediatime.FromSeconds(5, 600), image.Pt(2, 2))
	assert.True(t, errors.Is(err, ErrNoSourceFrame))

	assert.InDelta(t, 4.0, l.Duration().Seconds(), 1e-9)
}
