package instruction

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

func layer(track int32, start, dur float64) *LayerInstruction {
	return &LayerInstruction{TrackID: track, Range: mediatime.Seconds(start, dur)}
}

func tracksOf(s *Slice) []int32 {
	ids := make([]int32, 0, len(s.Layers))
	for _, l := range s.Layers {
		ids = append(ids, l.TrackID)
	}
	return ids
}

func requireSlices(t *testing.T, got []*Slice, want []mediatime.Range, tracks [][]int32) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Truef(t, want[i].Equal(got[i].Range), "slice %d: want %v, got %v", i, want[i], got[i].Range)
		assert.ElementsMatchf(t, tracks[i], tracksOf(got[i]), "slice %d layers", i)
	}
}

func TestSingleClip(t *testing.T) {
	got := Slices([]*LayerInstruction{layer(1001, 0, 10)})
	requireSlices(t, got, []mediatime.Range{mediatime.Seconds(0, 10)}, [][]int32{{1001}})
}

func TestTwoClipsWithTransition(t *testing.T) {
	got := Slices([]*LayerInstruction{layer(1001, 0, 5), layer(2001, 3, 5)})
	requireSlices(t, got,
		[]mediatime.Range{mediatime.Seconds(0, 3), mediatime.Seconds(3, 2), mediatime.Seconds(5, 3)},
		[][]int32{{1001}, {1001, 2001}, {2001}},
	)
}

func TestClipWithOverlay(t *testing.T) {
	got := Slices([]*LayerInstruction{layer(1001, 0, 10), layer(1, 2, 2)})
	requireSlices(t, got,
		[]mediatime.Range{mediatime.Seconds(0, 2), mediatime.Seconds(2, 2), mediatime.Seconds(4, 6)},
		[][]int32{{1001}, {1001, 1}, {1001}},
	)
	assert.Equal(t, []int32{1001, 1}, tracksOf(got[1]), "overlay stacks after main")
}

func TestAdjacentClipsDoNotMerge(t *testing.T) {
	got := Slices([]*LayerInstruction{layer(1001, 0, 5), layer(2001, 5, 5)})
	requireSlices(t, got,
		[]mediatime.Range{mediatime.Seconds(0, 5), mediatime.Seconds(5, 5)},
		[][]int32{{1001}, {2001}},
	)
}

func TestGapIsNotCovered(t *testing.T) {
	got := Slices([]*LayerInstruction{layer(1, 0, 2), layer(2, 4, 2)})
	require.Len(t, got, 2)

	p := &Program{Slices: got}
	assert.Nil(t, p.At(mediatime.FromSeconds(3, 600)))
	assert.Equal(t, got[1], p.At(mediatime.FromSeconds(4, 600)))
	assert.Nil(t, p.At(mediatime.FromSeconds(6, 600)))
}

func TestNegativeDurationPanics(t *testing.T) {
	bad := &LayerInstruction{TrackID: 1, Range: mediatime.NewRange(mediatime.Zero, mediatime.New(-1, 600))}
	assert.Panics(t, func() { Slices([]*LayerInstruction{bad}) })
}

func TestSlicesPartitionRandomLayers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var layers []*LayerInstruction
		for i := 0; i < 2+rng.Intn(7); i++ {
			start := rng.Intn(20)
			dur := 1 + rng.Intn(10)
			layers = append(layers, &LayerInstruction{
				TrackID: int32(i + 1),
				Range:   mediatime.NewRange(mediatime.New(int64(start), 1), mediatime.New(int64(dur), 1)),
			})
		}

		slices := Slices(layers)

		var inputs, outputs []mediatime.Range
		for _, l := range layers {
			inputs = append(inputs, l.Range)
		}
		for i, s := range slices {
			outputs = append(outputs, s.Range)
			if i > 0 {
				require.False(t, slices[i-1].Range.End().After(s.Range.Start), "slices overlap")
			}
		}
		require.Equal(t, len(mediatime.Union(inputs)), len(mediatime.Union(outputs)))
		for i, u := range mediatime.Union(inputs) {
			require.True(t, u.Equal(mediatime.Union(outputs)[i]))
		}

		// every half-second probe sees exactly the layers containing it
		for half := int64(0); half < 62; half++ {
			at := mediatime.New(half, 2)
			var want []int32
			for _, l := range layers {
				if l.Range.ContainsTime(at) {
					want = append(want, l.TrackID)
				}
			}
			s := (&Program{Slices: slices}).At(at)
			if len(want) == 0 {
				require.Nil(t, s)
				continue
			}
			require.NotNil(t, s)
			require.ElementsMatch(t, want, tracksOf(s))
		}
	}
}

func TestNewProgramMarksMainTracks(t *testing.T) {
	effect := &recordingEffect{}
	p := NewProgram(
		[]*LayerInstruction{layer(1, 2, 2), layer(2001, 3, 5), layer(1001, 0, 5)},
		Options{MainTrackIDs: []int32{1001, 2001}, PassThrough: effect, RenderSize: image.Pt(4, 4)},
	)

	require.Len(t, p.Slices, 5)
	assert.Equal(t, []int32{1001}, p.Slices[0].MainTrackIDs)
	assert.ElementsMatch(t, []int32{1001, 2001}, p.Slices[2].MainTrackIDs)

	main, other := p.Slices[2].Partition()
	assert.Len(t, main, 2)
	require.Len(t, other, 1)
	assert.Equal(t, int32(1), other[0].TrackID)
	assert.Equal(t, effect, p.Slices[4].PassThrough)
	assert.NotNil(t, p.Slices[0].Background)
	assert.InDelta(t, 8.0, p.Duration().Seconds(), 1e-9)
}

func TestNewProgramIsDeterministic(t *testing.T) {
	layers := []*LayerInstruction{layer(1, 2, 2), layer(2001, 3, 5), layer(1001, 0, 5), layer(2, 1, 6)}
	opts := Options{MainTrackIDs: []int32{1001, 2001}}
	assert.Equal(t, NewProgram(layers, opts), NewProgram(layers, opts))
}

type recordingEffect struct{ calls int }

func (e *recordingEffect) ApplyEffect(img image.Image, _ mediatime.Time, _ image.Point) image.Image {
	e.calls++
	return img
}

func TestTransformRotate90(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Pix[3] = 255 // (0,0) opaque
	out := Rotate90.Apply(src)
	assert.Equal(t, image.Rect(0, 0, 1, 2), out.Bounds())
	_, _, _, a := out.At(0, 0).RGBA()
	assert.NotZero(t, a)

	assert.Equal(t, Rotate90, TransformFromDegrees(90))
	assert.Equal(t, Rotate270, TransformFromDegrees(-90))
	assert.Equal(t, Identity, TransformFromDegrees(360))
}
