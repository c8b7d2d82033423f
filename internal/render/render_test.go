package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/reelcore/internal/instruction"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/transition"
)

var (
	size  = image.Pt(4, 4)
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

type colorSource struct {
	colors map[int32]color.Color
	block  chan struct{}
}

func (s *colorSource) SourceFrame(ctx context.Context, id int32, _ mediatime.Time, sz image.Point) (image.Image, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c, ok := s.colors[id]
	if !ok {
		return nil, errors.New("no frame")
	}
	img := image.NewRGBA(image.Rectangle{Max: sz})
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

// quarter draws its frame into the top-left pixel only.
type quarter struct{}

func (quarter) ApplyEffect(img image.Image, _ mediatime.Time, sz image.Point) image.Image {
	out := image.NewRGBA(image.Rectangle{Max: sz})
	draw.Draw(out, image.Rect(0, 0, 1, 1), img, image.Point{}, draw.Src)
	return out
}

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func secs(s float64) mediatime.Time { return mediatime.FromSeconds(s, 600) }

func newEvaluator(buf *bytes.Buffer, src FrameSource) *Evaluator {
	return NewEvaluator(NewContext(zerolog.New(buf), size), src)
}

func transitionSlice(t *testing.T) *instruction.Slice {
	t.Helper()
	tr, err := transition.ByName("dissolve", secs(2), false)
	require.NoError(t, err)

	p := instruction.NewProgram([]*instruction.LayerInstruction{
		{TrackID: 1001, Range: mediatime.Seconds(0, 5), Transition: tr},
		{TrackID: 2001, Range: mediatime.Seconds(3, 5)},
	}, instruction.Options{MainTrackIDs: []int32{1001, 2001}})
	require.Len(t, p.Slices, 3)
	return p.Slices[1]
}

func TestTweenEndpoints(t *testing.T) {
	a := mediatime.Seconds(0, 5)
	b := mediatime.Seconds(3, 5)

	assert.InDelta(t, 0.0, Tween(a, b, secs(3)), 1e-9)
	assert.InDelta(t, 0.5, Tween(a, b, secs(4)), 1e-9)
	assert.InDelta(t, 1.0, Tween(a, b, a.End()), 1e-9)
	assert.InDelta(t, 1.0, Tween(a, b, secs(9)), 1e-9)
}

func TestTransitionBlendsEarlierEndingAsBackground(t *testing.T) {
	var logs bytes.Buffer
	e := newEvaluator(&logs, &colorSource{colors: map[int32]color.Color{1001: red, 2001: blue}})
	s := transitionSlice(t)

	start, err := e.Evaluate(context.Background(), s, secs(3))
	require.NoError(t, err)
	r, _, b := rgb(start, 0, 0)
	assert.Equal(t, uint8(255), r, "outgoing clip shows at the start of the window")
	assert.Equal(t, uint8(0), b)

	end, err := e.Evaluate(context.Background(), s, secs(4.999))
	require.NoError(t, err)
	r, _, b = rgb(end, 0, 0)
	assert.Less(t, r, uint8(5))
	assert.Greater(t, b, uint8(250))
}

func TestMissingSourceIsSkipped(t *testing.T) {
	var logs bytes.Buffer
	e := newEvaluator(&logs, &colorSource{colors: map[int32]color.Color{2001: blue}})

	out, err := e.Evaluate(context.Background(), transitionSlice(t), secs(4))
	require.NoError(t, err)
	_, _, b := rgb(out, 2, 2)
	assert.Equal(t, uint8(255), b)
	assert.Contains(t, logs.String(), "skipping layer without source frame")
}

func TestOverlaysStackInOrderOverMain(t *testing.T) {
	var logs bytes.Buffer
	e := newEvaluator(&logs, &colorSource{colors: map[int32]color.Color{1001: red, 1: green}})

	p := instruction.NewProgram([]*instruction.LayerInstruction{
		{TrackID: 1001, Range: mediatime.Seconds(0, 10)},
		{TrackID: 1, Range: mediatime.Seconds(2, 2), Effect: quarter{}},
	}, instruction.Options{MainTrackIDs: []int32{1001}, Background: blue})

	out, err := e.Evaluate(context.Background(), p.At(secs(3)), secs(3))
	require.NoError(t, err)

	r, g, _ := rgb(out, 0, 0)
	assert.Equal(t, uint8(0), r)
	assert.Equal(t, uint8(255), g)
	r, _, _ = rgb(out, 3, 3)
	assert.Equal(t, uint8(255), r)
}

func TestBackgroundAndPassThrough(t *testing.T) {
	var logs bytes.Buffer
	e := newEvaluator(&logs, &colorSource{})

	out, err := e.Evaluate(context.Background(), nil, secs(1))
	require.NoError(t, err)
	assert.Equal(t, image.Rectangle{Max: size}, out.Bounds())

	p := instruction.NewProgram([]*instruction.LayerInstruction{
		{TrackID: 9, Range: mediatime.Seconds(0, 1)},
	}, instruction.Options{Background: green, PassThrough: quarter{}})

	out, err = e.Evaluate(context.Background(), p.Slices[0], secs(0.5))
	require.NoError(t, err)
	_, g, _ := rgb(out, 0, 0)
	assert.Equal(t, uint8(255), g, "background shows through a missing layer")
	_, g, _ = rgb(out, 2, 2)
	assert.Equal(t, uint8(0), g, "pass-through runs last")
}

func TestCancelledContext(t *testing.T) {
	var logs bytes.Buffer
	e := newEvaluator(&logs, &colorSource{colors: map[int32]color.Color{1001: red, 2001: blue}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, transitionSlice(t), secs(4))
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestCompositorCancelAllPending(t *testing.T) {
	var logs bytes.Buffer
	src := &colorSource{colors: map[int32]color.Color{1001: red}, block: make(chan struct{})}
	p := instruction.NewProgram([]*instruction.LayerInstruction{
		{TrackID: 1001, Range: mediatime.Seconds(0, 10)},
	}, instruction.Options{MainTrackIDs: []int32{1001}})
	c := NewCompositor(NewContext(zerolog.New(&logs), size), p, src)

	const n = 3
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.NewRenderedFrame(context.Background(), secs(float64(i)))
			errs <- err
		}(i)
	}

	require.Eventually(t, func() bool { return c.Pending() == n }, time.Second, time.Millisecond)
	c.CancelAllPending()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.True(t, errors.Is(err, ErrCancelled), "got %v", err)
	}
	assert.Zero(t, c.Pending())
}

func TestCompositorRendersFrame(t *testing.T) {
	var logs bytes.Buffer
	p := instruction.NewProgram([]*instruction.LayerInstruction{
		{TrackID: 1001, Range: mediatime.Seconds(0, 10)},
	}, instruction.Options{MainTrackIDs: []int32{1001}})
	c := NewCompositor(NewContext(zerolog.New(&logs), size), p, &colorSource{colors: map[int32]color.Color{1001: red}})

	out, err := c.NewRenderedFrame(context.Background(), secs(5))
	require.NoError(t, err)
	r, _, _ := rgb(out, 1, 1)
	assert.Equal(t, uint8(255), r)
	assert.Zero(t, c.Pending())
}
