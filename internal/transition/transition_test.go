package transition

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

var size = image.Pt(4, 2)

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rectangle{Max: size})
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func red(img image.Image, x, y int) uint8 {
	r, _, _, _ := img.At(x, y).RGBA()
	return uint8(r >> 8)
}

func blue(img image.Image, x, y int) uint8 {
	_, _, b, _ := img.At(x, y).RGBA()
	return uint8(b >> 8)
}

var (
	fg = solid(color.RGBA{R: 255, A: 255})
	bg = solid(color.RGBA{B: 255, A: 255})
)

func TestCrossDissolve(t *testing.T) {
	start := CrossDissolve{}.Render(fg, bg, 0, size)
	assert.Equal(t, uint8(0), red(start, 0, 0))
	assert.Equal(t, uint8(255), blue(start, 0, 0))

	end := CrossDissolve{}.Render(fg, bg, 1, size)
	assert.Equal(t, uint8(255), red(end, 0, 0))
	assert.Equal(t, uint8(0), blue(end, 0, 0))

	mid := CrossDissolve{}.Render(fg, bg, 0.5, size)
	assert.InDelta(t, 128, int(red(mid, 0, 0)), 2)
}

func TestFadeGoesThroughBlack(t *testing.T) {
	mid := Fade{}.Render(fg, bg, 0.5, size)
	assert.Equal(t, uint8(0), red(mid, 1, 1))
	assert.Equal(t, uint8(0), blue(mid, 1, 1))

	early := Fade{}.Render(fg, bg, 0, size)
	assert.Equal(t, uint8(255), blue(early, 1, 1))

	late := Fade{}.Render(fg, bg, 1, size)
	assert.Equal(t, uint8(255), red(late, 1, 1))
}

func TestPushSlidesForegroundIn(t *testing.T) {
	half := Push{}.Render(fg, bg, 0.5, size)
	assert.Equal(t, uint8(255), blue(half, 0, 0))
	assert.Equal(t, uint8(255), red(half, 3, 0))

	done := Push{}.Render(fg, bg, 1, size)
	assert.Equal(t, uint8(255), red(done, 0, 0))
}

func TestPassthroughDrawsForeground(t *testing.T) {
	out := Passthrough{}.Render(fg, bg, 0.2, size)
	assert.Equal(t, uint8(255), red(out, 2, 1))
}

func TestFadeInOutAudio(t *testing.T) {
	clip := mediatime.Seconds(0, 10)
	d := mediatime.FromSeconds(2, 600)

	out, ok := FadeInOutAudio{}.Previous(clip, d).(*audiomix.VolumeNode)
	require.True(t, ok)
	assert.True(t, out.Range.Equal(mediatime.Seconds(8, 2)))
	assert.Equal(t, 1.0, out.StartVolume)
	assert.Equal(t, 0.0, out.EndVolume)

	in, ok := FadeInOutAudio{}.Next(clip, d).(*audiomix.VolumeNode)
	require.True(t, ok)
	assert.True(t, in.Range.Equal(mediatime.Seconds(0, 2)))
	assert.Equal(t, 0.0, in.StartVolume)

	assert.Nil(t, FadeInOutAudio{}.Next(clip, mediatime.Zero))
}

func TestByName(t *testing.T) {
	tr, err := ByName("Dissolve", mediatime.FromSeconds(1, 600), true)
	require.NoError(t, err)
	assert.IsType(t, CrossDissolve{}, tr.Video)
	assert.NotNil(t, tr.Audio)

	tr, err = ByName("push", mediatime.FromSeconds(1, 600), false)
	require.NoError(t, err)
	assert.Nil(t, tr.Audio)

	_, err = ByName("spin", mediatime.Zero, false)
	assert.True(t, errors.Is(err, ErrUnknownTransition))
}
