package transition

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/kikiluvv/reelcore/internal/easing"
)

// Passthrough draws the foreground over the background unchanged.
type Passthrough struct{}

func (Passthrough) Render(fg, bg image.Image, _ float64, size image.Point) image.Image {
	dst := canvas(size)
	drawAlpha(dst, bg, image.Point{}, 1)
	drawAlpha(dst, fg, image.Point{}, 1)
	return dst
}

// CrossDissolve fades the foreground in over the background.
type CrossDissolve struct{}

func (CrossDissolve) Render(fg, bg image.Image, tween float64, size image.Point) image.Image {
	dst := canvas(size)
	drawAlpha(dst, bg, image.Point{}, 1)
	drawAlpha(dst, fg, image.Point{}, easing.Clamp(tween))
	return dst
}

// Fade dips to black: the background fades out during the first half and
// the foreground fades in during the second.
type Fade struct{}

func (Fade) Render(fg, bg image.Image, tween float64, size image.Point) image.Image {
	dst := canvas(size)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	tween = easing.Clamp(tween)
	if a := math.Max(0, (0.5-tween)*2); a > 0 {
		drawAlpha(dst, bg, image.Point{}, a)
	}
	if a := math.Max(0, (tween-0.5)*2); a > 0 {
		drawAlpha(dst, fg, image.Point{}, a)
	}
	return dst
}

// Push slides the foreground in from the right, pushing the background out
// to the left.
type Push struct{}

func (Push) Render(fg, bg image.Image, tween float64, size image.Point) image.Image {
	dst := canvas(size)
	offset := int(math.Round(easing.QuadraticEaseInOut(easing.Clamp(tween)) * float64(size.X)))
	drawAlpha(dst, bg, image.Pt(-offset, 0), 1)
	drawAlpha(dst, fg, image.Pt(size.X-offset, 0), 1)
	return dst
}

func canvas(size image.Point) *image.RGBA {
	return image.NewRGBA(image.Rectangle{Max: size})
}

// drawAlpha composites src over dst at offset with a uniform opacity.
func drawAlpha(dst draw.Image, src image.Image, offset image.Point, alpha float64) {
	if src == nil || alpha <= 0 {
		return
	}
	r := src.Bounds().Sub(src.Bounds().Min).Add(offset).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	sp := src.Bounds().Min.Add(r.Min.Sub(offset))
	if alpha >= 1 {
		draw.Draw(dst, r, src, sp, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(alpha * 255))})
	draw.DrawMask(dst, r, src, sp, mask, image.Point{}, draw.Over)
}
