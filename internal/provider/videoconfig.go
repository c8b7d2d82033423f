package provider

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/nfnt/resize"

	"github.com/kikiluvv/reelcore/internal/easing"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// ContentMode places a source frame inside the render area.
type ContentMode int

const (
	AspectFit ContentMode = iota
	AspectFill
	Custom
)

// Transform scales a placed frame around its center, then offsets it by
// TranslateX, TranslateY pixels.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

var IdentityTransform = Transform{Scale: 1}

func (t Transform) lerp(to Transform, p float64) Transform {
	return Transform{
		Scale:      t.Scale + (to.Scale-t.Scale)*p,
		TranslateX: t.TranslateX + (to.TranslateX-t.TranslateX)*p,
		TranslateY: t.TranslateY + (to.TranslateY-t.TranslateY)*p,
	}
}

// Keyframe pins a transform and opacity at Time, relative to the
// provider's start. Timing eases the segment arriving at this keyframe.
type Keyframe struct {
	Time      mediatime.Time
	Transform Transform
	Opacity   float64
	Timing    easing.Func
}

// VideoConfiguration controls how a provider draws its frames.
type VideoConfiguration struct {
	ContentMode ContentMode
	Frame       image.Rectangle
	Transform   Transform
	Opacity     float64
	Keyframes   []Keyframe
	// Filter runs on the source frame before placement.
	Filter VideoEffect
}

func DefaultVideoConfiguration() VideoConfiguration {
	return VideoConfiguration{ContentMode: AspectFit, Transform: IdentityTransform, Opacity: 1}
}

func (c VideoConfiguration) Clone() VideoConfiguration {
	c.Keyframes = append([]Keyframe(nil), c.Keyframes...)
	return c
}

// state resolves transform and opacity at rel, an offset from the
// provider's start.
func (c VideoConfiguration) state(rel mediatime.Time) (Transform, float64) {
	if len(c.Keyframes) == 0 {
		return c.Transform, c.Opacity
	}
	for i, kf := range c.Keyframes {
		if rel.After(kf.Time) {
			continue
		}
		if i == 0 {
			return kf.Transform, kf.Opacity
		}
		from := c.Keyframes[i-1]
		p := math.Min(1, rel.Sub(from.Time).Ratio(kf.Time.Sub(from.Time)))
		if kf.Timing != nil {
			p = kf.Timing(p)
		}
		return from.Transform.lerp(kf.Transform, p), from.Opacity + (kf.Opacity-from.Opacity)*p
	}
	last := c.Keyframes[len(c.Keyframes)-1]
	return last.Transform, last.Opacity
}

// Apply draws img onto a transparent canvas of renderSize according to the
// content mode, the transform and opacity at rel.
func (c VideoConfiguration) Apply(img image.Image, rel mediatime.Time, renderSize image.Point) image.Image {
	if img == nil || renderSize.X <= 0 || renderSize.Y <= 0 {
		return img
	}
	if c.Filter != nil {
		img = c.Filter.ApplyEffect(img, rel, renderSize)
	}
	t, opacity := c.state(rel)
	if opacity <= 0 {
		return image.NewRGBA(image.Rectangle{Max: renderSize})
	}

	rect := transformRect(c.placement(img.Bounds().Size(), renderSize), t)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return image.NewRGBA(image.Rectangle{Max: renderSize})
	}

	src := img
	if img.Bounds().Size() != rect.Size() {
		src = resize.Resize(uint(rect.Dx()), uint(rect.Dy()), img, resize.Bilinear)
	}

	dst := image.NewRGBA(image.Rectangle{Max: renderSize})
	if opacity >= 1 {
		draw.Draw(dst, rect, src, src.Bounds().Min, draw.Over)
	} else {
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
		draw.DrawMask(dst, rect, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
	}
	return dst
}

func (c VideoConfiguration) placement(natural, render image.Point) image.Rectangle {
	if c.ContentMode == Custom {
		if c.Frame.Empty() {
			return image.Rectangle{Max: render}
		}
		return c.Frame
	}
	if natural.X <= 0 || natural.Y <= 0 {
		return image.Rectangle{Max: render}
	}

	sx := float64(render.X) / float64(natural.X)
	sy := float64(render.Y) / float64(natural.Y)
	s := math.Min(sx, sy)
	if c.ContentMode == AspectFill {
		s = math.Max(sx, sy)
	}
	w := int(math.Round(float64(natural.X) * s))
	h := int(math.Round(float64(natural.Y) * s))
	x := (render.X - w) / 2
	y := (render.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func transformRect(r image.Rectangle, t Transform) image.Rectangle {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	w := float64(r.Dx()) * scale
	h := float64(r.Dy()) * scale
	cx := float64(r.Min.X+r.Max.X)/2 + t.TranslateX
	cy := float64(r.Min.Y+r.Max.Y)/2 + t.TranslateY
	x0 := int(math.Round(cx - w/2))
	y0 := int(math.Round(cy - h/2))
	return image.Rect(x0, y0, x0+int(math.Round(w)), y0+int(math.Round(h)))
}
