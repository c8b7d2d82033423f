package instruction

import (
	"image"
	"image/draw"
)

// Transform is a source track's preferred orientation, in clockwise
// quarter turns.
type Transform int

const (
	Identity Transform = iota
	Rotate90
	Rotate180
	Rotate270
)

// TransformFromDegrees normalizes a rotation in degrees to a Transform.
func TransformFromDegrees(deg int) Transform {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return Transform((deg + 45) / 90 % 4)
}

// Apply rotates img. Identity returns img unchanged.
func (t Transform) Apply(img image.Image) image.Image {
	if t == Identity || img == nil {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if t == Rotate180 {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(x, y)
			switch t {
			case Rotate90:
				dst.SetRGBA(h-1-y, x, c)
			case Rotate180:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case Rotate270:
				dst.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return dst
}
