package provider

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// GrayscaleEffect desaturates the composited frame. It is the stock global
// pass-through effect.
type GrayscaleEffect struct{}

func (GrayscaleEffect) ApplyEffect(img image.Image, _ mediatime.Time, _ image.Point) image.Image {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	out := image.NewRGBA(b)
	draw.Draw(out, b, gray, b.Min, draw.Src)
	return out
}

// TintEffect mixes Color into every pixel by Amount in [0,1].
type TintEffect struct {
	Color  color.Color
	Amount float64
}

func (e TintEffect) ApplyEffect(img image.Image, _ mediatime.Time, _ image.Point) image.Image {
	if img == nil || e.Amount <= 0 {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	a := uint8(e.Amount * 255)
	if e.Amount >= 1 {
		a = 255
	}
	draw.DrawMask(out, b, image.NewUniform(e.Color), image.Point{}, image.NewUniform(color.Alpha{A: a}), image.Point{}, draw.Over)
	return out
}

// EffectByName resolves a named pass-through effect. The empty name yields
// nil.
func EffectByName(name string) (VideoEffect, bool) {
	switch name {
	case "":
		return nil, true
	case "grayscale", "mono":
		return GrayscaleEffect{}, true
	case "sepia":
		return TintEffect{Color: color.RGBA{R: 112, G: 66, B: 20, A: 255}, Amount: 0.35}, true
	}
	return nil, false
}
