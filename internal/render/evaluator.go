// Package render evaluates the video composition program frame by frame.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcore/internal/easing"
	"github.com/kikiluvv/reelcore/internal/instruction"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// ErrCancelled is returned when a frame request is abandoned.
var ErrCancelled = errors.New("frame request cancelled")

// FrameSource supplies the decoded source frame of a track at a timeline
// instant.
type FrameSource interface {
	SourceFrame(ctx context.Context, trackID int32, at mediatime.Time, size image.Point) (image.Image, error)
}

// Context is the process-wide rendering state passed into every
// compositing call.
type Context struct {
	RenderSize image.Point
	Logger     zerolog.Logger
}

// NewContext returns a rendering context for frames of size.
func NewContext(logger zerolog.Logger, size image.Point) *Context {
	return &Context{
		RenderSize: size,
		Logger:     logger.With().Str("component", "render").Logger(),
	}
}

// Evaluator composites one slice at one instant.
type Evaluator struct {
	rc  *Context
	src FrameSource
}

func NewEvaluator(rc *Context, src FrameSource) *Evaluator {
	return &Evaluator{rc: rc, src: src}
}

// Evaluate renders slice s at instant at onto a canvas filled with the
// slice background. Layers whose source frame cannot be read are skipped.
func (e *Evaluator) Evaluate(ctx context.Context, s *instruction.Slice, at mediatime.Time) (image.Image, error) {
	size := e.rc.RenderSize
	dst := image.NewRGBA(image.Rectangle{Max: size})
	bg := color.Color(color.Black)
	if s != nil && s.Background != nil {
		bg = s.Background
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	if s == nil {
		return dst, nil
	}

	main, other := s.Partition()

	if len(main) == 2 {
		a, b := main[0], main[1]
		if b.Range.End().Before(a.Range.End()) {
			a, b = b, a
		}

		imgA, err := e.layerImage(ctx, a, at)
		if err != nil {
			return nil, err
		}
		imgB, err := e.layerImage(ctx, b, at)
		if err != nil {
			return nil, err
		}

		var blended image.Image
		switch {
		case imgA != nil && imgB != nil:
			blended = imgA
			if a.Transition != nil && a.Transition.Video != nil {
				blended = a.Transition.Video.Render(imgB, imgA, Tween(a.Range, b.Range, at), size)
			}
		case imgA != nil:
			blended = imgA
		case imgB != nil:
			blended = imgB
		}
		over(dst, blended)
	} else {
		for _, l := range main {
			img, err := e.layerImage(ctx, l, at)
			if err != nil {
				return nil, err
			}
			over(dst, img)
		}
	}

	for _, l := range other {
		img, err := e.layerImage(ctx, l, at)
		if err != nil {
			return nil, err
		}
		over(dst, img)
	}

	if s.PassThrough != nil {
		if err := checkCancel(ctx); err != nil {
			return nil, err
		}
		return s.PassThrough.ApplyEffect(dst, at, size), nil
	}
	return dst, nil
}

// Tween is the transition progress at at through the overlap of the
// outgoing range a and the incoming range b, clamped to [0,1].
func Tween(a, b mediatime.Range, at mediatime.Time) float64 {
	inter := a.Intersection(b)
	if !inter.Duration.IsPositive() {
		return 0
	}
	return easing.Clamp(at.Sub(inter.Start).Ratio(inter.Duration))
}

// layerImage returns the effect-applied frame of l, or nil when the
// source is missing.
func (e *Evaluator) layerImage(ctx context.Context, l *instruction.LayerInstruction, at mediatime.Time) (image.Image, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	img, err := e.src.SourceFrame(ctx, l.TrackID, at, e.rc.RenderSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		e.rc.Logger.Warn().
			Err(err).
			Int32("track", l.TrackID).
			Float64("at", at.Seconds()).
			Msg("skipping layer without source frame")
		return nil, nil
	}

	img = l.Transform.Apply(img)
	if l.Effect != nil {
		img = l.Effect.ApplyEffect(img, at, e.rc.RenderSize)
	}
	return img, nil
}

func checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

func over(dst draw.Image, img image.Image) {
	if img == nil {
		return
	}
	draw.Draw(dst, img.Bounds(), img, img.Bounds().Min, draw.Over)
}
