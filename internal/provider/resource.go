package provider

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/kikiluvv/reelcore/internal/ffmpeg"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Resource is the media behind a provider. Frame receives the render size;
// sources with an intrinsic size return frames at that size instead and
// leave placement to the provider's content mode.
type Resource interface {
	Name() string
	Duration() mediatime.Time
	VideoTrackCount() int
	AudioTrackCount() int
	Frame(ctx context.Context, at mediatime.Time, size image.Point) (image.Image, error)
}

// ColorResource is a solid color of arbitrary length.
type ColorResource struct {
	Color  color.Color
	Length mediatime.Time
}

func NewColorResource(c color.Color, length mediatime.Time) *ColorResource {
	return &ColorResource{Color: c, Length: length}
}

func (r *ColorResource) Name() string {
	cr, cg, cb, ca := r.Color.RGBA()
	return fmt.Sprintf("color(#%02x%02x%02x%02x)", cr>>8, cg>>8, cb>>8, ca>>8)
}

func (r *ColorResource) Duration() mediatime.Time { return r.Length }
func (r *ColorResource) VideoTrackCount() int     { return 1 }
func (r *ColorResource) AudioTrackCount() int     { return 0 }

func (r *ColorResource) Frame(_ context.Context, _ mediatime.Time, size image.Point) (image.Image, error) {
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Color), image.Point{}, draw.Src)
	return img, nil
}

// ImageResource is a still image shown for Length.
type ImageResource struct {
	Path   string
	Length mediatime.Time
	image  image.Image
}

// LoadImage decodes a PNG or JPEG still from path.
func LoadImage(path string, length mediatime.Time) (*ImageResource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return NewImageResource(path, img, length), nil
}

// NewImageResource wraps an already decoded image.
func NewImageResource(name string, img image.Image, length mediatime.Time) *ImageResource {
	return &ImageResource{Path: name, Length: length, image: img}
}

func (r *ImageResource) Name() string             { return r.Path }
func (r *ImageResource) Duration() mediatime.Time { return r.Length }
func (r *ImageResource) VideoTrackCount() int     { return 1 }
func (r *ImageResource) AudioTrackCount() int     { return 0 }

// Frame returns the still at its natural size.
func (r *ImageResource) Frame(context.Context, mediatime.Time, image.Point) (image.Image, error) {
	return r.image, nil
}

// FrameDecoder decodes single frames out of media files.
type FrameDecoder interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	DecodeFrame(ctx context.Context, path string, at mediatime.Time, size image.Point) (image.Image, error)
}

// VideoFileResource is a media file decoded on demand through ffmpeg.
type VideoFileResource struct {
	Path    string
	info    *ffmpeg.VideoInfo
	decoder FrameDecoder
}

// OpenVideo probes path and returns a resource backed by decoder.
func OpenVideo(ctx context.Context, decoder FrameDecoder, path string) (*VideoFileResource, error) {
	info, err := decoder.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}
	return &VideoFileResource{Path: path, info: info, decoder: decoder}, nil
}

func (r *VideoFileResource) Name() string { return r.Path }

func (r *VideoFileResource) Duration() mediatime.Time {
	return mediatime.FromDuration(r.info.Duration)
}

func (r *VideoFileResource) VideoTrackCount() int {
	if r.info.Width == 0 {
		return 0
	}
	return 1
}

func (r *VideoFileResource) AudioTrackCount() int {
	if r.info.HasAudio {
		return 1
	}
	return 0
}

// PreferredTransform is the container's display rotation in degrees.
func (r *VideoFileResource) PreferredTransform() int {
	return r.info.Rotation
}

// NaturalSize is the coded frame size.
func (r *VideoFileResource) NaturalSize() image.Point {
	return image.Pt(r.info.Width, r.info.Height)
}

func (r *VideoFileResource) Frame(ctx context.Context, at mediatime.Time, _ image.Point) (image.Image, error) {
	return r.decoder.DecodeFrame(ctx, r.Path, at, r.NaturalSize())
}
