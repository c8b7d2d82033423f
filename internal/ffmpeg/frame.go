package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// DecodeFrame extracts the frame shown at source time at as an image,
// scaled to size when size is non-zero. Display rotation is not applied.
func (e *Executor) DecodeFrame(ctx context.Context, path string, at mediatime.Time, size image.Point) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}

	args := []string{
		"-noautorotate",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 6, 64),
		"-i", path,
		"-frames:v", "1",
	}
	args = append(args, FilterChain{}.ScaleTo(size).args("-vf")...)
	args = append(args, "-f", "image2pipe", "-vcodec", "png", "pipe:1")

	var out bytes.Buffer
	err := e.Run(ctx, RunOptions{
		Args:   args,
		Stdout: &out,
		Quiet:  true,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("frame decode")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame at %.3fs: %w", at.Seconds(), err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("no frame at %.3fs in %s", at.Seconds(), path)
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode png frame: %w", err)
	}
	return img, nil
}
