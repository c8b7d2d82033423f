package ffmpeg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kikiluvv/reelcore/pkg/util"
)

// EncodeOptions configures encoding a rendered frame sequence.
type EncodeOptions struct {
	// Pattern is an image2 input pattern such as frames/%06d.png.
	Pattern      string
	Rate         util.FrameRate
	Audio        string
	Output       string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// EncodeFrames muxes a numbered PNG sequence and an optional audio file
// into Output.
func (e *Executor) EncodeFrames(ctx context.Context, opts EncodeOptions) error {
	if err := validateEncodeOptions(opts); err != nil {
		return fmt.Errorf("invalid encode options: %w", err)
	}

	e.logger.Info().
		Str("pattern", opts.Pattern).
		Str("audio", opts.Audio).
		Str("output", opts.Output).
		Str("rate", opts.Rate.String()).
		Msg("starting encode")

	args := []string{
		"-framerate", opts.Rate.String(),
		"-i", opts.Pattern,
	}
	if opts.Audio != "" {
		args = append(args, "-i", opts.Audio, "-c:a", DefaultAudioCodec, "-shortest")
	}

	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-vf", FilterChain{}.EvenDimensions().PixelFormat("yuv420p").String(),
		"-crf", strconv.Itoa(crf),
		"-preset", preset,
		opts.Output,
	)

	err := e.Run(ctx, RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("encode output")
		},
	})
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("encode completed")
	return nil
}

func validateEncodeOptions(opts EncodeOptions) error {
	if opts.Pattern == "" {
		return fmt.Errorf("frame pattern is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.Rate.IsZero() {
		return fmt.Errorf("frame rate must be positive")
	}
	return nil
}
