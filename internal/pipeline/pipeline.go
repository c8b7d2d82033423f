package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcore/internal/config"
	"github.com/kikiluvv/reelcore/internal/ffmpeg"
	"github.com/kikiluvv/reelcore/internal/generator"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/project"
	"github.com/kikiluvv/reelcore/internal/provider"
	"github.com/kikiluvv/reelcore/internal/render"
	"github.com/kikiluvv/reelcore/pkg/util"
)

// ErrNoFFmpeg is returned by operations that need ffmpeg when it was not
// found at startup.
var ErrNoFFmpeg = errors.New("ffmpeg is not available")

// Pipeline orchestrates building, rendering and exporting projects
type Pipeline struct {
	root     zerolog.Logger
	logger   zerolog.Logger
	config   *Config
	settings project.Settings
	ffmpeg   *ffmpeg.Executor
}

// New creates a new pipeline instance. A missing ffmpeg is not fatal:
// projects made of images and colors still plan and render.
func New(logger zerolog.Logger, cfg *Config, appCfg *config.Config) (*Pipeline, error) {
	if appCfg == nil {
		appCfg = config.Default()
	}
	if cfg == nil {
		cfg = &Config{
			Workers:    appCfg.Output.Workers,
			TrackLimit: appCfg.Render.TrackLimit,
			SampleRate: appCfg.Audio.SampleRate,
			CRF:        appCfg.FFmpeg.CRF,
			Preset:     appCfg.FFmpeg.Preset,
		}
	}

	settings, err := project.SettingsFromConfig(appCfg)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		root:     logger,
		logger:   logger.With().Str("component", "pipeline").Logger(),
		config:   cfg,
		settings: settings,
	}

	exec, err := ffmpeg.New(logger, appCfg.FFmpeg.BinaryPath, appCfg.FFmpeg.Threads)
	if err != nil {
		p.logger.Warn().Err(err).Msg("ffmpeg unavailable, file sources and export disabled")
	} else {
		p.ffmpeg = exec
	}
	return p, nil
}

// Settings returns the settings projects are built against.
func (p *Pipeline) Settings() project.Settings {
	return p.settings
}

// Plan resolves proj into a timeline and builds the layout, program and
// audio mix.
func (p *Pipeline) Plan(ctx context.Context, proj *project.Project) (*Plan, error) {
	if proj == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	var decoder provider.FrameDecoder
	if p.ffmpeg != nil {
		decoder = p.ffmpeg
	}

	tl, err := proj.Build(ctx, project.Resolver{Decoder: decoder}, p.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to build timeline: %w", err)
	}

	gen := generator.New(p.root, tl, generator.WithTrackLimit(p.config.TrackLimit))
	res, err := gen.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build composition: %w", err)
	}

	p.logger.Info().
		Str("project", proj.Name).
		Int("tracks", len(res.Layout.Tracks())).
		Int("slices", len(res.Program.Slices)).
		Int("audio_tracks", len(res.Mix.Parameters)).
		Float64("duration", res.Program.Duration().Seconds()).
		Msg("plan built")

	return &Plan{Project: proj, Timeline: tl, Generator: gen, Result: res}, nil
}

// RenderFrames composites each instant and writes it as a numbered PNG in
// outDir. The first failure cancels the remaining frames.
func (p *Pipeline) RenderFrames(ctx context.Context, plan *Plan, instants []mediatime.Time, outDir string) ([]Frame, error) {
	if len(instants) == 0 {
		return nil, nil
	}
	if err := util.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc := render.NewContext(p.root, plan.Program.RenderSize)
	comp := render.NewCompositor(rc, plan.Program, plan.Layout)

	pool := newWorkerPool(p.config.Workers)
	pool.start(ctx, func(ctx context.Context, f Frame) error {
		img, err := comp.NewRenderedFrame(ctx, f.At)
		if err != nil {
			return err
		}
		return writePNG(f.Path, img)
	})

	go func() {
		defer close(pool.jobs)
		for i, at := range instants {
			job := frameJob{Frame{Index: i, At: at, Path: util.FramePath(outDir, i)}}
			select {
			case pool.jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	go pool.wait()

	frames := make([]Frame, len(instants))
	var firstErr error
	for r := range pool.results {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("frame %d at %s: %w", r.Index, r.At, r.Err)
				cancel()
				comp.CancelAllPending()
			}
			continue
		}
		frames[r.Index] = r.Frame
		p.logger.Debug().Int("frame", r.Index).Str("path", r.Path).Msg("frame written")
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, fmt.Errorf("failed to render frames: %w", firstErr)
	}

	p.logger.Info().Int("frames", len(frames)).Str("dir", outDir).Msg("frames rendered")
	return frames, nil
}

// Export renders every frame of the program, mixes the audio tracks and
// encodes both into opts.OutputPath.
func (p *Pipeline) Export(ctx context.Context, plan *Plan, opts ExportOptions) (string, error) {
	if p.ffmpeg == nil {
		return "", ErrNoFFmpeg
	}
	if opts.OutputPath == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}

	step := plan.Program.FrameDuration
	instants := FrameInstants(plan.Program.Duration(), step)
	if len(instants) == 0 {
		return "", fmt.Errorf("project has no video to render")
	}

	dir := opts.FramesDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "reelcore-frames-*")
		if err != nil {
			return "", err
		}
		dir = tmp
	}
	if !opts.KeepFrames {
		defer os.RemoveAll(dir)
	}

	p.logger.Info().
		Str("project", plan.Project.Name).
		Int("frames", len(instants)).
		Str("output", opts.OutputPath).
		Msg("starting export")

	if _, err := p.RenderFrames(ctx, plan, instants, dir); err != nil {
		return "", err
	}

	audioPath := filepath.Join(dir, "mix.wav")
	hasAudio, err := p.MixAudio(ctx, plan, audioPath)
	if err != nil {
		return "", err
	}
	if !hasAudio {
		audioPath = ""
	}

	err = p.ffmpeg.EncodeFrames(ctx, ffmpeg.EncodeOptions{
		Pattern: filepath.Join(dir, util.FramePattern),
		Rate:    frameRate(step),
		Audio:   audioPath,
		Output:  opts.OutputPath,
		CRF:     p.config.CRF,
		Preset:  p.config.Preset,
		ProgressFunc: func(pr *ffmpeg.Progress) {
			p.logger.Debug().Int("frame", pr.Frame).Str("time", pr.Time).Msg("encoding")
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode: %w", err)
	}

	p.logger.Info().Str("output", opts.OutputPath).Msg("export complete")
	return opts.OutputPath, nil
}

// FrameInstants lists the frame times in [0, duration) every step. A
// non-positive step means 30 fps.
func FrameInstants(duration, step mediatime.Time) []mediatime.Time {
	step = frameStep(step)
	var out []mediatime.Time
	for i := int64(0); ; i++ {
		at := mediatime.New(step.Value*i, step.Scale)
		if !at.Before(duration) {
			return out
		}
		out = append(out, at)
	}
}

func frameStep(step mediatime.Time) mediatime.Time {
	if !step.IsPositive() {
		return mediatime.New(1, 30)
	}
	return step
}

// frameRate inverts a frame duration into the exact rate handed to the
// encoder.
func frameRate(step mediatime.Time) util.FrameRate {
	step = frameStep(step)
	return util.NewFrameRate(int64(step.Scale), step.Value)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
