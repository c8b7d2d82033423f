package project

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/config"
	"github.com/kikiluvv/reelcore/internal/easing"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/provider"
	"github.com/kikiluvv/reelcore/internal/timeline"
	"github.com/kikiluvv/reelcore/internal/transition"
	"github.com/kikiluvv/reelcore/pkg/util"
)

// Settings are the render settings a project is built against. Project
// fields override them.
type Settings struct {
	RenderSize image.Point
	FPS        util.FrameRate
	Background string
	Policy     timeline.Policy
}

// SettingsFromConfig derives build settings from the application config.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	policy, err := timeline.ParsePolicy(cfg.Render.TransitionPolicy)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		RenderSize: image.Pt(cfg.Render.Width, cfg.Render.Height),
		FPS:        cfg.Render.FPS,
		Background: cfg.Render.Background,
		Policy:     policy,
	}, nil
}

// Resolver opens file sources. A nil Decoder rejects every file source.
type Resolver struct {
	Decoder provider.FrameDecoder
}

func (r Resolver) open(ctx context.Context, path string) (*provider.VideoFileResource, error) {
	if r.Decoder == nil {
		return nil, fmt.Errorf("cannot open %s: no media decoder available", path)
	}
	return provider.OpenVideo(ctx, r.Decoder, path)
}

// Build resolves every source and returns a timeline whose main channel
// start times are already propagated. Each clip joins both main channels.
func (p *Project) Build(ctx context.Context, r Resolver, s Settings) (*timeline.Timeline, error) {
	tl := &timeline.Timeline{RenderSize: s.RenderSize}
	if p.Width > 0 && p.Height > 0 {
		tl.RenderSize = image.Pt(p.Width, p.Height)
	}
	fps := s.FPS
	if !p.FPS.IsZero() {
		fps = p.FPS
	}
	tl.FrameDuration = FrameDuration(fps)

	bg := s.Background
	if p.Background != "" {
		bg = p.Background
	}
	if bg != "" {
		c, err := config.ParseColor(bg)
		if err != nil {
			return nil, err
		}
		tl.Background = c
	}

	if p.Filter != "" {
		e, ok := provider.EffectByName(p.Filter)
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", p.Filter)
		}
		tl.PassThrough = e
	}

	for i, c := range p.Clips {
		item, err := p.buildClip(ctx, r, c)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		tl.VideoChannel = append(tl.VideoChannel, item)
		tl.AudioChannel = append(tl.AudioChannel, item)
	}

	for i, o := range p.Overlays {
		item, err := p.buildOverlay(ctx, r, o, tl.RenderSize)
		if err != nil {
			return nil, fmt.Errorf("overlay %d: %w", i, err)
		}
		tl.Overlays = append(tl.Overlays, item)
	}

	for i, a := range p.Audios {
		item, err := p.buildAudio(ctx, r, a)
		if err != nil {
			return nil, fmt.Errorf("audio %d: %w", i, err)
		}
		tl.Audios = append(tl.Audios, item)
	}

	if err := timeline.ReloadVideoStartTime(tl.VideoChannel, s.Policy); err != nil {
		return nil, err
	}
	if err := timeline.ReloadAudioStartTime(tl.AudioChannel, s.Policy); err != nil {
		return nil, err
	}
	return tl, nil
}

func (p *Project) resource(ctx context.Context, r Resolver, src Source, length mediatime.Time) (provider.Resource, error) {
	switch {
	case src.File != "":
		return r.open(ctx, util.ResolvePath(p.dir, src.File))
	case src.Image != "":
		return provider.LoadImage(util.ResolvePath(p.dir, src.Image), length)
	default:
		c, err := config.ParseColor(src.Color)
		if err != nil {
			return nil, err
		}
		return provider.NewColorResource(c, length), nil
	}
}

func (p *Project) buildClip(ctx context.Context, r Resolver, c Clip) (*provider.TrackItem, error) {
	res, err := p.resource(ctx, r, c.Source, c.In.Time().Add(c.Duration.Time()))
	if err != nil {
		return nil, err
	}

	item := provider.NewTrackItem(res)
	item.SelectedRange, err = selectRange(res.Duration(), c.In, c.Duration)
	if err != nil {
		return nil, err
	}
	if c.Speed > 0 {
		item.Speed = c.Speed
	}
	if c.Volume != nil {
		item.Audio.Volume = *c.Volume
	}
	if c.Opacity != nil {
		item.Video.Opacity = *c.Opacity
	}
	if item.Video.ContentMode, err = parseContentMode(c.ContentMode); err != nil {
		return nil, err
	}
	if c.Filter != "" {
		e, ok := provider.EffectByName(c.Filter)
		if !ok {
			return nil, fmt.Errorf("unknown filter %q", c.Filter)
		}
		item.Video.Filter = e
	}

	if t := c.Transition; t != nil {
		withAudio := t.Audio == nil || *t.Audio
		item.Transition, err = transition.ByName(t.Name, t.Duration.Time(), withAudio)
		if err != nil {
			return nil, err
		}
	}
	return item, nil
}

func (p *Project) buildOverlay(ctx context.Context, r Resolver, o Overlay, renderSize image.Point) (*provider.ImageOverlayItem, error) {
	res, err := p.resource(ctx, r, o.Source, o.Duration.Time())
	if err != nil {
		return nil, err
	}

	frame := image.Rectangle{Max: renderSize}
	if len(o.Frame) == 4 {
		frame = image.Rect(o.Frame[0], o.Frame[1], o.Frame[0]+o.Frame[2], o.Frame[1]+o.Frame[3])
	}
	item := provider.NewImageOverlayItem(res, mediatime.NewRange(o.Start.Time(), o.Duration.Time()), frame)
	if o.Opacity != nil {
		item.Video.Opacity = *o.Opacity
	}

	for i, k := range o.Keyframes {
		timing, err := easing.ByName(k.Easing)
		if err != nil {
			return nil, fmt.Errorf("keyframe %d: %w", i, err)
		}
		kf := provider.Keyframe{
			Time:      k.At.Time(),
			Transform: provider.Transform{Scale: k.Scale, TranslateX: k.X, TranslateY: k.Y},
			Opacity:   item.Video.Opacity,
			Timing:    timing,
		}
		if kf.Transform.Scale == 0 {
			kf.Transform.Scale = 1
		}
		if k.Opacity != nil {
			kf.Opacity = *k.Opacity
		}
		item.Video.Keyframes = append(item.Video.Keyframes, kf)
	}
	// Interpolation walks keyframes in time order; documents may list them in any order.
	kfs := item.Video.Keyframes
	sort.SliceStable(kfs, func(i, j int) bool { return kfs[i].Time.Before(kfs[j].Time) })
	return item, nil
}

func (p *Project) buildAudio(ctx context.Context, r Resolver, a Audio) (*provider.TrackItem, error) {
	res, err := r.open(ctx, util.ResolvePath(p.dir, a.File))
	if err != nil {
		return nil, err
	}
	if res.AudioTrackCount() == 0 {
		return nil, fmt.Errorf("%s has no audio stream", a.File)
	}

	item := provider.NewTrackItem(res)
	if item.SelectedRange, err = selectRange(res.Duration(), a.In, a.Duration); err != nil {
		return nil, err
	}
	item.StartTime = a.Start.Time()
	if a.Volume != nil {
		item.Audio.Volume = *a.Volume
	}

	rng := item.TimeRange()
	if a.FadeIn > 0 {
		item.Audio.Nodes = append(item.Audio.Nodes, &audiomix.VolumeNode{
			Range:       mediatime.NewRange(rng.Start, mediatime.Min(a.FadeIn.Time(), rng.Duration)),
			StartVolume: 0,
			EndVolume:   1,
			Timing:      easing.QuadraticEaseIn,
		})
	}
	if a.FadeOut > 0 {
		d := mediatime.Min(a.FadeOut.Time(), rng.Duration)
		item.Audio.Nodes = append(item.Audio.Nodes, &audiomix.VolumeNode{
			Range:       mediatime.NewRange(rng.End().Sub(d), d),
			StartVolume: 1,
			EndVolume:   0,
			Timing:      easing.QuadraticEaseOut,
		})
	}
	return item, nil
}

// FrameDuration is the exact duration of one frame at rate, zero when the
// rate is unset. Rates whose numerator exceeds the timescale range fall
// back to microseconds.
func FrameDuration(rate util.FrameRate) mediatime.Time {
	switch {
	case rate.IsZero():
		return mediatime.Zero
	case rate.Num <= math.MaxInt32:
		return mediatime.New(rate.Den, int32(rate.Num))
	}
	return mediatime.FromSeconds(1/rate.Float(), 1_000_000)
}

// selectRange picks [in, in+duration) of a source lasting total. A zero
// duration selects to the end.
func selectRange(total mediatime.Time, in, duration Timestamp) (mediatime.Range, error) {
	start := in.Time()
	if !start.Before(total) {
		return mediatime.Range{}, fmt.Errorf("in point %s is past the end (%s)", start, total)
	}
	d := total.Sub(start)
	if duration > 0 {
		d = mediatime.Min(d, duration.Time())
	}
	return mediatime.NewRange(start, d), nil
}

func parseContentMode(s string) (provider.ContentMode, error) {
	switch strings.ToLower(s) {
	case "", "fit", "aspect-fit":
		return provider.AspectFit, nil
	case "fill", "aspect-fill":
		return provider.AspectFill, nil
	}
	return provider.AspectFit, fmt.Errorf("unknown content mode %q", s)
}
