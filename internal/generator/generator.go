// Package generator turns a timeline into the three build artifacts: the
// track layout, the video composition program and the audio mix.
package generator

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcore/internal/allocator"
	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/composition"
	"github.com/kikiluvv/reelcore/internal/instruction"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/provider"
	"github.com/kikiluvv/reelcore/internal/timeline"
	"github.com/kikiluvv/reelcore/internal/transition"
)

// ErrNoTimeline is returned by Build before a timeline is set.
var ErrNoTimeline = errors.New("no timeline set")

// InvalidRangeError names a provider whose time range cannot be placed.
type InvalidRangeError struct {
	Channel string
	Index   int
	Range   mediatime.Range
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s provider %d has invalid time range %v", e.Channel, e.Index, e.Range)
}

// Result bundles the artifacts of one build.
type Result struct {
	Layout  *composition.Layout
	Program *instruction.Program
	Mix     *audiomix.Mix
}

// Option configures a Generator.
type Option func(*Generator)

// WithTrackLimit caps the tracks of the built layout.
func WithTrackLimit(n int) Option {
	return func(g *Generator) { g.trackLimit = n }
}

// placement is one provider track placed on the layout.
type placement struct {
	trackID int32
	rng     mediatime.Range
}

// Generator caches build artifacts until the timeline or a dependent
// setting changes. It is not safe for concurrent use.
type Generator struct {
	logger     zerolog.Logger
	timeline   *timeline.Timeline
	trackLimit int

	compositionDirty bool
	videoDirty       bool
	audioDirty       bool

	layout  *composition.Layout
	program *instruction.Program
	mix     *audiomix.Mix

	mainVideo  [][]placement
	mainAudio  [][]placement
	overlays   [][]placement
	freeAudio  [][]placement
	transforms map[int32]map[mediatime.Range]instruction.Transform
}

func New(logger zerolog.Logger, tl *timeline.Timeline, opts ...Option) *Generator {
	g := &Generator{
		logger: logger.With().Str("component", "generator").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.SetTimeline(tl)
	return g
}

// SetTimeline replaces the timeline and invalidates every artifact.
func (g *Generator) SetTimeline(tl *timeline.Timeline) {
	g.timeline = tl
	g.compositionDirty = true
	g.videoDirty = true
	g.audioDirty = true
}

// Invalidate marks every artifact dirty after an in-place timeline edit.
func (g *Generator) Invalidate() {
	g.SetTimeline(g.timeline)
}

// SetRenderSize changes the program's render size. Only the video
// program is rebuilt.
func (g *Generator) SetRenderSize(w, h int) {
	if g.timeline == nil {
		return
	}
	g.timeline.RenderSize.X = w
	g.timeline.RenderSize.Y = h
	g.videoDirty = true
}

// Build returns the layout, program and mix, rebuilding only the
// artifacts that are dirty.
func (g *Generator) Build() (*Result, error) {
	if g.timeline == nil {
		return nil, ErrNoTimeline
	}

	if g.compositionDirty {
		if err := g.validate(); err != nil {
			return nil, err
		}
		if err := g.buildComposition(); err != nil {
			return nil, err
		}
		g.compositionDirty = false
		g.videoDirty = true
		g.audioDirty = true
	}
	if g.videoDirty {
		g.buildProgram()
		g.videoDirty = false
	}
	if g.audioDirty {
		g.buildMix()
		g.audioDirty = false
	}

	return &Result{Layout: g.layout, Program: g.program, Mix: g.mix}, nil
}

// Layout builds if needed and returns the track layout.
func (g *Generator) Layout() (*composition.Layout, error) {
	r, err := g.Build()
	if err != nil {
		return nil, err
	}
	return r.Layout, nil
}

// Program builds if needed and returns the video composition program.
func (g *Generator) Program() (*instruction.Program, error) {
	r, err := g.Build()
	if err != nil {
		return nil, err
	}
	return r.Program, nil
}

// AudioMix builds if needed and returns the audio mix.
func (g *Generator) AudioMix() (*audiomix.Mix, error) {
	r, err := g.Build()
	if err != nil {
		return nil, err
	}
	return r.Mix, nil
}

// Transform returns the preferred transform recorded for the provider
// placed at rng on trackID.
func (g *Generator) Transform(trackID int32, rng mediatime.Range) instruction.Transform {
	return g.transforms[trackID][rng]
}

func (g *Generator) validate() error {
	check := func(channel string, i int, rng mediatime.Range) error {
		if !rng.Valid() || rng.Start.Value < 0 {
			return &InvalidRangeError{Channel: channel, Index: i, Range: rng}
		}
		return nil
	}
	tl := g.timeline
	for i, p := range tl.VideoChannel {
		if err := check("main video", i, p.TimeRange()); err != nil {
			return err
		}
	}
	for i, p := range tl.AudioChannel {
		if err := check("main audio", i, p.TimeRange()); err != nil {
			return err
		}
	}
	for i, p := range tl.Overlays {
		if err := check("overlay", i, p.TimeRange()); err != nil {
			return err
		}
	}
	for i, p := range tl.Audios {
		if err := check("audio", i, p.TimeRange()); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) buildComposition() error {
	tl := g.timeline
	var opts []composition.Option
	if g.trackLimit > 0 {
		opts = append(opts, composition.WithTrackLimit(g.trackLimit))
	}
	layout := composition.NewLayout(opts...)
	alloc := allocator.New()
	g.transforms = make(map[int32]map[mediatime.Range]instruction.Transform)

	g.mainVideo = make([][]placement, len(tl.VideoChannel))
	for offset, p := range tl.VideoChannel {
		for index := 0; index < p.NumberOfVideoTracks(); index++ {
			id, err := p.InsertVideoTrack(layout, index, alloc.MainVideoTrackID(index, offset))
			if err != nil {
				return fmt.Errorf("failed to place main video %d: %w", offset, err)
			}
			g.mainVideo[offset] = append(g.mainVideo[offset], placement{trackID: id, rng: p.TimeRange()})
			g.recordTransform(id, p)
		}
	}

	g.mainAudio = make([][]placement, len(tl.AudioChannel))
	for offset, p := range tl.AudioChannel {
		for index := 0; index < p.NumberOfAudioTracks(); index++ {
			id, err := p.InsertAudioTrack(layout, index, alloc.MainAudioTrackID(index, offset))
			if err != nil {
				return fmt.Errorf("failed to place main audio %d: %w", offset, err)
			}
			g.mainAudio[offset] = append(g.mainAudio[offset], placement{trackID: id, rng: p.TimeRange()})
		}
	}

	g.overlays = make([][]placement, len(tl.Overlays))
	for i, p := range tl.Overlays {
		for index := 0; index < p.NumberOfVideoTracks(); index++ {
			id, err := p.InsertVideoTrack(layout, index, alloc.OverlayTrackID(p.TimeRange()))
			if err != nil {
				return fmt.Errorf("failed to place overlay %d: %w", i, err)
			}
			g.overlays[i] = append(g.overlays[i], placement{trackID: id, rng: p.TimeRange()})
			g.recordTransform(id, p)
		}
	}

	g.freeAudio = make([][]placement, len(tl.Audios))
	for i, p := range tl.Audios {
		for index := 0; index < p.NumberOfAudioTracks(); index++ {
			id, err := p.InsertAudioTrack(layout, index, alloc.FreeAudioTrackID())
			if err != nil {
				return fmt.Errorf("failed to place audio %d: %w", i, err)
			}
			g.freeAudio[i] = append(g.freeAudio[i], placement{trackID: id, rng: p.TimeRange()})
		}
	}

	g.layout = layout
	g.logger.Debug().
		Int("tracks", len(layout.Tracks())).
		Float64("duration", layout.Duration().Seconds()).
		Msg("composition built")
	return nil
}

func (g *Generator) recordTransform(trackID int32, p any) {
	o, ok := p.(provider.Oriented)
	if !ok {
		return
	}
	t := instruction.TransformFromDegrees(o.PreferredTransform())
	if t == instruction.Identity {
		return
	}
	rng := p.(provider.TimeRangeOwner).TimeRange()
	if g.transforms[trackID] == nil {
		g.transforms[trackID] = make(map[mediatime.Range]instruction.Transform)
	}
	g.transforms[trackID][rng] = t
}

func (g *Generator) buildProgram() {
	tl := g.timeline
	var layers []*instruction.LayerInstruction
	var mainIDs []int32

	for offset, p := range tl.VideoChannel {
		for _, pl := range g.mainVideo[offset] {
			layers = append(layers, &instruction.LayerInstruction{
				TrackID:    pl.trackID,
				Range:      pl.rng,
				Transition: p.VideoTransition(),
				Transform:  g.Transform(pl.trackID, pl.rng),
				Effect:     p,
			})
			mainIDs = appendUnique(mainIDs, pl.trackID)
		}
	}
	for i, p := range tl.Overlays {
		for _, pl := range g.overlays[i] {
			layers = append(layers, &instruction.LayerInstruction{
				TrackID:   pl.trackID,
				Range:     pl.rng,
				Transform: g.Transform(pl.trackID, pl.rng),
				Effect:    p,
			})
		}
	}

	var pass instruction.Effect
	if tl.PassThrough != nil {
		pass = tl.PassThrough
	}
	g.program = instruction.NewProgram(layers, instruction.Options{
		MainTrackIDs:  mainIDs,
		Background:    tl.Background,
		PassThrough:   pass,
		RenderSize:    tl.RenderSize,
		FrameDuration: tl.FrameDuration,
	})
	g.logger.Debug().
		Int("layers", len(layers)).
		Int("slices", len(g.program.Slices)).
		Msg("video program built")
}

// buildMix gives every audio track one parameter record. Main channel
// clips additionally receive the fades of the transitions they take part
// in: the incoming clip fades in, the outgoing clip fades out, over the
// window the two clips actually share.
func (g *Generator) buildMix() {
	tl := g.timeline
	mix := &audiomix.Mix{}
	byTrack := make(map[int32]*audiomix.InputParameters)
	params := func(id int32) *audiomix.InputParameters {
		p, ok := byTrack[id]
		if !ok {
			p = audiomix.NewInputParameters(id)
			byTrack[id] = p
			mix.Parameters = append(mix.Parameters, p)
		}
		return p
	}

	for offset, p := range tl.AudioChannel {
		rng := p.TimeRange()
		var incoming, outgoing audiomix.Node
		if offset > 0 {
			prev := tl.AudioChannel[offset-1]
			incoming = fade(prev.AudioTransition(), prev.TimeRange(), rng, false)
		}
		if offset < len(tl.AudioChannel)-1 {
			outgoing = fade(p.AudioTransition(), rng, tl.AudioChannel[offset+1].TimeRange(), true)
		}
		for _, pl := range g.mainAudio[offset] {
			ip := params(pl.trackID)
			p.ConfigureAudioMix(ip)
			ip.AppendNode(incoming)
			ip.AppendNode(outgoing)
		}
	}

	for i, p := range tl.Audios {
		for _, pl := range g.freeAudio[i] {
			p.ConfigureAudioMix(params(pl.trackID))
		}
	}

	g.mix = mix
	g.logger.Debug().Int("tracks", len(mix.Parameters)).Msg("audio mix built")
}

// fade returns the node for one side of the transition between out and
// in. The window is their actual overlap, so a transition dropped during
// start time propagation yields no node.
func fade(t *transition.Transition, out, in mediatime.Range, outgoing bool) audiomix.Node {
	if t == nil || t.Audio == nil {
		return nil
	}
	window := out.Intersection(in).Duration
	if !window.IsPositive() {
		return nil
	}
	if outgoing {
		return t.Audio.Previous(out, window)
	}
	return t.Audio.Next(in, window)
}

func appendUnique(ids []int32, id int32) []int32 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
