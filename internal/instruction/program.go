package instruction

import (
	"image"
	"image/color"
	"sort"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Program is the ordered list of slices handed to the renderer. It is
// immutable once built and safe for concurrent readers.
type Program struct {
	Slices        []*Slice
	RenderSize    image.Point
	FrameDuration mediatime.Time
	Background    color.Color
}

// Options are the program-wide settings copied onto every slice.
type Options struct {
	MainTrackIDs  []int32
	Background    color.Color
	PassThrough   Effect
	RenderSize    image.Point
	FrameDuration mediatime.Time
}

// NewProgram sorts layers by start, slices them and stamps every slice
// with its main track ids, background and pass-through effect.
func NewProgram(layers []*LayerInstruction, opts Options) *Program {
	sorted := append([]*LayerInstruction(nil), layers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Before(sorted[j].Range.Start)
	})

	bg := opts.Background
	if bg == nil {
		bg = color.Black
	}

	slices := Slices(sorted)
	for _, s := range slices {
		s.Background = bg
		s.PassThrough = opts.PassThrough
		for _, l := range s.Layers {
			if contains(opts.MainTrackIDs, l.TrackID) && !contains(s.MainTrackIDs, l.TrackID) {
				s.MainTrackIDs = append(s.MainTrackIDs, l.TrackID)
			}
		}
	}

	return &Program{
		Slices:        slices,
		RenderSize:    opts.RenderSize,
		FrameDuration: opts.FrameDuration,
		Background:    bg,
	}
}

// At returns the slice covering t, or nil.
func (p *Program) At(t mediatime.Time) *Slice {
	i := sort.Search(len(p.Slices), func(i int) bool {
		return p.Slices[i].Range.End().After(t)
	})
	if i < len(p.Slices) && p.Slices[i].Range.ContainsTime(t) {
		return p.Slices[i]
	}
	return nil
}

// Duration is the end of the last slice.
func (p *Program) Duration() mediatime.Time {
	if len(p.Slices) == 0 {
		return mediatime.Zero
	}
	return p.Slices[len(p.Slices)-1].Range.End()
}

func contains(ids []int32, id int32) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
