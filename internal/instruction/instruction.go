// Package instruction builds the video composition program: a partition of
// the timeline into slices, each listing the layers active during it.
package instruction

import (
	"fmt"
	"image"
	"image/color"
	"sort"

	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/transition"
)

// Effect applies a provider's per-instant processing to a source frame.
type Effect interface {
	ApplyEffect(img image.Image, at mediatime.Time, renderSize image.Point) image.Image
}

// LayerInstruction projects a provider onto its allocated track.
type LayerInstruction struct {
	TrackID    int32
	Range      mediatime.Range
	Transition *transition.Transition
	Transform  Transform
	Effect     Effect
}

func (l *LayerInstruction) String() string {
	return fmt.Sprintf("track %d %v", l.TrackID, l.Range)
}

// Slice is a maximal interval with a fixed set of active layers. Every
// layer's range intersects Range.
type Slice struct {
	Range        mediatime.Range
	Layers       []*LayerInstruction
	MainTrackIDs []int32
	Background   color.Color
	PassThrough  Effect
}

// IsMain reports whether trackID is one of the slice's main tracks.
func (s *Slice) IsMain(trackID int32) bool {
	for _, id := range s.MainTrackIDs {
		if id == trackID {
			return true
		}
	}
	return false
}

// Partition splits layers into main-track layers and everything else,
// both in list order.
func (s *Slice) Partition() (main, other []*LayerInstruction) {
	for _, l := range s.Layers {
		if s.IsMain(l.TrackID) {
			main = append(main, l)
		} else {
			other = append(other, l)
		}
	}
	return main, other
}

// Slices partitions the union of the layers' ranges into disjoint slices
// by incremental insertion. Layers are folded in the given order; the
// result is sorted by start. A negative-duration layer panics.
func Slices(layers []*LayerInstruction) []*Slice {
	var slices []*Slice

	for _, layer := range layers {
		if !layer.Range.Valid() {
			panic(fmt.Sprintf("instruction: negative duration layer %v", layer))
		}
		if layer.Range.IsEmpty() {
			continue
		}

		remaining := []mediatime.Range{layer.Range}
		shift := 0
		existing := append([]*Slice(nil), slices...)

		for offset, s := range existing {
			if !s.Range.Overlaps(layer.Range) {
				continue
			}

			at := offset + shift
			var pieces []*Slice
			for _, r := range mediatime.SliceRanges(layer.Range, s.Range) {
				if !s.Range.Contains(r) {
					continue
				}
				if layer.Range.Contains(r) {
					pieces = append(pieces, &Slice{Range: r, Layers: withLayer(s.Layers, layer)})
					remaining = subtractAll(remaining, r)
				} else {
					pieces = append(pieces, &Slice{Range: r, Layers: s.Layers})
				}
			}

			slices = splice(slices, at, pieces)
			shift += len(pieces) - 1
		}

		for _, r := range remaining {
			slices = append(slices, &Slice{Range: r, Layers: []*LayerInstruction{layer}})
		}
	}

	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].Range.Start.Before(slices[j].Range.Start)
	})
	return slices
}

func withLayer(layers []*LayerInstruction, l *LayerInstruction) []*LayerInstruction {
	out := make([]*LayerInstruction, 0, len(layers)+1)
	out = append(out, layers...)
	return append(out, l)
}

func subtractAll(ranges []mediatime.Range, r mediatime.Range) []mediatime.Range {
	var out []mediatime.Range
	for _, x := range ranges {
		out = append(out, x.Subtract(r)...)
	}
	return out
}

// splice replaces slices[at] with pieces.
func splice(slices []*Slice, at int, pieces []*Slice) []*Slice {
	out := make([]*Slice, 0, len(slices)-1+len(pieces))
	out = append(out, slices[:at]...)
	out = append(out, pieces...)
	return append(out, slices[at+1:]...)
}
