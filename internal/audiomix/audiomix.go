// Package audiomix holds the per-track audio mix program: volume ramps
// plus an ordered chain of processing nodes applied to each buffer.
package audiomix

import (
	"github.com/kikiluvv/reelcore/internal/easing"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Buffer is a block of stereo samples positioned on the timeline.
type Buffer struct {
	Range   mediatime.Range
	Samples [][2]float64
}

// Node mutates a buffer in place.
type Node interface {
	Process(buf *Buffer)
}

// VolumeNode ramps gain from StartVolume to EndVolume across Range.
type VolumeNode struct {
	Range       mediatime.Range
	StartVolume float64
	EndVolume   float64
	Timing      easing.Func
}

// NewVolumeNode returns a linear volume ramp over rng.
func NewVolumeNode(rng mediatime.Range, start, end float64) *VolumeNode {
	return &VolumeNode{Range: rng, StartVolume: start, EndVolume: end, Timing: easing.Linear}
}

// VolumeAt returns the gain at t, clamping outside the node's range.
func (n *VolumeNode) VolumeAt(t mediatime.Time) float64 {
	if !n.Range.Duration.IsPositive() {
		return n.EndVolume
	}
	percent := easing.Clamp(t.Sub(n.Range.Start).Ratio(n.Range.Duration))
	timing := n.Timing
	if timing == nil {
		timing = easing.Linear
	}
	return n.StartVolume + (n.EndVolume-n.StartVolume)*timing(percent)
}

// Process scales the buffer by the gain at the buffer's end when the
// buffer overlaps the node.
func (n *VolumeNode) Process(buf *Buffer) {
	if !n.Range.Overlaps(buf.Range) {
		return
	}
	vol := n.VolumeAt(buf.Range.End())
	for i := range buf.Samples {
		buf.Samples[i][0] *= vol
		buf.Samples[i][1] *= vol
	}
}

// VolumeRamp is a linear gain change over Range.
type VolumeRamp struct {
	Range       mediatime.Range
	StartVolume float64
	EndVolume   float64
}

// InputParameters is the mix record of a single audio track.
type InputParameters struct {
	TrackID int32
	Ramps   []VolumeRamp
	Nodes   []Node
}

func NewInputParameters(trackID int32) *InputParameters {
	return &InputParameters{TrackID: trackID}
}

// SetVolumeRamp adds a gain ramp over rng.
func (p *InputParameters) SetVolumeRamp(start, end float64, rng mediatime.Range) {
	p.Ramps = append(p.Ramps, VolumeRamp{Range: rng, StartVolume: start, EndVolume: end})
}

func (p *InputParameters) AppendNode(n Node) {
	if n != nil {
		p.Nodes = append(p.Nodes, n)
	}
}

// VolumeAt returns the ramped gain at t. Outside every ramp the gain of
// the nearest preceding ramp's end holds, or 1 before the first one.
func (p *InputParameters) VolumeAt(t mediatime.Time) float64 {
	vol := 1.0
	for _, r := range p.Ramps {
		switch {
		case r.Range.ContainsTime(t):
			return r.StartVolume + (r.EndVolume-r.StartVolume)*easing.Clamp(t.Sub(r.Range.Start).Ratio(r.Range.Duration))
		case !t.Before(r.Range.End()):
			vol = r.EndVolume
		}
	}
	return vol
}

// Process applies the ramp gain at the buffer start, then each node.
func (p *InputParameters) Process(buf *Buffer) {
	if vol := p.VolumeAt(buf.Range.Start); vol != 1 {
		for i := range buf.Samples {
			buf.Samples[i][0] *= vol
			buf.Samples[i][1] *= vol
		}
	}
	for _, n := range p.Nodes {
		n.Process(buf)
	}
}

// Mix is the audio mix program: one parameter record per audio track.
type Mix struct {
	Parameters []*InputParameters
}

// Lookup returns the parameters for trackID.
func (m *Mix) Lookup(trackID int32) (*InputParameters, bool) {
	for _, p := range m.Parameters {
		if p.TrackID == trackID {
			return p, true
		}
	}
	return nil, false
}
