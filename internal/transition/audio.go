package transition

import (
	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/easing"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// FadeInOutAudio fades the outgoing clip to silence and the incoming clip
// up from silence across the transition window.
type FadeInOutAudio struct{}

func (FadeInOutAudio) Previous(rng mediatime.Range, duration mediatime.Time) audiomix.Node {
	if !duration.IsPositive() {
		return nil
	}
	return &audiomix.VolumeNode{
		Range:       mediatime.NewRange(rng.End().Sub(duration), duration),
		StartVolume: 1,
		EndVolume:   0,
		Timing:      easing.QuarticEaseOut,
	}
}

func (FadeInOutAudio) Next(rng mediatime.Range, duration mediatime.Time) audiomix.Node {
	if !duration.IsPositive() {
		return nil
	}
	return &audiomix.VolumeNode{
		Range:       mediatime.NewRange(rng.Start, duration),
		StartVolume: 0,
		EndVolume:   1,
		Timing:      easing.QuarticEaseIn,
	}
}
