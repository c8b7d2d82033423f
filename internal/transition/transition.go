// Package transition defines clip boundary transitions: a duration plus
// a video blend and an audio ramp strategy.
package transition

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// ErrUnknownTransition is returned by ByName for unregistered names.
var ErrUnknownTransition = errors.New("unknown transition")

// VideoEffect blends the incoming foreground over the outgoing background
// at tween in [0,1].
type VideoEffect interface {
	Render(foreground, background image.Image, tween float64, renderSize image.Point) image.Image
}

// AudioEffect produces the gain ramps of a transition window. Previous is
// applied to the outgoing clip at the tail of rng, Next to the incoming
// clip at the head of rng.
type AudioEffect interface {
	Previous(rng mediatime.Range, duration mediatime.Time) audiomix.Node
	Next(rng mediatime.Range, duration mediatime.Time) audiomix.Node
}

// Transition is bound to the trailing edge of the clip that declares it.
type Transition struct {
	Name     string
	Duration mediatime.Time
	Video    VideoEffect
	Audio    AudioEffect
}

// Clone returns a shallow copy; effects are stateless and shared.
func (t *Transition) Clone() *Transition {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// ByName builds a registered transition. withAudio attaches the
// quartic fade in/out audio ramp.
func ByName(name string, duration mediatime.Time, withAudio bool) (*Transition, error) {
	var video VideoEffect
	switch strings.ToLower(name) {
	case "", "none", "passthrough", "cut":
		video = Passthrough{}
	case "dissolve", "crossdissolve", "cross-dissolve":
		video = CrossDissolve{}
	case "fade", "fadeblack":
		video = Fade{}
	case "push", "pushleft":
		video = Push{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransition, name)
	}

	t := &Transition{Name: strings.ToLower(name), Duration: duration, Video: video}
	if withAudio {
		t.Audio = FadeInOutAudio{}
	}
	return t, nil
}
