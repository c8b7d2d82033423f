// Package provider defines the capability interfaces through which clips
// and overlays contribute tracks, frames and audio mix settings, and the
// concrete TrackItem and ImageOverlayItem providers.
package provider

import (
	"image"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/composition"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/transition"
)

// TimeRangeOwner reports a provider's range on the timeline.
type TimeRangeOwner interface {
	TimeRange() mediatime.Range
}

// VideoTrackSource materializes video tracks into a composition backend.
type VideoTrackSource interface {
	NumberOfVideoTracks() int
	InsertVideoTrack(b composition.Backend, index int, trackID int32) (int32, error)
}

// AudioTrackSource materializes audio tracks into a composition backend.
type AudioTrackSource interface {
	NumberOfAudioTracks() int
	InsertAudioTrack(b composition.Backend, index int, trackID int32) (int32, error)
}

// VideoEffect processes a decoded frame at a timeline instant.
type VideoEffect interface {
	ApplyEffect(img image.Image, at mediatime.Time, renderSize image.Point) image.Image
}

// AudioEffect fills in a track's mix parameters.
type AudioEffect interface {
	ConfigureAudioMix(p *audiomix.InputParameters)
}

// Sequenced providers have their start recomputed by the timeline.
type Sequenced interface {
	TimeRangeOwner
	Duration() mediatime.Time
	SetStartTime(t mediatime.Time)
}

type VideoProvider interface {
	TimeRangeOwner
	VideoTrackSource
	VideoEffect
}

type AudioProvider interface {
	TimeRangeOwner
	AudioTrackSource
	AudioEffect
}

// TransitionableVideoProvider is a main video channel member.
type TransitionableVideoProvider interface {
	VideoProvider
	Sequenced
	VideoTransition() *transition.Transition
}

// TransitionableAudioProvider is a main audio channel member.
type TransitionableAudioProvider interface {
	AudioProvider
	Sequenced
	AudioTransition() *transition.Transition
}

// Oriented sources report the rotation their frames must be displayed with.
type Oriented interface {
	PreferredTransform() int
}
