// Package timeline holds the declarative edit: main channels, overlays,
// free audio and global settings, plus start-time propagation for the
// main channels.
package timeline

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/provider"
	"github.com/kikiluvv/reelcore/internal/transition"
)

// Timeline is owned by its caller; list order is significant. Overlay
// order is z-order and track reuse preference.
type Timeline struct {
	VideoChannel  []provider.TransitionableVideoProvider
	AudioChannel  []provider.TransitionableAudioProvider
	Overlays      []provider.VideoProvider
	Audios        []provider.AudioProvider
	PassThrough   provider.VideoEffect
	Background    color.Color
	RenderSize    image.Point
	FrameDuration mediatime.Time
}

// Policy decides what happens when a clip is too short to carry both its
// incoming and its outgoing transition.
type Policy int

const (
	// PreviousWins keeps the incoming transition and drops the outgoing
	// one to zero.
	PreviousWins Policy = iota
	// Strict reports a TransitionOverlapError.
	Strict
)

// ParsePolicy maps "previous-wins" and "strict" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "previous-wins", "previous_wins":
		return PreviousWins, nil
	case "strict":
		return Strict, nil
	}
	return PreviousWins, fmt.Errorf("unknown transition policy %q", s)
}

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "previous-wins"
}

// TransitionOverlapError reports three consecutive clips whose
// transitions would be active at the same instant.
type TransitionOverlapError struct {
	Index    int
	Incoming mediatime.Time
	Outgoing mediatime.Time
	Ranges   [3]mediatime.Range
}

func (e *TransitionOverlapError) Error() string {
	return fmt.Sprintf(
		"clip %d is %.3fs long but its incoming (%.3fs) and outgoing (%.3fs) transitions overlap: %v %v %v",
		e.Index, e.Ranges[1].Duration.Seconds(), e.Incoming.Seconds(), e.Outgoing.Seconds(),
		e.Ranges[0], e.Ranges[1], e.Ranges[2],
	)
}

// ReloadVideoStartTime recomputes the start of each main video provider.
func ReloadVideoStartTime(providers []provider.TransitionableVideoProvider, policy Policy) error {
	return reload(providers, func(p provider.TransitionableVideoProvider) *transition.Transition {
		return p.VideoTransition()
	}, policy)
}

// ReloadAudioStartTime recomputes the start of each main audio provider.
func ReloadAudioStartTime(providers []provider.TransitionableAudioProvider, policy Policy) error {
	return reload(providers, func(p provider.TransitionableAudioProvider) *transition.Transition {
		return p.AudioTransition()
	}, policy)
}

// reload places providers back to back, pulling each one earlier by the
// transition declared on its predecessor. A boundary's transition
// collapses to zero when either neighbor is shorter than it, and the last
// provider never carries one.
func reload[T provider.Sequenced](providers []T, trans func(T) *transition.Transition, policy Policy) error {
	position := mediatime.Zero
	previous := mediatime.Zero
	var prevRange mediatime.Range

	for i, p := range providers {
		duration := p.Duration()
		td := mediatime.Zero
		if t := trans(p); t != nil {
			td = t.Duration
		}

		switch {
		case i == len(providers)-1:
			td = mediatime.Zero
		case duration.Before(td), providers[i+1].Duration().Before(td):
			td = mediatime.Zero
		}

		if td.IsPositive() && previous.Add(td).After(duration) {
			if policy == Strict {
				start := position.Sub(previous)
				current := mediatime.NewRange(start, duration)
				next := mediatime.NewRange(current.End().Sub(td), providers[i+1].Duration())
				return &TransitionOverlapError{
					Index:    i,
					Incoming: previous,
					Outgoing: td,
					Ranges:   [3]mediatime.Range{prevRange, current, next},
				}
			}
			td = mediatime.Zero
		}

		position = position.Sub(previous)
		p.SetStartTime(position)
		prevRange = p.TimeRange()
		previous = td
		position = position.Add(duration)
	}
	return nil
}

// Duration is the end of the latest provider on any channel.
func (t *Timeline) Duration() mediatime.Time {
	end := mediatime.Zero
	for _, p := range t.VideoChannel {
		end = mediatime.Max(end, p.TimeRange().End())
	}
	for _, p := range t.AudioChannel {
		end = mediatime.Max(end, p.TimeRange().End())
	}
	for _, p := range t.Overlays {
		end = mediatime.Max(end, p.TimeRange().End())
	}
	for _, p := range t.Audios {
		end = mediatime.Max(end, p.TimeRange().End())
	}
	return end
}
