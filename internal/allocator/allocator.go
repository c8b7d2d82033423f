// Package allocator assigns provider tracks to persistent track ids.
package allocator

import "github.com/kikiluvv/reelcore/internal/mediatime"

// channelStride separates the A and B tracks of a main channel.
const channelStride = 1000

// Allocator hands out track ids for a single build. Ids start at 1.
type Allocator struct {
	next       int32
	mainVideo  map[int]int32
	mainAudio  map[int]int32
	overlayIDs []int32
	overlays   map[int32][]mediatime.Range
}

func New() *Allocator {
	return &Allocator{
		next:      1,
		mainVideo: make(map[int]int32),
		mainAudio: make(map[int]int32),
		overlays:  make(map[int32][]mediatime.Range),
	}
}

// NextID returns a fresh id.
func (a *Allocator) NextID() int32 {
	id := a.next
	a.next++
	return id
}

// MainVideoTrackID returns the id for track index of the provider at
// offset in the main video channel. Consecutive providers alternate
// between two tracks so a transition overlap never lands on one track.
func (a *Allocator) MainVideoTrackID(index, offset int) int32 {
	return a.mainID(a.mainVideo, index, offset)
}

// MainAudioTrackID is MainVideoTrackID for the main audio channel.
func (a *Allocator) MainAudioTrackID(index, offset int) int32 {
	return a.mainID(a.mainAudio, index, offset)
}

func (a *Allocator) mainID(bases map[int]int32, index, offset int) int32 {
	base, ok := bases[index]
	if !ok {
		base = a.NextID()
		bases[index] = base
	}
	return base + int32((offset%2+1)*channelStride)
}

// OverlayTrackID reuses the first overlay track with no positive overlap
// with rng, or opens a new one. The range is recorded on the chosen track.
func (a *Allocator) OverlayTrackID(rng mediatime.Range) int32 {
	for _, id := range a.overlayIDs {
		free := true
		for _, r := range a.overlays[id] {
			if r.Overlaps(rng) {
				free = false
				break
			}
		}
		if free {
			a.overlays[id] = append(a.overlays[id], rng)
			return id
		}
	}
	id := a.NextID()
	a.overlayIDs = append(a.overlayIDs, id)
	a.overlays[id] = []mediatime.Range{rng}
	return id
}

// FreeAudioTrackID always opens a new track.
func (a *Allocator) FreeAudioTrackID() int32 {
	return a.NextID()
}
