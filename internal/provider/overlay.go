package provider

import (
	"fmt"
	"image"

	"github.com/rs/xid"

	"github.com/kikiluvv/reelcore/internal/composition"
	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// ImageOverlayItem shows a resource inside Video.Frame for Range. It has
// no transition and always lands on an overlay track.
type ImageOverlayItem struct {
	ID       string
	Resource Resource
	Range    mediatime.Range
	Video    VideoConfiguration
}

// NewImageOverlayItem places res at frame for rng.
func NewImageOverlayItem(res Resource, rng mediatime.Range, frame image.Rectangle) *ImageOverlayItem {
	cfg := DefaultVideoConfiguration()
	cfg.ContentMode = Custom
	cfg.Frame = frame
	return &ImageOverlayItem{ID: xid.New().String(), Resource: res, Range: rng, Video: cfg}
}

func (o *ImageOverlayItem) TimeRange() mediatime.Range { return o.Range }

func (o *ImageOverlayItem) NumberOfVideoTracks() int { return 1 }

// InsertVideoTrack loops the resource from zero for the overlay's range,
// clamped to the resource duration when it is shorter.
func (o *ImageOverlayItem) InsertVideoTrack(b composition.Backend, index int, trackID int32) (int32, error) {
	if index != 0 {
		return 0, fmt.Errorf("overlay %s has no video track %d", o.Resource.Name(), index)
	}
	id, err := b.AddTrack(composition.Video, trackID)
	if err != nil {
		return 0, err
	}
	src := mediatime.NewRange(mediatime.Zero, o.Range.Duration)
	if d := o.Resource.Duration(); d.IsPositive() && d.Before(src.Duration) {
		src.Duration = d
	}
	if err := b.Insert(id, o.Resource, src, o.Range.Start); err != nil {
		return 0, fmt.Errorf("failed to insert overlay %s: %w", o.Resource.Name(), err)
	}
	if !src.Duration.Equal(o.Range.Duration) {
		if err := b.ScaleRange(id, mediatime.NewRange(o.Range.Start, src.Duration), o.Range.Duration); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (o *ImageOverlayItem) ApplyEffect(img image.Image, at mediatime.Time, renderSize image.Point) image.Image {
	return o.Video.Apply(img, at.Sub(o.Range.Start), renderSize)
}

func (o *ImageOverlayItem) Clone() *ImageOverlayItem {
	c := *o
	c.ID = xid.New().String()
	c.Video = o.Video.Clone()
	return &c
}
