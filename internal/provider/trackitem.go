package provider

import (
	"fmt"
	"image"

	"github.com/rs/xid"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/composition"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/transition"
)

// AudioConfiguration controls a provider's contribution to the audio mix.
type AudioConfiguration struct {
	Volume float64
	Nodes  []audiomix.Node
}

func DefaultAudioConfiguration() AudioConfiguration {
	return AudioConfiguration{Volume: 1}
}

// TrackItem is a main channel clip. It implements every provider
// capability.
type TrackItem struct {
	ID            string
	Resource      Resource
	SelectedRange mediatime.Range
	Speed         float64
	StartTime     mediatime.Time
	Transition    *transition.Transition
	Video         VideoConfiguration
	Audio         AudioConfiguration
}

// NewTrackItem selects the full duration of res.
func NewTrackItem(res Resource) *TrackItem {
	return &TrackItem{
		ID:            xid.New().String(),
		Resource:      res,
		SelectedRange: mediatime.NewRange(mediatime.Zero, res.Duration()),
		Speed:         1,
		StartTime:     mediatime.Zero,
		Video:         DefaultVideoConfiguration(),
		Audio:         DefaultAudioConfiguration(),
	}
}

// Duration is the selected range played at Speed.
func (t *TrackItem) Duration() mediatime.Time {
	if t.Speed <= 0 || t.Speed == 1 {
		return t.SelectedRange.Duration
	}
	return t.SelectedRange.Duration.MulFloat(1 / t.Speed)
}

func (t *TrackItem) TimeRange() mediatime.Range {
	return mediatime.NewRange(t.StartTime, t.Duration())
}

func (t *TrackItem) SetStartTime(at mediatime.Time) { t.StartTime = at }

func (t *TrackItem) VideoTransition() *transition.Transition {
	if t.Transition == nil || t.Transition.Video == nil {
		return nil
	}
	return t.Transition
}

func (t *TrackItem) AudioTransition() *transition.Transition {
	if t.Transition == nil || t.Transition.Audio == nil {
		return nil
	}
	return t.Transition
}

func (t *TrackItem) NumberOfVideoTracks() int { return t.Resource.VideoTrackCount() }
func (t *TrackItem) NumberOfAudioTracks() int { return t.Resource.AudioTrackCount() }

func (t *TrackItem) InsertVideoTrack(b composition.Backend, index int, trackID int32) (int32, error) {
	return t.insert(b, composition.Video, index, t.NumberOfVideoTracks(), trackID)
}

func (t *TrackItem) InsertAudioTrack(b composition.Backend, index int, trackID int32) (int32, error) {
	return t.insert(b, composition.Audio, index, t.NumberOfAudioTracks(), trackID)
}

func (t *TrackItem) insert(b composition.Backend, kind composition.Kind, index, count int, trackID int32) (int32, error) {
	if index < 0 || index >= count {
		return 0, fmt.Errorf("%s has no %s track %d", t.Resource.Name(), kind, index)
	}
	id, err := b.AddTrack(kind, trackID)
	if err != nil {
		return 0, err
	}
	if err := b.Insert(id, t.Resource, t.SelectedRange, t.StartTime); err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", t.Resource.Name(), err)
	}
	if d := t.Duration(); !d.Equal(t.SelectedRange.Duration) {
		if err := b.ScaleRange(id, mediatime.NewRange(t.StartTime, t.SelectedRange.Duration), d); err != nil {
			return 0, fmt.Errorf("failed to scale %s: %w", t.Resource.Name(), err)
		}
	}
	return id, nil
}

// ApplyEffect places the frame per the video configuration at the
// instant's offset into the item.
func (t *TrackItem) ApplyEffect(img image.Image, at mediatime.Time, renderSize image.Point) image.Image {
	return t.Video.Apply(img, at.Sub(t.StartTime), renderSize)
}

// ConfigureAudioMix sets a constant volume over the item and appends the
// item's own processing nodes.
func (t *TrackItem) ConfigureAudioMix(p *audiomix.InputParameters) {
	p.SetVolumeRamp(t.Audio.Volume, t.Audio.Volume, t.TimeRange())
	for _, n := range t.Audio.Nodes {
		p.AppendNode(n)
	}
}

// PreferredTransform forwards the resource's display rotation.
func (t *TrackItem) PreferredTransform() int {
	if o, ok := t.Resource.(Oriented); ok {
		return o.PreferredTransform()
	}
	return 0
}

// Clone returns an independent copy sharing the resource. The clone gets
// a new ID.
func (t *TrackItem) Clone() *TrackItem {
	c := *t
	c.ID = xid.New().String()
	c.Transition = t.Transition.Clone()
	c.Video = t.Video.Clone()
	c.Audio.Nodes = append([]audiomix.Node(nil), t.Audio.Nodes...)
	return &c
}

// FullRangeCopy clones the item with the resource's full range selected,
// starting at zero.
func (t *TrackItem) FullRangeCopy() *TrackItem {
	c := t.Clone()
	c.SelectedRange = mediatime.NewRange(mediatime.Zero, t.Resource.Duration())
	c.StartTime = mediatime.Zero
	return c
}

func (t *TrackItem) String() string {
	return fmt.Sprintf("%s %v", t.Resource.Name(), t.TimeRange())
}
