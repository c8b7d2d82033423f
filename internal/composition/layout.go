// Package composition materializes provider content onto persistent
// tracks. Layout is the in-memory track backend and the track layout
// artifact of a build.
package composition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Kind is the media kind of a track.
type Kind int

const (
	Video Kind = iota
	Audio
)

func (k Kind) String() string {
	if k == Audio {
		return "audio"
	}
	return "video"
}

var (
	// ErrTrackLimit is returned when AddTrack would exceed the backend's
	// track ceiling.
	ErrTrackLimit = errors.New("track limit exceeded")
	// ErrNoSourceFrame is returned when no segment covers the requested instant.
	ErrNoSourceFrame = errors.New("no source frame")
)

// Media is the content inserted into a track segment.
type Media interface {
	Name() string
	Frame(ctx context.Context, at mediatime.Time, size image.Point) (image.Image, error)
}

// Segment maps SourceRange of Media onto TimelineRange. A TimelineRange
// longer or shorter than SourceRange plays the source slower or faster.
type Segment struct {
	Media         Media
	SourceRange   mediatime.Range
	TimelineRange mediatime.Range
}

// SourceTime maps a timeline instant into the segment's media time.
func (s Segment) SourceTime(at mediatime.Time) mediatime.Time {
	offset := at.Sub(s.TimelineRange.Start)
	if !s.TimelineRange.Duration.Equal(s.SourceRange.Duration) {
		offset = offset.MulFloat(s.SourceRange.Duration.Ratio(s.TimelineRange.Duration))
	}
	return s.SourceRange.Start.Add(offset)
}

type Track struct {
	ID       int32
	Kind     Kind
	Segments []Segment
}

// Backend is the track materialization collaborator.
type Backend interface {
	AddTrack(kind Kind, preferredID int32) (int32, error)
	Insert(trackID int32, media Media, sourceRange mediatime.Range, at mediatime.Time) error
	ScaleRange(trackID int32, rng mediatime.Range, to mediatime.Time) error
}

// Layout records tracks and their segments.
type Layout struct {
	tracks    map[int32]*Track
	order     []int32
	maxTracks int
	nextID    int32
}

// Option configures a Layout.
type Option func(*Layout)

// WithTrackLimit caps the number of tracks; zero means unlimited.
func WithTrackLimit(n int) Option {
	return func(l *Layout) { l.maxTracks = n }
}

func NewLayout(opts ...Option) *Layout {
	l := &Layout{tracks: make(map[int32]*Track), nextID: 1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddTrack returns preferredID, creating the track on first use. A
// non-positive preferredID picks an unused id.
func (l *Layout) AddTrack(kind Kind, preferredID int32) (int32, error) {
	if t, ok := l.tracks[preferredID]; ok {
		if t.Kind != kind {
			return 0, fmt.Errorf("track %d is %s, not %s", preferredID, t.Kind, kind)
		}
		return preferredID, nil
	}
	if l.maxTracks > 0 && len(l.tracks) >= l.maxTracks {
		return 0, fmt.Errorf("%w: %d tracks", ErrTrackLimit, l.maxTracks)
	}
	id := preferredID
	if id <= 0 {
		for l.tracks[l.nextID] != nil {
			l.nextID++
		}
		id = l.nextID
	}
	l.tracks[id] = &Track{ID: id, Kind: kind}
	l.order = append(l.order, id)
	return id, nil
}

// Insert places sourceRange of media on the track starting at at.
func (l *Layout) Insert(trackID int32, media Media, sourceRange mediatime.Range, at mediatime.Time) error {
	t, ok := l.tracks[trackID]
	if !ok {
		return fmt.Errorf("insert into unknown track %d", trackID)
	}
	seg := Segment{
		Media:         media,
		SourceRange:   sourceRange,
		TimelineRange: mediatime.NewRange(at, sourceRange.Duration),
	}
	if err := t.checkOverlap(seg.TimelineRange, -1); err != nil {
		return err
	}
	t.Segments = append(t.Segments, seg)
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].TimelineRange.Start.Before(t.Segments[j].TimelineRange.Start)
	})
	return nil
}

// ScaleRange stretches the segment occupying rng so it lasts to.
func (l *Layout) ScaleRange(trackID int32, rng mediatime.Range, to mediatime.Time) error {
	t, ok := l.tracks[trackID]
	if !ok {
		return fmt.Errorf("scale unknown track %d", trackID)
	}
	for i := range t.Segments {
		if !t.Segments[i].TimelineRange.Equal(rng) {
			continue
		}
		scaled := mediatime.NewRange(rng.Start, to)
		if err := t.checkOverlap(scaled, i); err != nil {
			return err
		}
		t.Segments[i].TimelineRange = scaled
		return nil
	}
	return fmt.Errorf("no segment at %v on track %d", rng, trackID)
}

func (t *Track) checkOverlap(rng mediatime.Range, skip int) error {
	for i, s := range t.Segments {
		if i != skip && s.TimelineRange.Overlaps(rng) {
			return fmt.Errorf("segment %v overlaps %v on track %d", rng, s.TimelineRange, t.ID)
		}
	}
	return nil
}

// Track returns the track with id.
func (l *Layout) Track(id int32) (*Track, bool) {
	t, ok := l.tracks[id]
	return t, ok
}

// Tracks returns all tracks in creation order.
func (l *Layout) Tracks() []*Track {
	out := make([]*Track, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.tracks[id])
	}
	return out
}

// SegmentAt returns the segment of track id covering at.
func (l *Layout) SegmentAt(id int32, at mediatime.Time) (Segment, bool) {
	t, ok := l.tracks[id]
	if !ok {
		return Segment{}, false
	}
	for _, s := range t.Segments {
		if s.TimelineRange.ContainsTime(at) {
			return s, true
		}
	}
	return Segment{}, false
}

// SourceFrame decodes the frame of track id shown at the timeline instant.
func (l *Layout) SourceFrame(ctx context.Context, id int32, at mediatime.Time, size image.Point) (image.Image, error) {
	seg, ok := l.SegmentAt(id, at)
	if !ok {
		return nil, fmt.Errorf("%w: track %d at %s", ErrNoSourceFrame, id, at)
	}
	img, err := seg.Media.Frame(ctx, seg.SourceTime(at), size)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", seg.Media.Name(), err)
	}
	return img, nil
}

// Duration returns the end of the last segment on any track.
func (l *Layout) Duration() mediatime.Time {
	end := mediatime.Zero
	for _, t := range l.tracks {
		for _, s := range t.Segments {
			end = mediatime.Max(end, s.TimelineRange.End())
		}
	}
	return end
}
