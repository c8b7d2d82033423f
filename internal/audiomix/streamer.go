package audiomix

import (
	"github.com/gopxl/beep"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// Streamer applies a track's mix parameters to samples pulled from src.
// Buffer time ranges are derived from the sample position and rate,
// offset by the track's start on the timeline.
type Streamer struct {
	src    beep.Streamer
	params *InputParameters
	rate   beep.SampleRate
	start  mediatime.Time
	pos    int
}

// NewStreamer wraps src, whose first sample plays at start.
func NewStreamer(src beep.Streamer, params *InputParameters, rate beep.SampleRate, start mediatime.Time) *Streamer {
	return &Streamer{src: src, params: params, rate: rate, start: start}
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = s.src.Stream(samples)
	if n == 0 {
		return n, ok
	}
	buf := Buffer{
		Range: mediatime.NewRange(
			s.start.Add(mediatime.New(int64(s.pos), int32(s.rate))),
			mediatime.New(int64(n), int32(s.rate)),
		),
		Samples: samples[:n],
	}
	s.params.Process(&buf)
	s.pos += n
	return n, ok
}

func (s *Streamer) Err() error {
	return s.src.Err()
}

// Position returns the timeline time of the next sample.
func (s *Streamer) Position() mediatime.Time {
	return s.start.Add(mediatime.New(int64(s.pos), int32(s.rate)))
}
