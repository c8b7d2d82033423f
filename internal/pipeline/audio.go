package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/kikiluvv/reelcore/internal/audiomix"
	"github.com/kikiluvv/reelcore/internal/composition"
	"github.com/kikiluvv/reelcore/internal/provider"
)

// MixAudio decodes every audio segment of the layout, runs it through its
// track's mix parameters and writes the sum as a 16-bit stereo WAV. It
// reports false without writing anything when the plan has no audio.
func (p *Pipeline) MixAudio(ctx context.Context, plan *Plan, output string) (bool, error) {
	if p.ffmpeg == nil {
		return false, ErrNoFFmpeg
	}
	rate := beep.SampleRate(p.config.SampleRate)
	if rate <= 0 {
		rate = 44100
	}

	master := make([][2]float64, rate.N(plan.Layout.Duration().Duration()))
	mixed := 0
	for _, track := range plan.Layout.Tracks() {
		if track.Kind != composition.Audio {
			continue
		}
		params, ok := plan.Mix.Lookup(track.ID)
		if !ok {
			params = audiomix.NewInputParameters(track.ID)
		}
		for _, seg := range track.Segments {
			res, ok := seg.Media.(*provider.VideoFileResource)
			if !ok {
				p.logger.Warn().Str("media", seg.Media.Name()).Msg("skipping audio segment without a file")
				continue
			}
			samples, err := p.ffmpeg.DecodeAudio(ctx, res.Path, seg.SourceRange, int(rate))
			if err != nil {
				return false, fmt.Errorf("failed to decode %s: %w", res.Path, err)
			}
			samples = retime(samples, rate.N(seg.TimelineRange.Duration.Duration()))
			s := audiomix.NewStreamer(sliceStreamer(samples), params, rate, seg.TimelineRange.Start)
			mixInto(master, rate.N(seg.TimelineRange.Start.Duration()), s)
			mixed++
		}
	}
	if mixed == 0 {
		return false, nil
	}

	clip(master)
	f, err := os.Create(output)
	if err != nil {
		return false, err
	}
	defer f.Close()

	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, sliceStreamer(master), format); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", output, err)
	}

	p.logger.Info().Int("segments", mixed).Str("output", output).Msg("audio mixed")
	return true, nil
}

func sliceStreamer(samples [][2]float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(out [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := copy(out, samples[pos:])
		pos += n
		return n, true
	})
}

// mixInto adds s into master starting at sample offset.
func mixInto(master [][2]float64, offset int, s beep.Streamer) {
	buf := make([][2]float64, 1024)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			j := offset + i
			if j < 0 || j >= len(master) {
				continue
			}
			master[j][0] += buf[i][0]
			master[j][1] += buf[i][1]
		}
		offset += n
		if !ok || n == 0 {
			return
		}
	}
}

// retime stretches or squeezes samples to n by nearest-sample lookup.
func retime(samples [][2]float64, n int) [][2]float64 {
	if n <= 0 || len(samples) == 0 || n == len(samples) {
		return samples
	}
	out := make([][2]float64, n)
	ratio := float64(len(samples)) / float64(n)
	for i := range out {
		j := int(float64(i) * ratio)
		if j >= len(samples) {
			j = len(samples) - 1
		}
		out[i] = samples[j]
	}
	return out
}

func clip(samples [][2]float64) {
	for i := range samples {
		for c := 0; c < 2; c++ {
			switch {
			case samples[i][c] > 1:
				samples[i][c] = 1
			case samples[i][c] < -1:
				samples[i][c] = -1
			}
		}
	}
}
