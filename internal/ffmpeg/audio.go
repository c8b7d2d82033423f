package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/kikiluvv/reelcore/internal/mediatime"
)

// DecodeAudio decodes rng of the file's first audio stream to interleaved
// stereo float samples at sampleRate.
func (e *Executor) DecodeAudio(ctx context.Context, path string, rng mediatime.Range, sampleRate int) ([][2]float64, error) {
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}

	e.logger.Debug().
		Str("input", path).
		Float64("start", rng.Start.Seconds()).
		Float64("duration", rng.Duration.Seconds()).
		Int("sample_rate", sampleRate).
		Msg("decoding audio")

	args := []string{
		"-ss", strconv.FormatFloat(rng.Start.Seconds(), 'f', 6, 64),
		"-t", strconv.FormatFloat(rng.Duration.Seconds(), 'f', 6, 64),
		"-i", path,
		"-vn",
		"-ac", "2",
		"-ar", strconv.Itoa(sampleRate),
	}
	args = append(args, FilterChain{}.PadAudio(rng.Duration.Seconds()).args("-af")...)
	args = append(args, "-f", "f64le", "pipe:1")

	var out bytes.Buffer
	if err := e.Run(ctx, RunOptions{Args: args, Stdout: &out, Quiet: true}); err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	return parseF64LE(out.Bytes()), nil
}

// parseF64LE converts interleaved little-endian stereo float64 PCM.
// A trailing partial frame is dropped.
func parseF64LE(raw []byte) [][2]float64 {
	const frame = 16
	samples := make([][2]float64, len(raw)/frame)
	for i := range samples {
		off := i * frame
		samples[i][0] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
		samples[i][1] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:]))
	}
	return samples
}
