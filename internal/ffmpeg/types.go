package ffmpeg

import (
	"io"
	"time"
)

// VideoInfo contains metadata about a media file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Rotation   int
	VideoCodec string
	HasAudio   bool
	AudioCodec string
	SampleRate int
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// ProgressFunc is called once per ffmpeg progress block.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
	// Stdout receives raw stdout instead of the line scanner.
	Stdout io.Writer
	// Quiet drops progress reporting and lowers the log level.
	Quiet bool
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)
