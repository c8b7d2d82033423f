package ffmpeg

import (
	"fmt"
	"image"
	"strings"
)

// FilterChain is a comma separated ffmpeg filter chain. Methods given
// unusable values leave the chain unchanged.
type FilterChain []string

// ScaleTo resizes frames to exactly size.
func (c FilterChain) ScaleTo(size image.Point) FilterChain {
	if size.X <= 0 || size.Y <= 0 {
		return c
	}
	return append(c, fmt.Sprintf("scale=%d:%d:flags=bilinear", size.X, size.Y))
}

// EvenDimensions crops a trailing odd row or column, which yuv420p cannot
// represent.
func (c FilterChain) EvenDimensions() FilterChain {
	return append(c, "crop=trunc(iw/2)*2:trunc(ih/2)*2:0:0")
}

// PixelFormat forces the output pixel format.
func (c FilterChain) PixelFormat(pixFmt string) FilterChain {
	if pixFmt == "" {
		return c
	}
	return append(c, "format=pix_fmts="+pixFmt)
}

// PadAudio appends silence so the stream lasts at least seconds.
func (c FilterChain) PadAudio(seconds float64) FilterChain {
	if seconds <= 0 {
		return c
	}
	return append(c, fmt.Sprintf("apad=whole_dur=%.6f", seconds))
}

func (c FilterChain) String() string {
	return strings.Join(c, ",")
}

// args returns the flag and chain, or nothing for an empty chain.
func (c FilterChain) args(flag string) []string {
	if len(c) == 0 {
		return nil
	}
	return []string{flag, c.String()}
}
