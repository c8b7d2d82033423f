package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolvePath joins a relative path onto base. Absolute paths and an
// empty base pass through.
func ResolvePath(base, path string) string {
	if path == "" || base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// TrimExtension strips the final extension from a file name
func TrimExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// FramePath names the PNG for frame index inside dir
func FramePath(dir string, index int) string {
	return filepath.Join(dir, FrameName(index))
}

// FramePattern is the ffmpeg image2 pattern matching FrameName
const FramePattern = "frame_%06d.png"

// FrameName is the zero-padded file name of an exported frame
func FrameName(index int) string {
	return fmt.Sprintf(FramePattern, index)
}
