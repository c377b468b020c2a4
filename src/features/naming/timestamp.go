package naming

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// timestampFor resolves the raw timestamp per the engine's source.
func (e *Engine) timestampFor(path string) (time.Time, error) {
	if e.source == SourceEXIF {
		if ts, err := exifTime(path); err == nil {
			return ts, nil
		} else {
			slog.Debug("No usable EXIF time, falling back to mtime", "path", path, "reason", err)
		}
	}
	return modTime(path)
}

// modTime returns the stat modification time.
func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// exifTime extracts the capture time from the file's EXIF metadata.
func exifTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}
