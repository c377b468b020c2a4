// Package naming derives canonical screenshot names. A canonical name is
// Screenshot-YYYYMMDD-HHMMSS-<checksum8><ext>: the file's modification time in
// UTC plus the last 8 hex characters of the SHA-256 of its full content. The
// package has no side effects beyond reading file bytes and stat metadata.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// canonicalPattern matches basenames that already carry the canonical form.
// Any extension is accepted; only the prefix, date, time and checksum are fixed.
var canonicalPattern = regexp.MustCompile(`^Screenshot-[0-9]{8}-[0-9]{6}-[0-9A-Fa-f]{8}\..*`)

const (
	namePrefix      = "Screenshot"
	timestampLayout = "20060102-150405"
	fragmentLength  = 8
)

// TimestampSource selects where the naming timestamp comes from.
type TimestampSource string

const (
	SourceModTime TimestampSource = "mtime"
	SourceEXIF    TimestampSource = "exif"
)

// Engine computes canonical names for files.
type Engine struct {
	source TimestampSource
}

// NewEngine creates a naming engine. source must be one of the TimestampSource
// values; anything else falls back to modification time.
func NewEngine(source TimestampSource) *Engine {
	if source != SourceEXIF {
		source = SourceModTime
	}
	return &Engine{source: source}
}

// NeedsRename reports whether the file's base name does not already match the
// canonical pattern. Pure string match, no I/O.
func NeedsRename(path string) bool {
	return !canonicalPattern.MatchString(filepath.Base(path))
}

// ChecksumFragment reads the whole file, hashes it with SHA-256 and returns
// the last 8 hex characters of the digest. The full-content hash keeps the
// fragment collision resistant among screenshots taken in the same second.
func (e *Engine) ChecksumFragment(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	checksum := hex.EncodeToString(hash.Sum(nil))
	fragment := checksum[len(checksum)-fragmentLength:]
	slog.Debug("Computed checksum", "path", path, "sha256", checksum, "fragment", fragment)
	return fragment, nil
}

// Timestamp returns the file's naming timestamp formatted as YYYYMMDD-HHMMSS
// in UTC. The default source is the stat modification time, so repeated
// processing of an unchanged file is deterministic; the EXIF source prefers
// the capture time and falls back to the modification time.
func (e *Engine) Timestamp(path string) (string, error) {
	ts, err := e.timestampFor(path)
	if err != nil {
		return "", err
	}
	formatted := ts.UTC().Format(timestampLayout)
	slog.Debug("Resolved file timestamp", "path", path, "time", ts.UTC().Format("2006-01-02T15:04:05Z07:00"), "partial", formatted)
	return formatted, nil
}

// NewFilename composes the canonical name for the file at path. The extension
// is taken verbatim from the original basename, leading dot and case included.
func (e *Engine) NewFilename(path string) (string, error) {
	ts, err := e.Timestamp(path)
	if err != nil {
		return "", err
	}
	fragment, err := e.ChecksumFragment(path)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(filepath.Base(path))
	return fmt.Sprintf("%s-%s-%s%s", namePrefix, ts, fragment, ext), nil
}
