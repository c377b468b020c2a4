package renaming

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrDestinationExists means a file already occupies the target name.
	// Overwriting could destroy a different screenshot whose truncated
	// fragment or clock second coincides, so the move is refused.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrSourceVanished means the file disappeared between detection and the
	// move. Not fatal; the event resolves to skipped.
	ErrSourceVanished = errors.New("source file vanished")
)

// Executor performs the filesystem move. Destination is always in the same
// directory as the source, so the rename stays on one volume and is atomic on
// POSIX filesystems.
type Executor struct{}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Rename moves path to newName within its directory and returns the
// destination path. It refuses to overwrite an existing file and skips
// sources that no longer exist.
func (x *Executor) Rename(path, newName string) (string, error) {
	dest := filepath.Join(filepath.Dir(path), newName)

	if _, err := os.Stat(dest); err == nil {
		slog.Error("Destination already exists, cannot move", "from", path, "to", dest)
		return "", fmt.Errorf("%s: %w", dest, ErrDestinationExists)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to stat destination %s: %w", dest, err)
	}

	if err := os.Rename(path, dest); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrSourceVanished)
		}
		return "", fmt.Errorf("failed to move %s to %s: %w", path, dest, err)
	}

	slog.Info("Moved", "from", path, "to", dest)
	return dest, nil
}
