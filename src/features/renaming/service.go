// Package renaming drives the per-event rename pipeline: filter the event,
// wait for the producer to finish writing, derive the canonical name and move
// the file without ever overwriting.
//
// Known limitation: two files whose content hashes end in the same 8 hex
// characters and whose modification times share a second resolve to the same
// canonical name. The second rename is refused and the file keeps its original
// name; no data is lost.
package renaming

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/contre95/snapshotd/src/features/config"
	"github.com/contre95/snapshotd/src/features/metrics"
	"github.com/contre95/snapshotd/src/features/naming"
)

// Service handles creation events synchronously, one at a time. There is no
// shared mutable state beyond the filesystem itself.
type Service struct {
	engine   *naming.Engine
	executor *Executor
	config   *config.Manager
	metrics  *metrics.Collector
	recorder Recorder
	notifier Notifier
}

// NewService creates a new renaming service. metrics, recorder and notifier
// may be nil.
func NewService(engine *naming.Engine, executor *Executor, cfg *config.Manager, collector *metrics.Collector, recorder Recorder, notifier Notifier) *Service {
	return &Service{
		engine:   engine,
		executor: executor,
		config:   cfg,
		metrics:  collector,
		recorder: recorder,
		notifier: notifier,
	}
}

// Handle processes a single creation event to a terminal outcome. Per-event
// errors are absorbed here; the watch loop only ever stops on interrupt.
func (s *Service) Handle(ctx context.Context, event Event) Result {
	slog.Info("File creation detected", "path", event.Path)

	if event.IsDir {
		slog.Debug("Directory event, not operating", "path", event.Path)
		return s.finish(event, Result{Outcome: OutcomeFiltered})
	}

	ext := strings.ToLower(filepath.Ext(event.Path))
	if !s.config.Get().Watch.ExtensionSet()[ext] {
		slog.Debug("Not an extension of concern, not operating", "path", event.Path, "ext", ext)
		return s.finish(event, Result{Outcome: OutcomeFiltered})
	}

	if !naming.NeedsRename(event.Path) {
		slog.Debug("File already meets the canonical pattern, no action needed", "path", event.Path)
		return s.finish(event, Result{Outcome: OutcomeFiltered})
	}

	rcfg := s.config.Get().Rename

	// Grace period: the producer may still be flushing image data. A
	// heuristic, not a guarantee; a slow writer can still yield a non-ideal
	// fragment.
	slog.Debug("Waiting grace period before rename", "path", event.Path, "grace", rcfg.GracePeriod.Std().String())
	if !sleepCtx(ctx, rcfg.GracePeriod.Std()) {
		return s.finish(event, Result{Outcome: OutcomeSkipped, Error: "interrupted during grace period"})
	}

	if err := s.waitForSettle(ctx, event.Path, rcfg); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return s.finish(event, Result{Outcome: OutcomeSkipped, Error: "interrupted while waiting for file to settle"})
		}
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Source vanished before processing", "path", event.Path)
			return s.finish(event, Result{Outcome: OutcomeSkipped, Error: ErrSourceVanished.Error()})
		}
		slog.Warn("Could not stat file while settling", "path", event.Path, "error", err)
		return s.finish(event, Result{Outcome: OutcomeFailed, Error: err.Error()})
	}

	if rcfg.VerifyContent {
		if result, done := s.verifyContent(event); done {
			return result
		}
	}

	newName, err := s.engine.NewFilename(event.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Info("Source vanished before naming", "path", event.Path)
			return s.finish(event, Result{Outcome: OutcomeSkipped, Error: ErrSourceVanished.Error()})
		}
		slog.Warn("Failed to compute canonical name", "path", event.Path, "error", err)
		return s.finish(event, Result{Outcome: OutcomeFailed, Error: err.Error()})
	}

	dest, err := s.executor.Rename(event.Path, newName)
	switch {
	case err == nil:
		return s.finish(event, Result{Outcome: OutcomeRenamed, NewPath: dest})
	case errors.Is(err, ErrDestinationExists), errors.Is(err, ErrSourceVanished):
		return s.finish(event, Result{Outcome: OutcomeSkipped, Error: err.Error()})
	default:
		slog.Warn("Rename failed", "path", event.Path, "error", err)
		return s.finish(event, Result{Outcome: OutcomeFailed, Error: err.Error()})
	}
}

// verifyContent sniffs the file bytes and filters anything that is not an
// image regardless of its extension. Returns done=true when the event
// resolved here.
func (s *Service) verifyContent(event Event) (Result, bool) {
	mtype, err := mimetype.DetectFile(event.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.finish(event, Result{Outcome: OutcomeSkipped, Error: ErrSourceVanished.Error()}), true
		}
		slog.Warn("Failed to sniff content type", "path", event.Path, "error", err)
		return s.finish(event, Result{Outcome: OutcomeFailed, Error: err.Error()}), true
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		slog.Debug("Content is not an image, not operating", "path", event.Path, "detected", mtype.String())
		return s.finish(event, Result{Outcome: OutcomeFiltered}), true
	}
	return Result{}, false
}

// waitForSettle re-stats the file until two consecutive sizes match, bounded
// by SettleAttempts. After the attempts run out the pipeline proceeds anyway;
// the grace period already covered the common case.
func (s *Service) waitForSettle(ctx context.Context, path string, rcfg config.Rename) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	prev := info.Size()

	for i := 0; i < rcfg.SettleAttempts; i++ {
		if !sleepCtx(ctx, rcfg.SettleInterval.Std()) {
			return ctx.Err()
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == prev {
			return nil
		}
		slog.Debug("File still growing, waiting for size to settle", "path", path, "size", info.Size())
		prev = info.Size()
	}
	return nil
}

// finish stamps the result and fans it out to metrics, journal and notifier.
func (s *Service) finish(event Event, result Result) Result {
	result.ID = uuid.NewString()
	result.Path = event.Path
	result.Time = time.Now()

	slog.Info("Event resolved", "path", result.Path, "outcome", result.Outcome, "new_path", result.NewPath, "error", result.Error)

	if s.metrics != nil {
		s.metrics.ObserveOutcome(string(result.Outcome))
		if result.Outcome == OutcomeRenamed {
			s.metrics.RenameDone()
		}
	}
	if s.recorder != nil {
		s.recorder.Record(result)
	}
	if s.notifier != nil {
		s.notifier.Notify(result)
	}
	return result
}

// sleepCtx sleeps for d unless the context ends first. Returns false when the
// wait was interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
