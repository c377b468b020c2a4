package renaming

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/contre95/snapshotd/src/features/config"
	"github.com/contre95/snapshotd/src/features/metrics"
	"github.com/contre95/snapshotd/src/features/naming"
)

// MockRecorder collects results in memory.
type MockRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (m *MockRecorder) Record(result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func (m *MockRecorder) Recent(limit int) []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}

// MockNotifier remembers the last result it was told about.
type MockNotifier struct {
	last *Result
}

func (m *MockNotifier) Notify(result Result) {
	m.last = &result
}

func testConfig() *config.Manager {
	return config.NewManager(&config.Config{
		Watch: config.Watch{
			Extensions: []string{".png", ".jpg", ".jpeg"},
		},
		Rename: config.Rename{
			GracePeriod:     0, // no waiting in tests
			SettleInterval:  config.Duration(time.Millisecond),
			SettleAttempts:  2,
			TimestampSource: "mtime",
		},
	})
}

func newTestService(t *testing.T, recorder Recorder, notifier Notifier) *Service {
	t.Helper()
	collector := metrics.NewCollector(prometheus.NewRegistry())
	engine := naming.NewEngine(naming.SourceModTime)
	return NewService(engine, NewExecutor(), testConfig(), collector, recorder, notifier)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
}

func TestHandleFiltersDirectoryEvents(t *testing.T) {
	service := newTestService(t, nil, nil)
	result := service.Handle(context.Background(), Event{Path: t.TempDir(), IsDir: true})
	if result.Outcome != OutcomeFiltered {
		t.Errorf("expected filtered, got %s", result.Outcome)
	}
}

func TestHandleFiltersUnknownExtensions(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)
	path := writeFile(t, dir, "anim.gif", "gif bytes")

	result := service.Handle(context.Background(), Event{Path: path})
	if result.Outcome != OutcomeFiltered {
		t.Errorf("expected filtered, got %s", result.Outcome)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("filtered file should be untouched: %v", err)
	}
}

func TestHandleFiltersCanonicalNames(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)
	path := writeFile(t, dir, "Screenshot-20240305-140709-deadbeef.png", "already done")

	result := service.Handle(context.Background(), Event{Path: path})
	if result.Outcome != OutcomeFiltered {
		t.Errorf("expected filtered, got %s", result.Outcome)
	}
}

func TestHandleRenamesToCanonicalName(t *testing.T) {
	dir := t.TempDir()
	recorder := &MockRecorder{}
	notifier := &MockNotifier{}
	service := newTestService(t, recorder, notifier)

	path := writeFile(t, dir, "IMG_0001.PNG", "abc")
	setMtime(t, path, time.Date(2023, 12, 1, 8, 30, 0, 0, time.UTC))

	result := service.Handle(context.Background(), Event{Path: path})
	if result.Outcome != OutcomeRenamed {
		t.Fatalf("expected renamed, got %s (%s)", result.Outcome, result.Error)
	}

	// sha256("abc") ends in f20015ad; extension case preserved.
	want := filepath.Join(dir, "Screenshot-20231201-083000-f20015ad.PNG")
	if result.NewPath != want {
		t.Errorf("expected destination %s, got %s", want, result.NewPath)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("source should be gone, stat err = %v", err)
	}

	if len(recorder.results) != 1 {
		t.Fatalf("expected 1 recorded result, got %d", len(recorder.results))
	}
	if notifier.last == nil || notifier.last.Outcome != OutcomeRenamed {
		t.Error("notifier did not receive the rename result")
	}
}

func TestHandleIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)

	path := writeFile(t, dir, "capture.jpg", "hello world")
	first := service.Handle(context.Background(), Event{Path: path})
	if first.Outcome != OutcomeRenamed {
		t.Fatalf("expected renamed, got %s", first.Outcome)
	}

	second := service.Handle(context.Background(), Event{Path: first.NewPath})
	if second.Outcome != OutcomeFiltered {
		t.Errorf("re-processing a canonical file should be a no-op, got %s", second.Outcome)
	}
}

func TestHandleRefusesConflict(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)

	path := writeFile(t, dir, "IMG_0002.png", "abc")
	setMtime(t, path, time.Date(2023, 12, 1, 8, 30, 0, 0, time.UTC))
	occupied := writeFile(t, dir, "Screenshot-20231201-083000-f20015ad.png", "a different screenshot")

	result := service.Handle(context.Background(), Event{Path: path})
	if result.Outcome != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", result.Outcome)
	}

	// Both files untouched.
	data, err := os.ReadFile(occupied)
	if err != nil || string(data) != "a different screenshot" {
		t.Errorf("destination was modified: %q, %v", data, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("source should still exist: %v", err)
	}
}

func TestHandleSkipsVanishedSource(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)

	result := service.Handle(context.Background(), Event{Path: filepath.Join(dir, "gone.png")})
	if result.Outcome != OutcomeSkipped {
		t.Errorf("expected skipped for vanished source, got %s", result.Outcome)
	}
}

func TestHandleVerifyContentFiltersNonImages(t *testing.T) {
	dir := t.TempDir()
	recorder := &MockRecorder{}
	service := newTestService(t, recorder, nil)

	cfg := service.config.Get()
	cfg.Rename.VerifyContent = true

	// Plain text behind a .png extension.
	path := writeFile(t, dir, "notes.png", "just some text, no image header")

	result := service.Handle(context.Background(), Event{Path: path})
	if result.Outcome != OutcomeFiltered {
		t.Errorf("expected filtered for non-image content, got %s", result.Outcome)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be untouched: %v", err)
	}
}

func TestHandleSkipsWhenInterruptedWhileSettling(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)
	cfg := service.config.Get()
	cfg.Rename.SettleInterval = config.Duration(time.Minute)
	cfg.Rename.SettleAttempts = 1

	path := writeFile(t, dir, "IMG_0004.png", "abc")

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()

	result := service.Handle(ctx, Event{Path: path})
	if result.Outcome != OutcomeSkipped {
		t.Errorf("expected skipped on interrupt during settling, got %s", result.Outcome)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be untouched: %v", err)
	}
}

func TestHandleSkipsWhenInterrupted(t *testing.T) {
	dir := t.TempDir()
	service := newTestService(t, nil, nil)
	service.config.Get().Rename.GracePeriod = config.Duration(time.Minute)

	path := writeFile(t, dir, "IMG_0003.png", "abc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := service.Handle(ctx, Event{Path: path})
	if result.Outcome != OutcomeSkipped {
		t.Errorf("expected skipped on interrupt, got %s", result.Outcome)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be untouched: %v", err)
	}
}
