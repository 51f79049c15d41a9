package download

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// stubFetcher is a controllable Fetcher for coordinator tests.
type stubFetcher struct {
	calls     atomic.Int64
	release   chan struct{} // when non-nil, Fetch blocks until closed
	err       error
	fractions []float64
}

func (f *stubFetcher) Fetch(_ context.Context, modelID string, progress ProgressFunc) error {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	for _, fraction := range f.fractions {
		progress(fraction, "Downloading "+modelID)
	}
	return f.err
}

func newTestCoordinator(t *testing.T, fetcher Fetcher) (*Coordinator, *Registry, *ReadinessStore) {
	t.Helper()
	reg := NewRegistry()
	store := NewReadinessStore(t.TempDir())
	return NewCoordinator(reg, store, fetcher), reg, store
}

func waitAll(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !c.WaitAll(ctx) {
		t.Fatalf("background fetches did not finish in time")
	}
}

func TestEnsureReadyModelSkipsRegistry(t *testing.T) {
	fetcher := &stubFetcher{}
	c, reg, store := newTestCoordinator(t, fetcher)

	if err := store.MarkReady("MobileCLIP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot := c.Ensure("MobileCLIP")
	if snapshot.DownloadID != "ready-MobileCLIP" {
		t.Fatalf("expected synthetic download id, got %q", snapshot.DownloadID)
	}
	if snapshot.Status != StatusCompleted || snapshot.Progress != 1.0 {
		t.Fatalf("expected completed/1.0, got %s/%v", snapshot.Status, snapshot.Progress)
	}
	if fetcher.calls.Load() != 0 {
		t.Fatalf("no fetch should run for a ready model")
	}
	if _, active := reg.activeDownloadID("MobileCLIP"); active {
		t.Fatalf("ready model must not enter the active index")
	}

	// repeated calls are referentially stable
	if again := c.Ensure("MobileCLIP"); again.DownloadID != snapshot.DownloadID {
		t.Fatalf("expected stable synthetic id, got %q", again.DownloadID)
	}
}

func TestStatusResolvesSyntheticID(t *testing.T) {
	c, _, _ := newTestCoordinator(t, &stubFetcher{})

	snapshot, err := c.Status("ready-YOLOv8n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.ModelID != "YOLOv8n" || snapshot.Status != StatusCompleted {
		t.Fatalf("unexpected synthetic snapshot: %+v", snapshot)
	}
}

func TestStatusUnknownID(t *testing.T) {
	c, _, _ := newTestCoordinator(t, &stubFetcher{})

	if _, err := c.Status("e3b0c44298fc1c149afbf4c8996fb924"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentEnsureLaunchesSingleFetch(t *testing.T) {
	fetcher := &stubFetcher{release: make(chan struct{})}
	c, _, _ := newTestCoordinator(t, fetcher)

	const callers = 16
	snapshots := make([]Task, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshots[i] = c.Ensure("PaddleOCR")
		}(i)
	}
	wg.Wait()

	firstID := snapshots[0].DownloadID
	for _, snapshot := range snapshots {
		if snapshot.DownloadID != firstID {
			t.Fatalf("callers joined different tasks: %q vs %q", snapshot.DownloadID, firstID)
		}
	}

	close(fetcher.release)
	waitAll(t, c)

	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
}

func TestFetchSuccessCompletesTask(t *testing.T) {
	fetcher := &stubFetcher{fractions: []float64{0.25, 0.75}}
	c, reg, store := newTestCoordinator(t, fetcher)

	snapshot := c.Ensure("CLIP-ViT-L-14")
	if snapshot.Status != StatusPending {
		t.Fatalf("expected pending snapshot, got %s", snapshot.Status)
	}
	if !strings.Contains(snapshot.Message, "CLIP-ViT-L-14") {
		t.Fatalf("message should name the model: %q", snapshot.Message)
	}
	waitAll(t, c)

	final, err := c.Status(snapshot.DownloadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final.Status != StatusCompleted || final.Progress != 1.0 {
		t.Fatalf("expected completed/1.0, got %s/%v", final.Status, final.Progress)
	}
	if !store.IsReady("CLIP-ViT-L-14") {
		t.Fatalf("successful fetch must mark the model ready")
	}
	if _, active := reg.activeDownloadID("CLIP-ViT-L-14"); active {
		t.Fatalf("terminal task must leave the active index")
	}
}

func TestFetchFailureAllowsRetry(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection reset")}
	c, _, store := newTestCoordinator(t, fetcher)

	first := c.Ensure("YOLOv9")
	waitAll(t, c)

	failed, err := c.Status(first.DownloadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failed.Status != StatusFailed || failed.Progress != 0.0 {
		t.Fatalf("expected failed/0.0, got %s/%v", failed.Status, failed.Progress)
	}
	if failed.Error == "" || !strings.Contains(failed.Message, "Failed preparing") {
		t.Fatalf("failure should carry error and message, got %+v", failed)
	}
	if store.IsReady("YOLOv9") {
		t.Fatalf("failed fetch must not mark the model ready")
	}

	// the active index was released, so the next ensure starts fresh
	second := c.Ensure("YOLOv9")
	if second.DownloadID == first.DownloadID {
		t.Fatalf("retry should create a brand-new task, got the old id")
	}
	waitAll(t, c)

	// the failed task stays queryable forever
	if stale, err := c.Status(first.DownloadID); err != nil || stale.Status != StatusFailed {
		t.Fatalf("first attempt should remain queryable as failed, got %+v (%v)", stale, err)
	}
}

func TestProgressIsMonotoneAndTerminalIsSticky(t *testing.T) {
	reg := NewRegistry()
	snapshot, created := reg.JoinOrCreate("Tesseract")
	if !created {
		t.Fatalf("expected a fresh task")
	}

	reg.update(snapshot.DownloadID, StatusDownloading, 0.5, "Downloading Tesseract", "")
	reg.update(snapshot.DownloadID, StatusDownloading, 0.3, "Downloading Tesseract", "")
	if current, _ := reg.Get(snapshot.DownloadID); current.Progress != 0.5 {
		t.Fatalf("progress must not decrease, got %v", current.Progress)
	}

	reg.update(snapshot.DownloadID, StatusCompleted, 1.0, "Tesseract ready", "")
	reg.update(snapshot.DownloadID, StatusDownloading, 0.1, "Downloading Tesseract", "")
	reg.update(snapshot.DownloadID, StatusFailed, 0.0, "Failed preparing Tesseract", "boom")
	current, _ := reg.Get(snapshot.DownloadID)
	if current.Status != StatusCompleted || current.Progress != 1.0 {
		t.Fatalf("terminal status must be sticky, got %s/%v", current.Status, current.Progress)
	}
}
