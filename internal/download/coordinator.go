package download

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// readyPrefix marks the synthetic descriptor returned for models that are
// already materialized. Derived deterministically from the model id so
// repeated ensure calls stay referentially stable without a registry entry.
const readyPrefix = "ready-"

// Coordinator is the public entry point for model provisioning. It decides
// whether to reuse a ready asset, join an in-flight download, or launch a new
// one. At most one fetch runs per model id at any time; the registry's active
// index is the sole deduplication mechanism.
type Coordinator struct {
	registry *Registry
	store    *ReadinessStore
	fetcher  Fetcher

	mu        sync.Mutex
	baseCtx   context.Context
	workersWG sync.WaitGroup
}

func NewCoordinator(registry *Registry, store *ReadinessStore, fetcher Fetcher) *Coordinator {
	return &Coordinator{
		registry: registry,
		store:    store,
		fetcher:  fetcher,
		baseCtx:  context.Background(),
	}
}

// SetBaseContext sets the context inherited by background fetches. Intended
// to be set at process startup and cancelled during shutdown.
func (c *Coordinator) SetBaseContext(ctx context.Context) {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
}

// WaitAll blocks until all in-flight fetches finish or the context is done.
// Returns true if all workers finished, false if timed out.
func (c *Coordinator) WaitAll(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		c.workersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Ensure makes sure the model's asset is or becomes available. It returns
// immediately: a completed synthetic descriptor when the asset is already on
// disk, the current snapshot of an in-flight download, or a fresh pending
// task whose fetch has just been launched.
func (c *Coordinator) Ensure(modelID string) Task {
	if c.store.IsReady(modelID) {
		return readyTask(modelID)
	}

	snapshot, created := c.registry.JoinOrCreate(modelID)
	if created {
		log.Info().Str("model_id", modelID).Str("download_id", snapshot.DownloadID).Msg("model download started")
		c.mu.Lock()
		ctx := c.baseCtx
		c.mu.Unlock()
		c.workersWG.Add(1)
		go func() {
			defer c.workersWG.Done()
			c.run(ctx, snapshot.DownloadID, modelID)
		}()
	}
	return snapshot
}

// Status returns the snapshot for a download id. Synthetic ready ids resolve
// without a registry lookup; unknown ids (including ids issued by a prior
// process instance) fail with ErrNotFound.
func (c *Coordinator) Status(downloadID string) (Task, error) {
	if modelID, ok := strings.CutPrefix(downloadID, readyPrefix); ok {
		return readyTask(modelID), nil
	}
	snapshot, ok := c.registry.Get(downloadID)
	if !ok {
		return Task{}, ErrNotFound
	}
	return snapshot, nil
}

// run owns all mutation of its task: progress ticks, the terminal
// transition, and the active-index release.
func (c *Coordinator) run(ctx context.Context, downloadID, modelID string) {
	defer c.registry.releaseActive(modelID)

	err := c.fetcher.Fetch(ctx, modelID, func(fraction float64, message string) {
		c.registry.update(downloadID, StatusDownloading, fraction, message, "")
	})
	if err == nil {
		err = c.store.MarkReady(modelID)
	}
	if err != nil {
		log.Warn().Str("model_id", modelID).Str("download_id", downloadID).Err(err).Msg("model download failed")
		c.registry.update(downloadID, StatusFailed, 0.0, "Failed preparing "+modelID, err.Error())
		return
	}

	c.registry.update(downloadID, StatusCompleted, 1.0, modelID+" ready", "")
	log.Info().Str("model_id", modelID).Str("download_id", downloadID).Msg("model ready")
}

func readyTask(modelID string) Task {
	return Task{
		DownloadID: readyPrefix + modelID,
		ModelID:    modelID,
		Status:     StatusCompleted,
		Progress:   1.0,
		Message:    modelID + " ready",
	}
}
