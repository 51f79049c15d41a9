package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	fileutil "inference/internal/file"
)

const (
	fetchChunkSize    = 1 << 20
	simulationSteps   = 20
	defaultStepDelay  = 150 * time.Millisecond
	maxStreamProgress = 0.99
)

// ProgressFunc receives monotone progress ticks while an asset is being
// materialized.
type ProgressFunc func(fraction float64, message string)

// Fetcher materializes one model asset on disk, reporting progress along the
// way. A fetch runs to completion or failure; there is no cancel API beyond
// the context handed in at launch.
type Fetcher interface {
	Fetch(ctx context.Context, modelID string, progress ProgressFunc) error
}

// AssetFetcher streams the asset from a configured URL, or runs a timed
// simulation when no URL is known for the model. The simulation stands in for
// provisioning steps that have no externally observable progress signal.
type AssetFetcher struct {
	store     *ReadinessStore
	assetURLs map[string]string
	client    *http.Client
	stepDelay time.Duration
}

type AssetFetcherOptions struct {
	AssetURLs    map[string]string
	FetchTimeout time.Duration
	// StepDelay paces the simulated path; tests shrink it.
	StepDelay time.Duration
}

func NewAssetFetcher(store *ReadinessStore, opts AssetFetcherOptions) *AssetFetcher {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 60 * time.Second
	}
	if opts.StepDelay <= 0 {
		opts.StepDelay = defaultStepDelay
	}
	return &AssetFetcher{
		store:     store,
		assetURLs: opts.AssetURLs,
		client:    &http.Client{Timeout: opts.FetchTimeout},
		stepDelay: opts.StepDelay,
	}
}

func (f *AssetFetcher) Fetch(ctx context.Context, modelID string, progress ProgressFunc) error {
	if assetURL, ok := f.assetURLs[modelID]; ok && assetURL != "" {
		return f.stream(ctx, modelID, assetURL, progress)
	}
	return f.simulate(ctx, modelID, progress)
}

// stream downloads the asset with chunked reads, interpolating progress from
// content-length when the server provides one.
func (f *AssetFetcher) stream(ctx context.Context, modelID, assetURL string, progress ProgressFunc) error {
	progress(0.01, "Downloading "+modelID)

	targetDir := f.store.ModelDir(modelID)
	if err := fileutil.EnsureDir(targetDir); err != nil {
		return err
	}
	targetPath := filepath.Join(targetDir, "model.asset")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch asset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch asset: http %d", resp.StatusCode)
	}

	targetFile, err := os.Create(targetPath) //nolint:gosec // path is constructed by the application
	if err != nil {
		return fmt.Errorf("create asset file: %w", err)
	}

	total := resp.ContentLength
	var received int64
	buf := make([]byte, fetchChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := targetFile.Write(buf[:n]); writeErr != nil {
				_ = targetFile.Close()
				return fmt.Errorf("write asset: %w", writeErr)
			}
			received += int64(n)
			// no fake values when the server does not announce a size
			if total > 0 {
				progress(min(maxStreamProgress, float64(received)/float64(total)), "Downloading "+modelID)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = targetFile.Close()
			return fmt.Errorf("read asset: %w", readErr)
		}
	}

	if err := targetFile.Close(); err != nil {
		return fmt.Errorf("close asset file: %w", err)
	}
	log.Info().Str("model_id", modelID).Int64("bytes", received).Msg("model asset downloaded")
	return nil
}

// simulate walks a fixed progress sequence with small delays.
func (f *AssetFetcher) simulate(ctx context.Context, modelID string, progress ProgressFunc) error {
	for i := 1; i <= simulationSteps; i++ {
		progress(float64(i)/simulationSteps, "Preparing "+modelID)
		select {
		case <-time.After(f.stepDelay):
		case <-ctx.Done():
			return fmt.Errorf("preparation interrupted: %w", ctx.Err())
		}
	}
	return nil
}
