package download

import (
	"os"
	"path/filepath"

	fileutil "inference/internal/file"
)

// ReadinessStore records which model assets are fully materialized on disk.
// The marker's mere existence is the durable signal; its content is not
// interpreted. Markers are only ever written, never cleared.
type ReadinessStore struct {
	modelsDir string
}

func NewReadinessStore(modelsDir string) *ReadinessStore {
	return &ReadinessStore{modelsDir: modelsDir}
}

// ModelDir returns the on-disk directory holding one model's asset.
func (s *ReadinessStore) ModelDir(modelID string) string {
	return filepath.Join(s.modelsDir, modelID)
}

func (s *ReadinessStore) markerPath(modelID string) string {
	return filepath.Join(s.ModelDir(modelID), ".ready")
}

// IsReady reports whether the model's asset is fully materialized.
func (s *ReadinessStore) IsReady(modelID string) bool {
	_, err := os.Stat(s.markerPath(modelID))
	return err == nil
}

// MarkReady writes the readiness marker. Safe to call repeatedly.
func (s *ReadinessStore) MarkReady(modelID string) error {
	return fileutil.WriteFileAtomic(s.markerPath(modelID), []byte("ready"))
}
